package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes holds the handlers mounted by SetupRoutes. Nil handlers are skipped.
type Routes struct {
	State    StateProvider
	Ready    ReadinessChecker
	Events   http.Handler
	Gatherer prometheus.Gatherer
	// Proxy is mounted at ProxyPrefix
	Proxy       http.Handler
	ProxyPrefix string
}

// SetupRoutes configures the HTTP routes of the companion server
func SetupRoutes(routes Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health/live", HealthLiveHandler)
	mux.HandleFunc("/health/ready", HealthReadyHandler(routes.Ready))

	if routes.State != nil {
		mux.Handle("/state", StateHandler(routes.State))
	}

	if routes.Events != nil {
		mux.Handle("/events", routes.Events)
	}

	if routes.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(routes.Gatherer, promhttp.HandlerOpts{}))
	}

	if routes.Proxy != nil {
		prefix := routes.ProxyPrefix
		if prefix == "" {
			prefix = "/api"
		}
		mux.Handle(prefix, routes.Proxy)
		mux.Handle(prefix+"/", routes.Proxy)
	}

	return mux
}
