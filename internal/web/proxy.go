package web

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// NewBackendProxy forwards requests under prefix to the backend URL.
// The prefix is replaced by the path of the backend URL, so /api?action=getRooms
// reaches <backend>?action=getRooms from the same origin as the dashboard.
func NewBackendProxy(backendURL, prefix string, logger *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend URL must be absolute: %q", backendURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix = strings.TrimSuffix(prefix, "/")

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rest := strings.TrimPrefix(pr.In.URL.Path, prefix)

			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = target.Path + rest
			pr.Out.URL.RawPath = ""
			pr.Out.Host = target.Host

			// Query parameters of the backend URL come first
			query := target.Query()
			for k, values := range pr.In.URL.Query() {
				for _, v := range values {
					query.Add(k, v)
				}
			}
			pr.Out.URL.RawQuery = query.Encode()
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("backend proxy error", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "backend unavailable", http.StatusBadGateway)
		},
	}
	return proxy, nil
}
