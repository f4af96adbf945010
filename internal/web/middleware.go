package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/navikt/studyroom/internal/utils"
	"go.uber.org/zap"
)

// HTTPProtocolMiddleware keeps browsers on HTTP/1.1 semantics for the
// event stream so long-lived SSE connections survive proxies
func HTTPProtocolMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Disable HTTP/3 QUIC protocol advertising globally
		w.Header().Set("Alt-Svc", "clear")

		if strings.HasPrefix(r.URL.Path, "/events") {
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("Cache-Control", "no-cache, no-transform")
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Flush keeps streaming handlers working behind the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger logs every request once it has been served
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", utils.SanitizeLogString(r.URL.Path)),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case status >= 500:
				logger.Error("request served", fields...)
			case r.URL.Path == "/health/live" || r.URL.Path == "/health/ready":
				logger.Debug("request served", fields...)
			default:
				logger.Info("request served", fields...)
			}
		})
	}
}

// Chain wraps h with the given middlewares, the first being outermost
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
