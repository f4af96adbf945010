package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/navikt/studyroom/internal/service"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
)

// ViewStream is the SSE stream carrying controller view updates
const ViewStream = "view"

// SSEManager pushes view state updates to connected browsers
type SSEManager struct {
	server *sse.Server
	logger *zap.Logger
	nextID atomic.Uint64
}

// NewSSEManager creates a new server-sent events manager
func NewSSEManager(logger *zap.Logger) *SSEManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := sse.New()
	server.AutoReplay = false
	server.AutoStream = false
	server.CreateStream(ViewStream)

	return &SSEManager{
		server: server,
		logger: logger,
	}
}

// ServeHTTP implements the http.Handler interface for SSE connections.
// Clients are subscribed to the view stream unless they name another one.
func (sm *SSEManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers to make SSE work in various environments
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx proxy buffering

	if r.URL.Query().Get("stream") == "" {
		r = r.Clone(r.Context())
		q := r.URL.Query()
		q.Set("stream", ViewStream)
		r.URL.RawQuery = q.Encode()
	}

	sm.logger.Debug("SSE client connected", zap.String("remote", r.RemoteAddr))
	sm.server.ServeHTTP(w, r)
	sm.logger.Debug("SSE client disconnected", zap.String("remote", r.RemoteAddr))
}

// NotifyViewUpdate publishes the view state to all connected clients
func (sm *SSEManager) NotifyViewUpdate(state service.ViewState) {
	data, err := json.Marshal(state)
	if err != nil {
		sm.logger.Error("failed to encode view state", zap.Error(err))
		return
	}

	id := sm.nextID.Add(1)
	sm.server.Publish(ViewStream, &sse.Event{
		ID:    []byte(strconv.FormatUint(id, 10)),
		Event: []byte("view"),
		Data:  data,
	})
}

// Shutdown disconnects all clients and closes the streams
func (sm *SSEManager) Shutdown() {
	sm.server.Close()
}
