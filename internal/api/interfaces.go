package api

import (
	"github.com/navikt/studyroom/internal/service"
)

// StateProvider exposes the current view state of the controller
type StateProvider interface {
	Snapshot() service.ViewState
}

// ReadinessChecker reports whether the client finished its initial load
type ReadinessChecker interface {
	Ready() bool
}

// ReadyFunc adapts a function to the ReadinessChecker interface
type ReadyFunc func() bool

// Ready calls f
func (f ReadyFunc) Ready() bool {
	return f()
}
