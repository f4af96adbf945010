package datasource

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// FallbackDataSource serves fixture responses when the primary data source
// cannot reach the backend. HTTP status and JSON errors are returned as is:
// only requests that never produced a response are substituted.
type FallbackDataSource struct {
	primary    DataSource
	fallback   DataSource
	logger     *zap.Logger
	onFallback func(Action)
}

// NewFallbackDataSource wraps primary so network failures are answered by fallback
func NewFallbackDataSource(primary, fallback DataSource, logger *zap.Logger) *FallbackDataSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackDataSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// OnFallback registers a hook invoked every time a fixture response is substituted
func (s *FallbackDataSource) OnFallback(hook func(Action)) {
	s.onFallback = hook
}

// Call invokes the primary data source, degrading to the fallback on network errors
func (s *FallbackDataSource) Call(ctx context.Context, action Action, params Params) (json.RawMessage, error) {
	raw, err := s.primary.Call(ctx, action, params)
	if err == nil {
		return raw, nil
	}

	// A cancelled caller is not a network failure
	if ctx.Err() != nil || !IsNetworkError(err) {
		return nil, err
	}

	s.logger.Warn("backend unreachable, using fixture data",
		zap.String("action", string(action)),
		zap.Error(err))

	if s.onFallback != nil {
		s.onFallback(action)
	}

	return s.fallback.Call(ctx, action, params)
}
