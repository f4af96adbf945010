package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// RemoteDataSource calls the backend over HTTP
type RemoteDataSource struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRemoteDataSource creates a data source for the backend at baseURL
func NewRemoteDataSource(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteDataSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteDataSource{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Call invokes the action with GET or POST depending on the action type
func (s *RemoteDataSource) Call(ctx context.Context, action Action, params Params) (json.RawMessage, error) {
	req, err := s.newRequest(ctx, action, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Debug("calling backend", zap.String("action", string(action)), zap.String("method", req.Method))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Action: action, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("backend error (status %d): %s", resp.StatusCode, truncate(body, 200)),
		}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: %w", action, ErrInvalidJSON)
	}

	return json.RawMessage(body), nil
}

// newRequest builds the HTTP request for an action
func (s *RemoteDataSource) newRequest(ctx context.Context, action Action, params Params) (*http.Request, error) {
	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}

	if action.IsRead() {
		query := endpoint.Query()
		query.Set("action", string(action))
		for k, v := range params {
			if v == nil {
				continue
			}
			query.Set(k, fmt.Sprint(v))
		}
		endpoint.RawQuery = query.Encode()

		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	}

	body := make(map[string]any, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	body["action"] = string(action)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
