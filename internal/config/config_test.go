package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetPollConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("POLL_ROOMS_INTERVAL_SECONDS", "")
		t.Setenv("POLL_MESSAGES_INTERVAL_SECONDS", "")
		t.Setenv("MESSAGE_LIMIT", "")

		cfg := GetPollConfig()
		assert.Equal(t, 30*time.Second, cfg.RoomsInterval)
		assert.Equal(t, 5*time.Second, cfg.MessagesInterval)
		assert.Equal(t, 50, cfg.MessageLimit)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("POLL_ROOMS_INTERVAL_SECONDS", "60")
		t.Setenv("POLL_MESSAGES_INTERVAL_SECONDS", "2")
		t.Setenv("MESSAGE_LIMIT", "20")

		cfg := GetPollConfig()
		assert.Equal(t, time.Minute, cfg.RoomsInterval)
		assert.Equal(t, 2*time.Second, cfg.MessagesInterval)
		assert.Equal(t, 20, cfg.MessageLimit)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		t.Setenv("POLL_ROOMS_INTERVAL_SECONDS", "soon")
		t.Setenv("MESSAGE_LIMIT", "-4")

		cfg := GetPollConfig()
		assert.Equal(t, 30*time.Second, cfg.RoomsInterval)
		assert.Equal(t, 50, cfg.MessageLimit)
	})
}

func TestGetAPIConfig(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantURL    string
		wantMock   bool
		wantRemote bool
	}{
		{
			name:       "explicit URL",
			env:        map[string]string{"STUDYROOM_API_URL": "https://script.example.com/exec"},
			wantURL:    "https://script.example.com/exec",
			wantRemote: true,
		},
		{
			name:       "vite variables are honoured",
			env:        map[string]string{"VITE_API_URL": "https://vite.example.com/exec", "VITE_USE_MOCK": "true"},
			wantURL:    "https://vite.example.com/exec",
			wantMock:   true,
			wantRemote: true,
		},
		{
			name:       "nothing configured",
			env:        map[string]string{},
			wantURL:    "",
			wantRemote: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"STUDYROOM_API_URL", "VITE_API_URL", "STUDYROOM_USE_MOCK", "VITE_USE_MOCK"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := GetAPIConfig()
			assert.Equal(t, tt.wantURL, cfg.BaseURL)
			assert.Equal(t, tt.wantMock, cfg.UseMock)
			assert.Equal(t, tt.wantRemote, cfg.IsRemoteConfigured())
			assert.True(t, cfg.FallbackToMock)
			assert.Equal(t, 30*time.Second, cfg.Timeout)
		})
	}
}

func TestGetRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST_STUDYROOM", "valkey")
	t.Setenv("REDIS_SESSION_TTL_HOURS", "1")
	t.Setenv("REDIS_KEY_PREFIX", "")

	cfg := GetRedisConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "valkey", cfg.Host)
	assert.Equal(t, "6379", cfg.Port)
	assert.Equal(t, "studyroom:", cfg.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}
