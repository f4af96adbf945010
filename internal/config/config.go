// Package config provides configuration management for the application
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the complete client configuration
type Config struct {
	API       APIConfig
	Poll      PollConfig
	Redis     RedisConfig
	Store     StoreConfig
	Dashboard DashboardConfig
	Log       LogConfig
}

// APIConfig holds everything needed to reach the study-room backend
type APIConfig struct {
	// BaseURL is the single endpoint every action is sent to
	BaseURL string
	// UseMock selects the fixture data source instead of the remote one
	UseMock bool
	// FallbackToMock substitutes fixture responses when the network fails
	FallbackToMock bool
	Timeout        time.Duration
}

// PollConfig holds the refresh intervals of the polling controller
type PollConfig struct {
	RoomsInterval    time.Duration
	MessagesInterval time.Duration
	MessageLimit     int
}

// RedisConfig holds Redis/Valkey configuration for the shared session store
type RedisConfig struct {
	Enabled bool
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string
	Host      string
	Port      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	// TTL for stored sessions (0 means no expiration)
	SessionTTL time.Duration
}

// StoreConfig selects where the signed-in user and active session are kept
type StoreConfig struct {
	// Path is a directory for the file store; empty means in-memory only
	Path  string
	Redis RedisConfig
}

// DashboardConfig holds the companion HTTP server configuration
type DashboardConfig struct {
	Enabled bool
	Port    string
	// ProxyPrefix is the path prefix forwarded to the backend
	ProxyPrefix string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from the environment, with an optional .env file
func Load() Config {
	_ = godotenv.Load()

	redisConfig := GetRedisConfig()

	return Config{
		API:   GetAPIConfig(),
		Poll:  GetPollConfig(),
		Redis: redisConfig,
		Store: StoreConfig{
			Path:  getEnv("STUDYROOM_STORE_PATH", ".studyroom"),
			Redis: redisConfig,
		},
		Dashboard: DashboardConfig{
			Enabled:     getEnvBool("DASHBOARD_ENABLED", false),
			Port:        getEnv("PORT", "8080"),
			ProxyPrefix: getEnv("DASHBOARD_PROXY_PREFIX", "/api"),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
	}
}

// GetAPIConfig loads backend configuration from environment variables
func GetAPIConfig() APIConfig {
	timeoutSeconds := getEnvInt("STUDYROOM_API_TIMEOUT_SECONDS", 30)

	return APIConfig{
		BaseURL:        getEnv("STUDYROOM_API_URL", getEnv("VITE_API_URL", "")),
		UseMock:        getEnvBool("STUDYROOM_USE_MOCK", getEnvBool("VITE_USE_MOCK", false)),
		FallbackToMock: getEnvBool("STUDYROOM_FALLBACK_TO_MOCK", true),
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
	}
}

// GetPollConfig loads polling intervals from environment variables
func GetPollConfig() PollConfig {
	return PollConfig{
		RoomsInterval:    time.Duration(getEnvInt("POLL_ROOMS_INTERVAL_SECONDS", 30)) * time.Second,
		MessagesInterval: time.Duration(getEnvInt("POLL_MESSAGES_INTERVAL_SECONDS", 5)) * time.Second,
		MessageLimit:     getEnvInt("MESSAGE_LIMIT", 50),
	}
}

// GetRedisConfig loads Redis/Valkey configuration from environment variables
func GetRedisConfig() RedisConfig {
	// Parse TTL from environment variable (in hours)
	ttl := time.Duration(getEnvInt("REDIS_SESSION_TTL_HOURS", 168)) * time.Hour // Default 7 days

	return RedisConfig{
		Enabled:    getEnvBool("REDIS_ENABLED", false),
		URI:        getEnv("REDIS_URI_STUDYROOM", ""),
		Host:       getEnv("REDIS_HOST_STUDYROOM", getEnv("REDIS_ADDRESS", "localhost")),
		Port:       getEnv("REDIS_PORT_STUDYROOM", "6379"),
		Username:   getEnv("REDIS_USERNAME_STUDYROOM", ""),
		Password:   getEnv("REDIS_PASSWORD_STUDYROOM", getEnv("REDIS_PASSWORD", "")),
		DB:         getEnvInt("REDIS_DB", 0),
		KeyPrefix:  getEnv("REDIS_KEY_PREFIX", "studyroom:"),
		SessionTTL: ttl,
	}
}

// IsRemoteConfigured reports whether a backend URL is available
func (c APIConfig) IsRemoteConfigured() bool {
	return c.BaseURL != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool retrieves a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvInt retrieves a positive integer environment variable
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
