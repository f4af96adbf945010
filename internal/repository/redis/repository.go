// Package redis provides a Redis/Valkey implementation of the repository interface
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/navikt/studyroom/internal/config"
	"github.com/navikt/studyroom/internal/models"
	"github.com/redis/go-redis/v9"
)

// Repository implements the repository interface with Redis storage
type Repository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	var client *redis.Client

	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
		}

		// Use DB from config if not specified in the URI
		if opt.DB == 0 {
			opt.DB = cfg.DB
		}

		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}

		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.SessionTTL,
	}, nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// userKey returns the Redis key holding the signed-in user
func (r *Repository) userKey() string {
	return r.keyPrefix + "lms_user"
}

// sessionKey returns the Redis key holding the active room session
func (r *Repository) sessionKey() string {
	return r.keyPrefix + "active_session"
}

// SaveUser stores the signed-in user
func (r *Repository) SaveUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return r.DeleteUser(ctx)
	}
	return r.set(ctx, r.userKey(), user)
}

// GetUser retrieves the signed-in user
func (r *Repository) GetUser(ctx context.Context) (*models.User, error) {
	var user models.User
	found, err := r.get(ctx, r.userKey(), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the signed-in user
func (r *Repository) DeleteUser(ctx context.Context) error {
	if err := r.client.Del(ctx, r.userKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// SaveActiveSession stores the active room session
func (r *Repository) SaveActiveSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return r.DeleteActiveSession(ctx)
	}
	return r.set(ctx, r.sessionKey(), session)
}

// GetActiveSession retrieves the active room session
func (r *Repository) GetActiveSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	found, err := r.get(ctx, r.sessionKey(), &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// DeleteActiveSession removes the active room session
func (r *Repository) DeleteActiveSession(ctx context.Context) error {
	if err := r.client.Del(ctx, r.sessionKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete active session: %w", err)
	}
	return nil
}

// set stores v as JSON under key with the configured TTL
func (r *Repository) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// get decodes the JSON value under key into v, reporting whether it existed
func (r *Repository) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}
