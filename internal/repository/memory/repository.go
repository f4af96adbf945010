// Package memory provides an in-memory implementation of the repository interface
package memory

import (
	"context"
	"sync"

	"github.com/navikt/studyroom/internal/models"
)

// Repository implements the repository interface with in-memory storage
type Repository struct {
	user    *models.User
	session *models.Session
	mu      sync.RWMutex
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{}
}

// SaveUser stores a copy of the signed-in user
func (r *Repository) SaveUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user == nil {
		r.user = nil
		return nil
	}
	u := *user
	r.user = &u
	return nil
}

// GetUser returns a copy of the stored user
func (r *Repository) GetUser(ctx context.Context) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.user == nil {
		return nil, nil
	}
	u := *r.user
	return &u, nil
}

// DeleteUser forgets the signed-in user
func (r *Repository) DeleteUser(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = nil
	return nil
}

// SaveActiveSession stores a copy of the active room session
func (r *Repository) SaveActiveSession(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session == nil {
		r.session = nil
		return nil
	}
	s := *session
	r.session = &s
	return nil
}

// GetActiveSession returns a copy of the active room session
func (r *Repository) GetActiveSession(ctx context.Context) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.session == nil {
		return nil, nil
	}
	s := *r.session
	return &s, nil
}

// DeleteActiveSession forgets the active room session
func (r *Repository) DeleteActiveSession(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	return nil
}

// Close is a no-op for the in-memory repository
func (r *Repository) Close() error {
	return nil
}
