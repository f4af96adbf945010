// Package session holds the signed-in user of the client
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/repository"
)

// Session is the explicit replacement for a process-wide current user.
// It caches the user in memory and persists every change to the repository.
type Session struct {
	repo repository.Repository
	mu   sync.RWMutex
	user *models.User
}

// New creates a session backed by repo. Call Load to restore a previous user.
func New(repo repository.Repository) *Session {
	return &Session{repo: repo}
}

// Load restores the user saved by a previous run, if any
func (s *Session) Load(ctx context.Context) (*models.User, error) {
	user, err := s.repo.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	return copyUser(user), nil
}

// Save makes user the signed-in user and persists it
func (s *Session) Save(ctx context.Context, user *models.User) error {
	if user == nil {
		return s.Clear(ctx)
	}

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	s.mu.Lock()
	s.user = copyUser(user)
	s.mu.Unlock()
	return nil
}

// Clear signs the user out
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.repo.DeleteUser(ctx); err != nil {
		return fmt.Errorf("failed to clear user: %w", err)
	}
	return nil
}

// User returns a copy of the signed-in user, or nil
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// Email returns the email of the signed-in user, or an empty string
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Email
}

// IsAuthenticated reports whether a user is signed in
func (s *Session) IsAuthenticated() bool {
	return s.Email() != ""
}

// MergeProfile copies the name and phone of an updated profile into the
// signed-in user and persists the result
func (s *Session) MergeProfile(ctx context.Context, profile *models.Profile) error {
	if profile == nil {
		return nil
	}

	s.mu.RLock()
	current := copyUser(s.user)
	s.mu.RUnlock()
	if current == nil {
		return nil
	}

	if profile.Name != "" {
		current.Name = profile.Name
	}
	if profile.Phone != "" {
		current.Phone = profile.Phone
	}
	return s.Save(ctx, current)
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
