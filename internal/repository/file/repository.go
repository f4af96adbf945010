// Package file provides a repository that keeps client state in a JSON file
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/navikt/studyroom/internal/models"
)

// fileName is the state file created inside the store directory
const fileName = "state.json"

// state is the on-disk layout, keyed like the browser's local storage
type state struct {
	User          *models.User    `json:"lms_user,omitempty"`
	ActiveSession *models.Session `json:"active_session,omitempty"`
}

// Repository implements the repository interface on a single JSON file
type Repository struct {
	path string
	mu   sync.Mutex
}

// NewRepository creates a file repository in dir, creating the directory if needed
func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Repository{path: filepath.Join(dir, fileName)}, nil
}

// SaveUser stores the signed-in user
func (r *Repository) SaveUser(ctx context.Context, user *models.User) error {
	return r.update(func(s *state) { s.User = user })
}

// GetUser retrieves the signed-in user
func (r *Repository) GetUser(ctx context.Context) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.read()
	if err != nil {
		return nil, err
	}
	return s.User, nil
}

// DeleteUser removes the signed-in user
func (r *Repository) DeleteUser(ctx context.Context) error {
	return r.update(func(s *state) { s.User = nil })
}

// SaveActiveSession stores the active room session
func (r *Repository) SaveActiveSession(ctx context.Context, session *models.Session) error {
	return r.update(func(s *state) { s.ActiveSession = session })
}

// GetActiveSession retrieves the active room session
func (r *Repository) GetActiveSession(ctx context.Context) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.read()
	if err != nil {
		return nil, err
	}
	return s.ActiveSession, nil
}

// DeleteActiveSession removes the active room session
func (r *Repository) DeleteActiveSession(ctx context.Context) error {
	return r.update(func(s *state) { s.ActiveSession = nil })
}

// Close is a no-op, every write is flushed immediately
func (r *Repository) Close() error {
	return nil
}

func (r *Repository) read() (*state, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &state{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &s, nil
}

// update applies fn to the stored state and writes it back atomically
func (r *Repository) update(fn func(*state)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.read()
	if err != nil {
		return err
	}
	fn(s)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
