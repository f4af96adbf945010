// Package repository defines interfaces for client state storage
package repository

import (
	"context"

	"github.com/navikt/studyroom/internal/models"
)

// Repository stores the state that must survive a restart of the client:
// the signed-in user and the room session that has not been left yet.
//
// Getters return nil and no error when nothing is stored.
type Repository interface {
	// User operations
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context) (*models.User, error)
	DeleteUser(ctx context.Context) error

	// Active session operations
	SaveActiveSession(ctx context.Context, session *models.Session) error
	GetActiveSession(ctx context.Context) (*models.Session, error)
	DeleteActiveSession(ctx context.Context) error

	Close() error
}
