package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/navikt/studyroom/internal/backend"
	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/repository"
	"github.com/navikt/studyroom/internal/session"
	"github.com/navikt/studyroom/internal/utils"
	"go.uber.org/zap"
)

// RoomManager owns the single active room session of the client
type RoomManager struct {
	backend RoomBackend
	repo    repository.Repository
	session *session.Session
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	active *models.Session
}

// NewRoomManager creates a room manager. The active session is persisted
// to repo so that a crashed run can be cleaned up by RecoverOrphan.
func NewRoomManager(b RoomBackend, repo repository.Repository, sess *session.Session, logger *zap.Logger) *RoomManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomManager{
		backend: b,
		repo:    repo,
		session: sess,
		logger:  logger,
		now:     time.Now,
	}
}

// Join enters a room. On success the session id is recorded before returning.
func (m *RoomManager) Join(ctx context.Context, roomID string) (*models.JoinResult, error) {
	if roomID == "" {
		return nil, ErrNoRoomSelected
	}

	var user *models.User
	if m.session != nil {
		user = m.session.User()
	}

	res, err := m.backend.JoinRoom(ctx, roomID, user)
	if err != nil {
		return nil, err
	}
	if res.SessionID == "" {
		// Without an id the session could never be closed
		m.logger.Warn("join accepted without a session id", zap.String("roomId", utils.SanitizeLogString(roomID)))
		return nil, ErrMissingSessionID
	}

	active := &models.Session{
		ID:       res.SessionID,
		RoomID:   roomID,
		JoinedAt: m.now(),
	}

	m.mu.Lock()
	m.active = active
	m.mu.Unlock()

	if err := m.repo.SaveActiveSession(ctx, active); err != nil {
		m.logger.Warn("failed to persist active session", zap.String("sessionId", active.ID), zap.Error(err))
	}

	m.logger.Info("joined room",
		zap.String("roomId", utils.SanitizeLogString(roomID)),
		zap.String("sessionId", active.ID))

	return res, nil
}

// Leave closes the active session. Without an active session id it
// returns nil and no error and makes no backend call.
func (m *RoomManager) Leave(ctx context.Context) (*models.LeaveResult, error) {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()

	if active == nil || active.ID == "" {
		return nil, nil
	}

	res, err := m.backend.LeaveRoom(ctx, active.ID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.active != nil && m.active.ID == active.ID {
		m.active = nil
	}
	m.mu.Unlock()

	if err := m.repo.DeleteActiveSession(ctx); err != nil {
		m.logger.Warn("failed to clear active session", zap.String("sessionId", active.ID), zap.Error(err))
	}

	m.logger.Info("left room",
		zap.String("sessionId", active.ID),
		zap.Int("duration", res.Duration))

	return res, nil
}

// SendMessage posts text to a room. Blank text is rejected without a backend call.
func (m *RoomManager) SendMessage(ctx context.Context, roomID, text string) (*models.SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if roomID == "" {
		return nil, ErrNoRoomSelected
	}

	return m.backend.SendMessage(ctx, roomID, text)
}

// SessionID returns the id of the active session, or an empty string
func (m *RoomManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.ID
}

// Active returns a copy of the active session, or nil
func (m *RoomManager) Active() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	s := *m.active
	return &s
}

// RecoverOrphan closes a session left open by a previous run. The stored
// session is forgotten once the backend has answered, even with a failure,
// so a session the backend no longer knows is not retried forever.
func (m *RoomManager) RecoverOrphan(ctx context.Context) (*models.LeaveResult, error) {
	orphan, err := m.repo.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if orphan == nil || orphan.ID == "" {
		return nil, nil
	}

	m.logger.Info("closing session left open by a previous run",
		zap.String("sessionId", orphan.ID),
		zap.String("roomId", utils.SanitizeLogString(orphan.RoomID)))

	res, err := m.backend.LeaveRoom(ctx, orphan.ID)

	var appErr *backend.AppError
	if err != nil && !errors.As(err, &appErr) {
		// Transport failure: keep the session for the next run
		return nil, err
	}

	if delErr := m.repo.DeleteActiveSession(ctx); delErr != nil {
		m.logger.Warn("failed to clear recovered session", zap.Error(delErr))
	}
	return res, err
}
