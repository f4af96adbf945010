package service_test

import (
	"context"
	"sync"

	"github.com/navikt/studyroom/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRoomBackend is a testify mock of the room backend actions
type MockRoomBackend struct {
	mock.Mock
}

func (m *MockRoomBackend) GetCurrentUser(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockRoomBackend) GetRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Error(1)
}

func (m *MockRoomBackend) GetUserStats(ctx context.Context, email string) (*models.Stats, error) {
	args := m.Called(ctx, email)
	stats, _ := args.Get(0).(*models.Stats)
	return stats, args.Error(1)
}

func (m *MockRoomBackend) JoinRoom(ctx context.Context, roomID string, user *models.User) (*models.JoinResult, error) {
	args := m.Called(ctx, roomID, user)
	res, _ := args.Get(0).(*models.JoinResult)
	return res, args.Error(1)
}

func (m *MockRoomBackend) LeaveRoom(ctx context.Context, sessionID string) (*models.LeaveResult, error) {
	args := m.Called(ctx, sessionID)
	res, _ := args.Get(0).(*models.LeaveResult)
	return res, args.Error(1)
}

func (m *MockRoomBackend) GetMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

func (m *MockRoomBackend) SendMessage(ctx context.Context, roomID, message string) (*models.SendResult, error) {
	args := m.Called(ctx, roomID, message)
	res, _ := args.Get(0).(*models.SendResult)
	return res, args.Error(1)
}

// alerts records notifier messages
type alerts struct {
	mu       sync.Mutex
	messages []string
}

func (a *alerts) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *alerts) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.messages...)
}

// opener records opened links
type opener struct {
	mu    sync.Mutex
	links []string
	// sessionAtOpen captures the session id visible when the link is opened
	sessionID     func() string
	sessionAtOpen []string
}

func (o *opener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, url)
	if o.sessionID != nil {
		o.sessionAtOpen = append(o.sessionAtOpen, o.sessionID())
	}
	return nil
}
