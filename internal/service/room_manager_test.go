package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/navikt/studyroom/internal/backend"
	"github.com/navikt/studyroom/internal/datasource"
	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/repository/memory"
	"github.com/navikt/studyroom/internal/service"
	"github.com/navikt/studyroom/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRoomManager(t *testing.T) (*service.RoomManager, *MockRoomBackend, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	sess := session.New(repo)
	require.NoError(t, sess.Save(context.Background(), &models.User{Email: "student@gmail.com", Name: "Test Student"}))

	b := new(MockRoomBackend)
	return service.NewRoomManager(b, repo, sess, nil), b, repo
}

func TestRoomManager_JoinAndLeave(t *testing.T) {
	manager, b, repo := newRoomManager(t)
	ctx := context.Background()

	b.On("JoinRoom", mock.Anything, "R1", mock.MatchedBy(func(u *models.User) bool {
		return u != nil && u.Email == "student@gmail.com"
	})).Return(&models.JoinResult{Success: true, SessionID: "S1", MeetLink: "https://meet.google.com/abc"}, nil).Once()
	b.On("LeaveRoom", mock.Anything, "S1").Return(&models.LeaveResult{Success: true, Duration: 45}, nil).Once()

	res, err := manager.Join(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "S1", res.SessionID)
	assert.Equal(t, "S1", manager.SessionID())

	stored, err := repo.GetActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "R1", stored.RoomID)

	left, err := manager.Leave(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, left.Duration)
	assert.Empty(t, manager.SessionID())
	assert.Nil(t, manager.Active())

	stored, err = repo.GetActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)

	b.AssertExpectations(t)
}

func TestRoomManager_JoinRequiresRoom(t *testing.T) {
	manager, b, _ := newRoomManager(t)

	_, err := manager.Join(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrNoRoomSelected)
	b.AssertNotCalled(t, "JoinRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomManager_JoinFailureKeepsNoSession(t *testing.T) {
	manager, b, _ := newRoomManager(t)

	b.On("JoinRoom", mock.Anything, "R4", mock.Anything).
		Return(nil, &backend.AppError{Action: datasource.ActionJoinRoom, Message: "Phòng đã đầy"})

	_, err := manager.Join(context.Background(), "R4")
	assert.EqualError(t, err, "Phòng đã đầy")
	assert.Empty(t, manager.SessionID())
}

func TestRoomManager_LeaveWithoutSessionIsNoop(t *testing.T) {
	manager, b, _ := newRoomManager(t)

	res, err := manager.Leave(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
	b.AssertNotCalled(t, "LeaveRoom", mock.Anything, mock.Anything)
}

func TestRoomManager_JoinWithoutSessionIDIsNotRecorded(t *testing.T) {
	manager, b, repo := newRoomManager(t)
	ctx := context.Background()

	b.On("JoinRoom", mock.Anything, "R1", mock.Anything).
		Return(&models.JoinResult{Success: true, MeetLink: "https://meet.google.com/abc"}, nil)

	res, err := manager.Join(ctx, "R1")
	assert.ErrorIs(t, err, service.ErrMissingSessionID)
	assert.Nil(t, res)
	assert.Nil(t, manager.Active())

	stored, err := repo.GetActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)

	left, err := manager.Leave(ctx)
	assert.NoError(t, err)
	assert.Nil(t, left)
	b.AssertNotCalled(t, "LeaveRoom", mock.Anything, mock.Anything)
}

func TestRoomManager_LeaveFailureKeepsSession(t *testing.T) {
	manager, b, _ := newRoomManager(t)
	ctx := context.Background()

	b.On("JoinRoom", mock.Anything, "R1", mock.Anything).Return(&models.JoinResult{Success: true, SessionID: "S1"}, nil)
	b.On("LeaveRoom", mock.Anything, "S1").Return(nil, &datasource.TransportError{Action: datasource.ActionLeaveRoom, StatusCode: 500})

	_, err := manager.Join(ctx, "R1")
	require.NoError(t, err)

	_, err = manager.Leave(ctx)
	assert.Error(t, err)
	assert.Equal(t, "S1", manager.SessionID())
}

func TestRoomManager_SendMessage(t *testing.T) {
	manager, b, _ := newRoomManager(t)
	ctx := context.Background()

	t.Run("blank text is rejected locally", func(t *testing.T) {
		for _, text := range []string{"", "   ", "\n\t"} {
			_, err := manager.SendMessage(ctx, "R1", text)
			assert.ErrorIs(t, err, service.ErrEmptyMessage)
		}
		b.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("text is trimmed", func(t *testing.T) {
		b.On("SendMessage", mock.Anything, "R1", "hello").Return(&models.SendResult{Success: true, MessageID: "M1"}, nil).Once()

		res, err := manager.SendMessage(ctx, "R1", "  hello  ")
		require.NoError(t, err)
		assert.Equal(t, "M1", res.MessageID)
	})

	t.Run("room is required", func(t *testing.T) {
		_, err := manager.SendMessage(ctx, "", "hello")
		assert.ErrorIs(t, err, service.ErrNoRoomSelected)
	})
}

func TestRoomManager_RecoverOrphan(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to recover", func(t *testing.T) {
		manager, b, _ := newRoomManager(t)

		res, err := manager.RecoverOrphan(ctx)
		assert.NoError(t, err)
		assert.Nil(t, res)
		b.AssertNotCalled(t, "LeaveRoom", mock.Anything, mock.Anything)
	})

	t.Run("closes the stored session", func(t *testing.T) {
		manager, b, repo := newRoomManager(t)
		require.NoError(t, repo.SaveActiveSession(ctx, &models.Session{ID: "S9", RoomID: "R2"}))
		b.On("LeaveRoom", mock.Anything, "S9").Return(&models.LeaveResult{Success: true, Duration: 12}, nil).Once()

		res, err := manager.RecoverOrphan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, res.Duration)

		stored, err := repo.GetActiveSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("unknown session is forgotten", func(t *testing.T) {
		manager, b, repo := newRoomManager(t)
		require.NoError(t, repo.SaveActiveSession(ctx, &models.Session{ID: "S9"}))
		b.On("LeaveRoom", mock.Anything, "S9").Return(nil, &backend.AppError{Action: datasource.ActionLeaveRoom, Message: "Session not found"})

		_, err := manager.RecoverOrphan(ctx)
		assert.Error(t, err)

		stored, err := repo.GetActiveSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("network failure keeps the session", func(t *testing.T) {
		manager, b, repo := newRoomManager(t)
		require.NoError(t, repo.SaveActiveSession(ctx, &models.Session{ID: "S9"}))
		b.On("LeaveRoom", mock.Anything, "S9").Return(nil, &datasource.TransportError{Action: datasource.ActionLeaveRoom, Err: errors.New("connection refused")})

		_, err := manager.RecoverOrphan(ctx)
		assert.Error(t, err)

		stored, err := repo.GetActiveSession(ctx)
		require.NoError(t, err)
		assert.NotNil(t, stored)
	})
}
