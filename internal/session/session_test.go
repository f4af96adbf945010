package session_test

import (
	"context"
	"testing"

	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/repository/memory"
	"github.com/navikt/studyroom/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRestoresPreviousUser(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveUser(ctx, &models.User{Email: "student@gmail.com", Name: "Test Student"}))

	s := session.New(repo)
	assert.False(t, s.IsAuthenticated())

	user, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "student@gmail.com", user.Email)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "student@gmail.com", s.Email())
}

func TestSaveAndClear(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	s := session.New(repo)

	require.NoError(t, s.Save(ctx, &models.User{Email: "a@example.com"}))

	stored, err := repo.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "a@example.com", stored.Email)

	// User returns a copy
	u := s.User()
	u.Email = "changed"
	assert.Equal(t, "a@example.com", s.Email())

	require.NoError(t, s.Clear(ctx))
	assert.Nil(t, s.User())

	stored, err = repo.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMergeProfile(t *testing.T) {
	ctx := context.Background()
	s := session.New(memory.NewRepository())

	// Nothing to merge into
	require.NoError(t, s.MergeProfile(ctx, &models.Profile{Name: "Ignored"}))
	assert.Nil(t, s.User())

	require.NoError(t, s.Save(ctx, &models.User{Email: "a@example.com", Name: "Old", Phone: "0900"}))
	require.NoError(t, s.MergeProfile(ctx, &models.Profile{Email: "a@example.com", Name: "New"}))

	u := s.User()
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "0900", u.Phone)
}
