package datasource_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/navikt/studyroom/internal/datasource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionMethod(t *testing.T) {
	reads := []datasource.Action{
		datasource.ActionGetCurrentUser,
		datasource.ActionGetRooms,
		datasource.ActionGetUserStats,
		datasource.ActionGetMessages,
		datasource.ActionCheckIsTeacher,
		datasource.ActionGetProfile,
		datasource.ActionGetHomeData,
		datasource.ActionGetCourseData,
		datasource.ActionGetSchedule,
	}
	for _, a := range reads {
		assert.Equal(t, "GET", a.Method(), string(a))
	}

	writes := []datasource.Action{
		datasource.ActionJoinRoom,
		datasource.ActionLeaveRoom,
		datasource.ActionSendMessage,
		datasource.ActionLoginUser,
		datasource.ActionRegisterUser,
		datasource.ActionUpdateProfile,
		datasource.ActionAddRoom,
		datasource.ActionUpdateRoom,
		datasource.ActionDeleteRoom,
	}
	for _, a := range writes {
		assert.Equal(t, "POST", a.Method(), string(a))
	}
}

func TestRemoteDataSource_GetUsesQueryString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"), "GET must not trigger a preflight")
		assert.Equal(t, "getMessages", r.URL.Query().Get("action"))
		assert.Equal(t, "R1", r.URL.Query().Get("roomId"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"email":"a@example.com","message":"hi"}]`))
	}))
	defer server.Close()

	ds := datasource.NewRemoteDataSource(server.URL, time.Second, nil)
	raw, err := ds.Call(context.Background(), datasource.ActionGetMessages, datasource.Params{"roomId": "R1", "limit": "50"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"email":"a@example.com","message":"hi"}]`, string(raw))
}

func TestRemoteDataSource_PostSendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "joinRoom", body["action"])
		assert.Equal(t, "R2", body["roomId"])
		assert.Equal(t, "student@gmail.com", body["email"])

		w.Write([]byte(`{"success":true,"sessionId":"S1","meetLink":"https://meet.google.com/abc"}`))
	}))
	defer server.Close()

	ds := datasource.NewRemoteDataSource(server.URL, time.Second, nil)
	raw, err := ds.Call(context.Background(), datasource.ActionJoinRoom, datasource.Params{"roomId": "R2", "email": "student@gmail.com"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sessionId":"S1"`)
}

func TestRemoteDataSource_KeepsBaseQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v1", r.URL.Query().Get("deployment"))
		assert.Equal(t, "getRooms", r.URL.Query().Get("action"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ds := datasource.NewRemoteDataSource(server.URL+"/exec?deployment=v1", time.Second, nil)
	_, err := ds.Call(context.Background(), datasource.ActionGetRooms, nil)
	require.NoError(t, err)
}

func TestRemoteDataSource_Errors(t *testing.T) {
	t.Run("non 2xx status is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		ds := datasource.NewRemoteDataSource(server.URL, time.Second, nil)
		_, err := ds.Call(context.Background(), datasource.ActionGetRooms, nil)
		require.Error(t, err)

		var te *datasource.TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
		assert.False(t, te.IsNetwork())
		assert.Contains(t, err.Error(), "status: 500")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>login required</html>`))
		}))
		defer server.Close()

		ds := datasource.NewRemoteDataSource(server.URL, time.Second, nil)
		_, err := ds.Call(context.Background(), datasource.ActionGetRooms, nil)
		assert.ErrorIs(t, err, datasource.ErrInvalidJSON)
		assert.False(t, datasource.IsNetworkError(err))
	})

	t.Run("unreachable backend is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		ds := datasource.NewRemoteDataSource(url, time.Second, nil)
		_, err := ds.Call(context.Background(), datasource.ActionGetRooms, nil)
		require.Error(t, err)
		assert.True(t, datasource.IsNetworkError(err))
	})
}
