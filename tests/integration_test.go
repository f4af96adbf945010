package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/studyroom/internal/api"
	"github.com/navikt/studyroom/internal/backend"
	"github.com/navikt/studyroom/internal/config"
	"github.com/navikt/studyroom/internal/datasource"
	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/repository"
	"github.com/navikt/studyroom/internal/service"
	"github.com/navikt/studyroom/internal/session"
	"github.com/navikt/studyroom/internal/web"
)

// fakeBackend is an in-memory study-room backend speaking the action protocol
type fakeBackend struct {
	mu       sync.Mutex
	rooms    []models.Room
	sessions map[string]string
	messages map[string][]models.Message
	calls    map[string]int
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rooms: []models.Room{
			{ID: "R1", Name: "Silent Study", Type: "Focus", Count: 12, Status: "open", MeetLink: "https://meet.google.com/r1", MaxCam: 20},
			{ID: "R2", Name: "Full House", Type: "Focus", Count: 20, Status: "open", MeetLink: "https://meet.google.com/r2", MaxCam: 20},
		},
		sessions: make(map[string]string),
		messages: make(map[string][]models.Message),
		calls:    make(map[string]int),
	}
}

func (f *fakeBackend) callCount(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[action]
}

func (f *fakeBackend) roomCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.ID == id {
			return r.Count
		}
	}
	return -1
}

func (f *fakeBackend) adjust(roomID string, delta int) {
	for i := range f.rooms {
		if f.rooms[i].ID == roomID {
			f.rooms[i].Count += delta
		}
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	for k, v := range r.URL.Query() {
		params[k] = v[0]
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	str := func(key string) string {
		s, _ := params[key].(string)
		return s
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	action := str("action")
	f.calls[action]++

	var response any
	switch action {
	case "getCurrentUser":
		response = map[string]any{"success": true, "email": "student@gmail.com", "name": "Test Student", "role": "student"}
	case "getRooms":
		response = f.rooms
	case "getUserStats":
		response = map[string]any{"success": true, "totalMinutes": 90, "sessionCount": 3}
	case "joinRoom":
		roomID := str("roomId")
		f.nextID++
		sessionID := fmt.Sprintf("S%d", f.nextID)
		f.sessions[sessionID] = roomID
		f.adjust(roomID, 1)
		response = map[string]any{"success": true, "sessionId": sessionID, "meetLink": "https://meet.google.com/" + strings.ToLower(roomID), "roomId": roomID}
	case "leaveRoom":
		roomID, ok := f.sessions[str("sessionId")]
		if !ok {
			response = map[string]any{"success": false, "message": "Session not found"}
			break
		}
		delete(f.sessions, str("sessionId"))
		f.adjust(roomID, -1)
		response = map[string]any{"success": true, "duration": 25}
	case "getMessages":
		response = f.messages[str("roomId")]
	case "sendMessage":
		roomID := str("roomId")
		f.messages[roomID] = append(f.messages[roomID], models.Message{Email: "student@gmail.com", Name: "Test Student", Message: str("message")})
		response = map[string]any{"success": true}
	default:
		response = map[string]any{"success": false, "message": "Unknown action"}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

type recordedAlerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *recordedAlerts) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, message)
}

func (a *recordedAlerts) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.msgs...)
}

type recordedLinks struct {
	mu    sync.Mutex
	links []string
}

func (l *recordedLinks) Open(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.links = append(l.links, url)
	return nil
}

type stack struct {
	backend    *fakeBackend
	controller *service.Controller
	repo       repository.Repository
	metrics    *datasource.Metrics
	registry   *prometheus.Registry
	alerts     *recordedAlerts
	links      *recordedLinks
	dashboard  *httptest.Server
	sse        *web.SSEManager
}

func newStack(t *testing.T, redisAddr *miniredis.Miniredis) *stack {
	t.Helper()

	s := &stack{
		backend:  newFakeBackend(),
		registry: prometheus.NewRegistry(),
		alerts:   &recordedAlerts{},
		links:    &recordedLinks{},
	}
	backendServer := httptest.NewServer(s.backend)
	t.Cleanup(backendServer.Close)

	apiCfg := config.APIConfig{BaseURL: backendServer.URL + "/exec", Timeout: 5 * time.Second}
	s.metrics = datasource.NewMetrics(s.registry)
	client := backend.NewClient(datasource.New(apiCfg, nil, s.metrics), nil)

	var err error
	s.repo, err = repository.NewRepository(config.StoreConfig{
		Redis: config.RedisConfig{
			Enabled:   true,
			Host:      redisAddr.Host(),
			Port:      redisAddr.Port(),
			KeyPrefix: "it:",
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.repo.Close() })

	sess := session.New(s.repo)
	rooms := service.NewRoomManager(client, s.repo, sess, nil)
	poll := config.PollConfig{RoomsInterval: time.Hour, MessagesInterval: 20 * time.Millisecond, MessageLimit: 50}
	s.controller = service.NewController(client, rooms, sess, s.alerts, s.links, poll, nil)

	s.sse = web.NewSSEManager(nil)
	s.controller.RegisterUpdateCallback(s.sse.NotifyViewUpdate)

	proxy, err := web.NewBackendProxy(apiCfg.BaseURL, "/api", nil)
	require.NoError(t, err)

	mux := api.SetupRoutes(api.Routes{
		State:       s.controller,
		Events:      s.sse,
		Gatherer:    s.registry,
		Proxy:       proxy,
		ProxyPrefix: "/api",
	})
	s.dashboard = httptest.NewServer(web.Chain(mux, web.HTTPProtocolMiddleware))
	t.Cleanup(func() {
		s.sse.Shutdown()
		s.dashboard.Close()
	})
	t.Cleanup(func() { s.controller.Unmount(context.Background()) })

	return s
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestStudySessionEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newStack(t, mr)
	ctx := context.Background()

	require.NoError(t, s.controller.Mount(ctx))

	state := s.controller.Snapshot()
	assert.Equal(t, service.PhaseDashboard, state.Phase)
	assert.Equal(t, 32, state.OnlineCount)
	assert.Equal(t, 90, state.Stats.TotalMinutes)
	assert.Equal(t, 0, s.backend.callCount("getMessages"))

	// Full rooms are rejected before the backend is asked
	assert.ErrorIs(t, s.controller.Join(ctx, "R2"), service.ErrRoomFull)
	assert.Equal(t, 0, s.backend.callCount("joinRoom"))

	require.NoError(t, s.controller.Join(ctx, "R1"))
	state = s.controller.Snapshot()
	assert.Equal(t, service.PhaseInRoom, state.Phase)
	assert.Equal(t, "S1", state.SessionID)
	assert.Equal(t, 13, s.backend.roomCount("R1"))
	assert.Equal(t, []string{"https://meet.google.com/r1"}, s.links.links)

	// The active session survives in the shared store
	assert.True(t, mr.Exists("it:active_session"))

	// Message polling is running
	before := s.backend.callCount("getMessages")
	assert.Eventually(t, func() bool {
		return s.backend.callCount("getMessages") >= before+2
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, s.controller.SendMessage(ctx, "   "), service.ErrEmptyMessage)
	assert.Equal(t, 0, s.backend.callCount("sendMessage"))

	require.NoError(t, s.controller.SendMessage(ctx, "hello room"))
	state = s.controller.Snapshot()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "hello room", state.Messages[0].Message)

	// The dashboard serves the same view
	var served map[string]any
	getJSON(t, s.dashboard.URL+"/state", &served)
	assert.Equal(t, "in-room", served["phase"])
	assert.Equal(t, "S1", served["sessionId"])

	require.NoError(t, s.controller.Leave(ctx))
	state = s.controller.Snapshot()
	assert.Equal(t, service.PhaseDashboard, state.Phase)
	assert.Empty(t, state.SessionID)
	assert.Equal(t, 12, s.backend.roomCount("R1"))
	assert.Contains(t, s.alerts.all(), "You studied for 25 minutes!")
	assert.False(t, mr.Exists("it:active_session"))

	// No message polling once back on the dashboard
	time.Sleep(60 * time.Millisecond)
	after := s.backend.callCount("getMessages")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, s.backend.callCount("getMessages"))

	// A second leave makes no backend call
	leaves := s.backend.callCount("leaveRoom")
	assert.ErrorIs(t, s.controller.Leave(ctx), service.ErrInvalidTransition)
	assert.Equal(t, leaves, s.backend.callCount("leaveRoom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CallCount(datasource.ActionJoinRoom, "ok")))
}

func TestUnmountLeavesRoom(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newStack(t, mr)
	ctx := context.Background()

	require.NoError(t, s.controller.Mount(ctx))
	require.NoError(t, s.controller.Join(ctx, "R1"))
	assert.Equal(t, 13, s.backend.roomCount("R1"))

	require.NoError(t, s.controller.Unmount(ctx))

	assert.Equal(t, 12, s.backend.roomCount("R1"))
	assert.Equal(t, service.PhaseIdle, s.controller.Snapshot().Phase)
	assert.False(t, mr.Exists("it:active_session"))
}

func TestOrphanSessionClosedOnNextMount(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newStack(t, mr)
	ctx := context.Background()

	// A previous run joined and crashed without leaving
	s.backend.mu.Lock()
	s.backend.sessions["S-old"] = "R1"
	s.backend.adjust("R1", 1)
	s.backend.mu.Unlock()
	require.NoError(t, s.repo.SaveActiveSession(ctx, &models.Session{ID: "S-old", RoomID: "R1", JoinedAt: time.Now()}))

	require.NoError(t, s.controller.Mount(ctx))

	assert.Equal(t, 12, s.backend.roomCount("R1"))
	stored, err := s.repo.GetActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDashboardProxyAndMetrics(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newStack(t, mr)

	var rooms []models.Room
	getJSON(t, s.dashboard.URL+"/api?action=getRooms", &rooms)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Silent Study", rooms[0].Name)

	require.NoError(t, s.controller.Mount(context.Background()))

	resp, err := http.Get(s.dashboard.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `studyroom_backend_calls_total{action="getRooms",outcome="ok"} 1`)
	assert.Contains(t, string(body), `studyroom_backend_calls_total{action="getCurrentUser",outcome="ok"} 1`)
	assert.Equal(t, "clear", resp.Header.Get("Alt-Svc"))
}
