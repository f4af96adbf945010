package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/navikt/studyroom/internal/backend"
	"github.com/navikt/studyroom/internal/config"
	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/poller"
	"github.com/navikt/studyroom/internal/session"
	"github.com/navikt/studyroom/internal/utils"
	"go.uber.org/zap"
)

// Phase is the screen the client is on
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseDashboard
	PhaseInRoom
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseDashboard:
		return "dashboard"
	case PhaseInRoom:
		return "in-room"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ViewState is everything the view renders
type ViewState struct {
	Phase         Phase            `json:"phase"`
	User          *models.User     `json:"user,omitempty"`
	Rooms         []models.Room    `json:"rooms"`
	SelectedRoom  *models.Room     `json:"selectedRoom,omitempty"`
	SessionID     string           `json:"sessionId,omitempty"`
	Messages      []models.Message `json:"messages"`
	Stats         models.Stats     `json:"stats"`
	Draft         string           `json:"draft"`
	OnlineCount   int              `json:"onlineCount"`
	Transitioning bool             `json:"transitioning"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (v ViewState) clone() ViewState {
	c := v
	if v.User != nil {
		u := *v.User
		c.User = &u
	}
	if v.SelectedRoom != nil {
		r := *v.SelectedRoom
		c.SelectedRoom = &r
	}
	c.Rooms = append([]models.Room{}, v.Rooms...)
	c.Messages = append([]models.Message{}, v.Messages...)
	return c
}

// ViewUpdateCallback receives a copy of the view state after every change
type ViewUpdateCallback func(ViewState)

// Controller drives the study-room screens: authentication on mount, the
// room dashboard with periodic room refresh, and the in-room view with
// periodic message refresh. It is the single owner of the view state.
type Controller struct {
	backend  RoomBackend
	rooms    *RoomManager
	session  *session.Session
	notifier Notifier
	opener   LinkOpener
	poll     config.PollConfig
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     ViewState
	alive     bool
	lifetime  context.Context
	cancel    context.CancelFunc
	epoch     uint64
	roomsTask *poller.Task
	msgTask   *poller.Task
	callbacks []ViewUpdateCallback

	// Poll responses older than the last applied one are dropped
	roomsIssued, roomsApplied uint64
	msgIssued, msgApplied     uint64
}

// NewController creates a controller. notifier and opener may be nil.
func NewController(b RoomBackend, rooms *RoomManager, sess *session.Session, notifier Notifier, opener LinkOpener, poll config.PollConfig, logger *zap.Logger) *Controller {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if opener == nil {
		opener = nopOpener{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if poll.RoomsInterval <= 0 {
		poll.RoomsInterval = 30 * time.Second
	}
	if poll.MessagesInterval <= 0 {
		poll.MessagesInterval = 5 * time.Second
	}
	if poll.MessageLimit <= 0 {
		poll.MessageLimit = models.DefaultMessageLimit
	}

	return &Controller{
		backend:  b,
		rooms:    rooms,
		session:  sess,
		notifier: notifier,
		opener:   opener,
		poll:     poll,
		logger:   logger,
		now:      time.Now,
		state: ViewState{
			Rooms:    []models.Room{},
			Messages: []models.Message{},
		},
	}
}

// RegisterUpdateCallback registers a function called with the view state after every change
func (c *Controller) RegisterUpdateCallback(callback ViewUpdateCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// Snapshot returns a copy of the current view state
func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// notifyUpdate calls all registered callbacks. Must be called without holding mu.
func (c *Controller) notifyUpdate() {
	c.mu.Lock()
	c.state.UpdatedAt = c.now()
	snapshot := c.state.clone()
	callbacks := append([]ViewUpdateCallback{}, c.callbacks...)
	c.mu.Unlock()

	for _, callback := range callbacks {
		callback(snapshot)
	}
}

// alertError surfaces err to the user. Backend messages are shown verbatim,
// anything else as a generic error.
func (c *Controller) alertError(err error, fallback string) {
	var appErr *backend.AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if msg == "" {
			msg = fallback
		}
		if msg != "" {
			c.notifier.Alert(msg)
		}
		return
	}
	c.notifier.Alert("Lỗi: " + err.Error())
}

// Mount authenticates the user and opens the dashboard. On failure the
// controller returns to idle and can be mounted again.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.alive {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.alive = true
	c.lifetime, c.cancel = context.WithCancel(context.Background())
	c.epoch++
	c.state.Phase = PhaseLoading
	c.mu.Unlock()
	c.notifyUpdate()

	user, err := c.backend.GetCurrentUser(ctx)
	if err != nil {
		c.logger.Warn("authentication failed", zap.Error(err))

		var appErr *backend.AppError
		if errors.As(err, &appErr) {
			c.notifier.Alert("Authentication failed: " + appErr.Message)
		} else {
			c.alertError(err, "")
		}

		c.mu.Lock()
		c.alive = false
		c.cancel()
		c.state.Phase = PhaseIdle
		c.state.User = nil
		c.mu.Unlock()
		c.notifyUpdate()
		return err
	}

	if c.session != nil && c.session.Email() != user.Email {
		if err := c.session.Save(ctx, user); err != nil {
			c.logger.Warn("failed to persist user", zap.Error(err))
		}
	}

	if c.rooms != nil {
		if res, err := c.rooms.RecoverOrphan(ctx); err != nil {
			c.logger.Warn("failed to close session from previous run", zap.Error(err))
		} else if res != nil {
			c.logger.Info("closed session from previous run", zap.Int("duration", res.Duration))
		}
	}

	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return nil
	}
	c.state.User = user
	c.state.Phase = PhaseDashboard
	c.mu.Unlock()

	c.logger.Info("user authenticated", zap.String("user", utils.MaskEmail(user.Email)))

	c.loadRooms(ctx)
	c.loadStats(ctx)
	c.startRoomPolling()
	c.notifyUpdate()
	return nil
}

// SelectRoom marks a room of the current list as the join target
func (c *Controller) SelectRoom(roomID string) error {
	c.mu.Lock()
	if !c.alive || c.state.Phase != PhaseDashboard {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	room := models.FindRoom(c.state.Rooms, roomID)
	if room == nil {
		c.mu.Unlock()
		return ErrNoRoomSelected
	}
	c.state.SelectedRoom = room
	c.mu.Unlock()

	c.notifyUpdate()
	return nil
}

// Join enters the selected room, or roomID when given. On success the
// session is recorded, then the meeting link is opened and message polling
// replaces room polling.
func (c *Controller) Join(ctx context.Context, roomID string) error {
	c.mu.Lock()
	if !c.alive || c.state.Phase != PhaseDashboard || c.state.Transitioning {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	if roomID != "" {
		c.state.SelectedRoom = models.FindRoom(c.state.Rooms, roomID)
	}
	room := c.state.SelectedRoom
	if room == nil {
		c.mu.Unlock()
		return ErrNoRoomSelected
	}
	if room.IsFull() {
		c.mu.Unlock()
		return ErrRoomFull
	}
	c.state.Transitioning = true
	c.mu.Unlock()
	c.notifyUpdate()

	res, err := c.rooms.Join(ctx, room.ID)

	c.mu.Lock()
	c.state.Transitioning = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("failed to join room", zap.String("roomId", utils.SanitizeLogString(room.ID)), zap.Error(err))
		c.alertError(err, "Không thể tham gia phòng")
		c.notifyUpdate()
		return err
	}
	if !c.alive {
		// Unmounted while joining
		c.mu.Unlock()
		if _, err := c.rooms.Leave(context.Background()); err != nil {
			c.logger.Warn("failed to leave room joined during unmount", zap.Error(err))
		}
		return nil
	}
	c.epoch++
	c.state.Phase = PhaseInRoom
	c.state.SessionID = res.SessionID
	c.state.Messages = []models.Message{}
	roomsTask := c.roomsTask
	c.roomsTask = nil
	c.mu.Unlock()

	roomsTask.Stop()

	if res.MeetLink != "" {
		if err := c.opener.Open(res.MeetLink); err != nil {
			c.logger.Warn("failed to open meeting link", zap.Error(err))
		}
	}

	c.loadMessages(ctx)
	c.startMessagePolling()
	c.notifyUpdate()
	return nil
}

// Leave exits the room and returns to the dashboard
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	if !c.alive || c.state.Phase != PhaseInRoom || c.state.Transitioning {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.state.Transitioning = true
	c.mu.Unlock()
	c.notifyUpdate()

	res, err := c.rooms.Leave(ctx)

	c.mu.Lock()
	c.state.Transitioning = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("failed to leave room", zap.Error(err))
		c.alertError(err, "")
		c.notifyUpdate()
		return err
	}
	if !c.alive {
		c.mu.Unlock()
		return nil
	}
	c.epoch++
	c.state.Phase = PhaseDashboard
	c.state.SessionID = ""
	c.state.SelectedRoom = nil
	c.state.Messages = []models.Message{}
	c.state.Draft = ""
	msgTask := c.msgTask
	c.msgTask = nil
	c.mu.Unlock()

	msgTask.Stop()

	if res != nil {
		c.notifier.Alert(fmt.Sprintf("You studied for %d minutes!", res.Duration))
	}

	c.loadStats(ctx)
	c.loadRooms(ctx)
	c.startRoomPolling()
	c.notifyUpdate()
	return nil
}

// SetDraft replaces the message being typed
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.state.Draft = text
	c.mu.Unlock()
	c.notifyUpdate()
}

// SendDraft sends the message being typed. The draft is cleared only on success.
func (c *Controller) SendDraft(ctx context.Context) error {
	c.mu.Lock()
	draft := c.state.Draft
	c.mu.Unlock()

	if err := c.SendMessage(ctx, draft); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state.Draft == draft {
		c.state.Draft = ""
	}
	c.mu.Unlock()
	c.notifyUpdate()
	return nil
}

// SendMessage posts text to the current room and refreshes the messages
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	c.mu.Lock()
	if !c.alive || c.state.Phase != PhaseInRoom || c.state.SelectedRoom == nil {
		c.mu.Unlock()
		return ErrNoRoomSelected
	}
	roomID := c.state.SelectedRoom.ID
	c.mu.Unlock()

	if _, err := c.rooms.SendMessage(ctx, roomID, text); err != nil {
		if !errors.Is(err, ErrEmptyMessage) {
			c.logger.Warn("failed to send message", zap.Error(err))
			c.alertError(err, "")
		}
		return err
	}

	c.loadMessages(ctx)
	return nil
}

// RefreshRooms reloads the room list now
func (c *Controller) RefreshRooms(ctx context.Context) {
	c.loadRooms(ctx)
}

// RefreshStats reloads the study statistics now
func (c *Controller) RefreshStats(ctx context.Context) {
	c.loadStats(ctx)
}

// RefreshMessages reloads the messages of the current room now
func (c *Controller) RefreshMessages(ctx context.Context) {
	c.loadMessages(ctx)
}

// Unmount leaves the current room, if any, and stops all polling.
// Responses arriving afterwards are ignored.
func (c *Controller) Unmount(ctx context.Context) error {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return nil
	}
	c.alive = false
	c.epoch++
	c.cancel()
	roomsTask, msgTask := c.roomsTask, c.msgTask
	c.roomsTask, c.msgTask = nil, nil
	c.mu.Unlock()

	roomsTask.Stop()
	msgTask.Stop()

	var err error
	if c.rooms != nil {
		if _, err = c.rooms.Leave(ctx); err != nil {
			c.logger.Warn("failed to leave room on unmount", zap.Error(err))
		}
	}

	c.mu.Lock()
	c.state.Phase = PhaseIdle
	c.state.SessionID = ""
	c.state.Transitioning = false
	c.mu.Unlock()
	c.notifyUpdate()

	return err
}

func (c *Controller) startRoomPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || c.state.Phase != PhaseDashboard || c.roomsTask != nil {
		return
	}
	c.roomsTask = poller.Start(c.lifetime, c.poll.RoomsInterval, c.pollRooms)
}

func (c *Controller) startMessagePolling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || c.state.Phase != PhaseInRoom || c.msgTask != nil {
		return
	}
	c.msgTask = poller.Start(c.lifetime, c.poll.MessagesInterval, c.loadMessages)
}

// pollRooms is the room refresh tick; it yields to join and leave
func (c *Controller) pollRooms(ctx context.Context) {
	c.mu.Lock()
	skip := c.state.Transitioning || c.state.Phase != PhaseDashboard
	c.mu.Unlock()
	if skip {
		return
	}
	c.loadRooms(ctx)
}

func (c *Controller) loadRooms(ctx context.Context) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.roomsIssued++
	seq := c.roomsIssued
	c.mu.Unlock()

	rooms, err := c.backend.GetRooms(ctx)
	if err != nil {
		c.logger.Warn("failed to load rooms", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.alive || seq <= c.roomsApplied {
		c.mu.Unlock()
		return
	}
	c.roomsApplied = seq
	c.state.Rooms = rooms
	c.state.OnlineCount = models.OnlineCount(rooms)
	if c.state.SelectedRoom != nil {
		// Keep the selection in sync with the latest occupancy
		if updated := models.FindRoom(rooms, c.state.SelectedRoom.ID); updated != nil {
			c.state.SelectedRoom = updated
		}
	}
	c.mu.Unlock()

	c.notifyUpdate()
}

func (c *Controller) loadStats(ctx context.Context) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	email := ""
	if c.session != nil {
		email = c.session.Email()
	}

	stats, err := c.backend.GetUserStats(ctx, email)
	if err != nil {
		c.logger.Warn("failed to load stats", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.state.Stats = *stats
	c.mu.Unlock()

	c.notifyUpdate()
}

func (c *Controller) loadMessages(ctx context.Context) {
	c.mu.Lock()
	if !c.alive || c.state.Phase != PhaseInRoom || c.state.SelectedRoom == nil {
		c.mu.Unlock()
		return
	}
	roomID := c.state.SelectedRoom.ID
	epoch := c.epoch
	c.msgIssued++
	seq := c.msgIssued
	c.mu.Unlock()

	messages, err := c.backend.GetMessages(ctx, roomID, c.poll.MessageLimit)
	if err != nil {
		c.logger.Warn("failed to load messages", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.alive || epoch != c.epoch || seq <= c.msgApplied {
		c.mu.Unlock()
		return
	}
	c.msgApplied = seq
	c.state.Messages = messages
	c.mu.Unlock()

	c.notifyUpdate()
}
