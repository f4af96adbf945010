// Package cli implements the line-oriented terminal client
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/navikt/studyroom/internal/backend"
	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/service"
	"go.uber.org/zap"
)

// Controller is the part of the polling controller driven by the shell
type Controller interface {
	Mount(ctx context.Context) error
	Unmount(ctx context.Context) error
	Snapshot() service.ViewState
	SelectRoom(roomID string) error
	Join(ctx context.Context, roomID string) error
	Leave(ctx context.Context) error
	SendMessage(ctx context.Context, text string) error
	SetDraft(text string)
	SendDraft(ctx context.Context) error
	RefreshRooms(ctx context.Context)
	RefreshStats(ctx context.Context)
	RefreshMessages(ctx context.Context)
}

// Launcher opens a URL outside the terminal
type Launcher func(url string) error

// Shell reads commands line by line and renders the results as text.
// It is also the Notifier and LinkOpener of the controller.
type Shell struct {
	in     io.Reader
	out    io.Writer
	outMu  sync.Mutex
	launch Launcher
	logger *zap.Logger

	controller Controller
	catalog    *service.Catalog

	// last message shown per room session, for live chat output
	seenMu   sync.Mutex
	seenSess string
	seen     int
}

// NewShell creates a shell. A nil launch prints links without opening them.
func NewShell(in io.Reader, out io.Writer, launch Launcher, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shell{
		in:     in,
		out:    out,
		launch: launch,
		logger: logger,
	}
}

// Alert prints a message that needs the user's attention
func (s *Shell) Alert(message string) {
	s.printf("! %s\n", message)
}

// Open prints the link and hands it to the launcher
func (s *Shell) Open(url string) error {
	s.printf("Meeting link: %s\n", url)
	if s.launch == nil {
		return nil
	}
	return s.launch(url)
}

// OnViewUpdate prints chat lines that arrived since the last update
func (s *Shell) OnViewUpdate(state service.ViewState) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	if state.Phase != service.PhaseInRoom || state.SessionID == "" {
		s.seenSess, s.seen = "", 0
		return
	}
	if state.SessionID != s.seenSess {
		s.seenSess, s.seen = state.SessionID, 0
	}
	if len(state.Messages) < s.seen {
		s.seen = 0
	}
	for _, m := range state.Messages[s.seen:] {
		s.printMessage(m)
	}
	s.seen = len(state.Messages)
}

// Run mounts the controller and executes commands until quit, EOF or ctx
// is cancelled. The controller is unmounted before Run returns.
func (s *Shell) Run(ctx context.Context, controller Controller, catalog *service.Catalog) error {
	s.controller = controller
	s.catalog = catalog

	s.printf("Study room client. Type 'help' for commands.\n")
	if err := controller.Mount(ctx); err != nil {
		s.printf("Not signed in. Use 'login <email|phone> <password>'.\n")
	} else {
		s.printDashboard()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	defer func() {
		unmountCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := controller.Unmount(unmountCtx); err != nil {
			s.logger.Warn("failed to leave room on exit", zap.Error(err))
		}
	}()

	for {
		s.printf("> ")
		select {
		case <-ctx.Done():
			s.printf("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				s.printf("\n")
				return nil
			}
			if quit := s.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the shell should exit
func (s *Shell) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "rooms":
		s.controller.RefreshRooms(ctx)
		s.printDashboard()
	case "select":
		if len(args) != 1 {
			s.usage("select <room id>")
			return false
		}
		s.reportValidation(s.controller.SelectRoom(args[0]))
	case "join":
		roomID := ""
		if len(args) > 0 {
			roomID = args[0]
		}
		if err := s.controller.Join(ctx, roomID); err != nil {
			s.reportValidation(err)
			return false
		}
		state := s.controller.Snapshot()
		if state.SelectedRoom != nil {
			s.printf("Joined %s. Use 'say <text>' to chat and 'leave' when done.\n", state.SelectedRoom.Name)
		}
	case "leave":
		s.reportValidation(s.controller.Leave(ctx))
	case "say":
		// The draft survives a failed send
		s.controller.SetDraft(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0])))
		s.reportValidation(s.controller.SendDraft(ctx))
	case "messages":
		s.controller.RefreshMessages(ctx)
		s.printMessages()
	case "stats":
		s.controller.RefreshStats(ctx)
		stats := s.controller.Snapshot().Stats
		s.printf("Total: %d minutes in %d sessions\n", stats.TotalMinutes, stats.SessionCount)
	case "courses":
		s.courses(ctx, args)
	case "course":
		if len(args) == 0 {
			s.usage("course <name>")
			return false
		}
		switch args[0] {
		case "add", "edit", "delete", "import":
			s.courseAdmin(ctx, args[0], args[1:])
		default:
			s.course(ctx, strings.Join(args, " "))
		}
	case "room":
		if len(args) == 0 {
			s.usage("room add|edit|delete ...")
			return false
		}
		s.roomAdmin(ctx, args[0], args[1:])
	case "event":
		if len(args) == 0 || args[0] != "add" {
			s.usage("event add <YYYY-MM-DD> <start> <end> <title> [| room id]")
			return false
		}
		s.addEvent(ctx, args[1:])
	case "schedule":
		s.schedule(ctx, args)
	case "profile":
		if len(args) > 0 && args[0] == "set" {
			s.profileSet(ctx, args[1:])
			return false
		}
		s.profile(ctx)
	case "login":
		if len(args) != 2 {
			s.usage("login <email|phone> <password>")
			return false
		}
		s.login(ctx, args[0], args[1])
	case "register":
		if len(args) != 4 {
			s.usage("register <name> <email> <phone> <password>")
			return false
		}
		s.register(ctx, models.Registration{Name: args[0], Email: args[1], Phone: args[2], Password: args[3]})
	case "logout":
		if err := s.controller.Unmount(ctx); err != nil {
			s.report(err)
		}
		s.report(s.catalog.Logout(ctx))
		s.printf("Signed out.\n")
	case "quit", "exit":
		return true
	default:
		s.printf("Unknown command %q. Type 'help' for commands.\n", cmd)
	}
	return false
}

func (s *Shell) courses(ctx context.Context, args []string) {
	sortBy := ""
	if n := len(args); n > 0 {
		switch args[n-1] {
		case service.SortNameAsc, service.SortNameDesc, service.SortNewest:
			sortBy = args[n-1]
			args = args[:n-1]
		}
	}

	courses, err := s.catalog.Courses(ctx, strings.Join(args, " "), sortBy)
	if err != nil {
		s.report(err)
		return
	}
	if len(courses) == 0 {
		s.printf("No courses found.\n")
		return
	}
	for _, c := range courses {
		s.printf("- %s: %s\n", c.Name, c.Description)
	}
}

func (s *Shell) course(ctx context.Context, name string) {
	detail, err := s.catalog.CourseDetail(ctx, name)
	if err != nil {
		s.report(err)
		return
	}
	s.printf("%s\n%s\n", detail.Name, detail.Description)
	for _, l := range detail.Lessons {
		s.printf("  %d. %s\n", l.Index, l.Name)
		if l.MaterialURL != "" {
			s.printf("     material: %s\n", l.MaterialURL)
		}
	}
}

func (s *Shell) schedule(ctx context.Context, args []string) {
	month := s.catalog.CurrentMonth()
	if len(args) == 2 {
		m, errM := strconv.Atoi(args[0])
		y, errY := strconv.Atoi(args[1])
		if errM != nil || errY != nil || m < 1 || m > 12 {
			s.usage("schedule [month year]")
			return
		}
		month = service.Month{Year: y, Month: time.Month(m)}
	} else if len(args) != 0 {
		s.usage("schedule [month year]")
		return
	}

	events, err := s.catalog.Schedule(ctx, month)
	if err != nil {
		s.report(err)
		return
	}
	s.printf("Schedule %s\n", month)
	days := service.GroupByDate(events)
	if len(days) == 0 {
		s.printf("  no classes\n")
		return
	}
	for _, day := range days {
		s.printf("%s\n", day.Date)
		for _, e := range day.Events {
			room := ""
			if e.RoomID != "" {
				room = " [" + e.RoomID + "]"
			}
			s.printf("  %s-%s %s%s\n", e.StartTime, e.EndTime, e.Title, room)
		}
	}
}

func (s *Shell) profile(ctx context.Context) {
	profile, err := s.catalog.Profile(ctx)
	if err != nil {
		s.report(err)
		return
	}
	if profile == nil {
		s.printf("No profile yet.\n")
		return
	}
	s.printf("%s <%s>\n", profile.Name, profile.Email)
	for _, f := range []struct{ label, value string }{
		{"Phone", profile.Phone},
		{"School", profile.School},
		{"Class", profile.ClassGrade},
		{"Goals", profile.StudyGoals},
	} {
		if f.value != "" {
			s.printf("  %s: %s\n", f.label, f.value)
		}
	}
}

func (s *Shell) login(ctx context.Context, credential, password string) {
	user, err := s.catalog.Login(ctx, credential, password)
	if err != nil {
		s.report(err)
		return
	}
	s.printf("Signed in as %s.\n", user.DisplayName())

	if s.controller.Snapshot().Phase == service.PhaseIdle {
		if err := s.controller.Mount(ctx); err == nil {
			s.printDashboard()
		}
	}
}

func (s *Shell) register(ctx context.Context, reg models.Registration) {
	res, err := s.catalog.Register(ctx, reg)
	if err != nil {
		s.report(err)
		return
	}
	msg := res.Message
	if msg == "" {
		msg = "Registration submitted."
	}
	s.printf("%s\n", msg)
}

func (s *Shell) printDashboard() {
	state := s.controller.Snapshot()
	if state.User != nil {
		s.printf("Hello %s. %d online.\n", state.User.DisplayName(), state.OnlineCount)
	}
	for _, r := range state.Rooms {
		marker := " "
		if state.SelectedRoom != nil && state.SelectedRoom.ID == r.ID {
			marker = "*"
		}
		capacity := "-"
		if r.MaxCam > 0 {
			capacity = strconv.Itoa(r.MaxCam)
		}
		s.printf("%s %-6s %-24s %-8s %3d/%-3s %s\n", marker, r.ID, r.Name, r.Type, r.Count, capacity, r.JoinLabel())
	}
}

func (s *Shell) printMessages() {
	state := s.controller.Snapshot()
	if state.Phase != service.PhaseInRoom {
		s.printf("Not in a room.\n")
		return
	}
	if len(state.Messages) == 0 {
		s.printf("No messages yet.\n")
		return
	}
	for _, m := range state.Messages {
		s.printMessage(m)
	}
}

func (s *Shell) printMessage(m models.Message) {
	name := m.Name
	if name == "" {
		name = m.Email
	}
	ts := ""
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.Local().Format("15:04") + " "
	}
	s.printf("%s%s: %s\n", ts, name, m.Message)
}

func (s *Shell) printHelp() {
	s.printf(`Commands:
  rooms                       list rooms
  select <id>                 select a room
  join [id]                   join the selected room
  leave                       leave the current room
  say <text>                  send a chat message
  messages                    show the room chat
  stats                       show study statistics
  courses [query] [sort]      list courses (sort: name-asc, name-desc, newest)
  course <name>               show a course
  schedule [month year]       show the class schedule
  profile                     show your profile
  profile set <field> <value> update name, phone, school, class, goals, bio or address
  login <credential> <pass>   sign in
  register <name> <email> <phone> <pass>
  logout                      sign out

Teacher commands (fields separated by |):
  room add <name> [| type | max_cam | meet link]
  room edit <id> [name] [| type | max_cam | meet link]
  room delete <id>
  course add <name> | <description> [| thumbnail url]
  course edit <old name> | <new name> [| description]
  course delete <name>
  course import <folder url> [description]
  event add <YYYY-MM-DD> <start> <end> <title> [| room id]
  quit                        leave and exit
`)
}

// report prints err, including backend failures
func (s *Shell) report(err error) {
	if err == nil || s.reportValidation(err) {
		return
	}
	var appErr *backend.AppError
	if errors.As(err, &appErr) {
		s.printf("%s\n", backend.MessageOf(err, err.Error()))
		return
	}
	s.printf("Error: %v\n", err)
}

// reportValidation prints errors raised before any backend call. Backend
// failures of controller operations are alerted by the controller itself.
func (s *Shell) reportValidation(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrEmptyMessage):
		s.printf("Nothing to send.\n")
	case errors.Is(err, service.ErrNoRoomSelected):
		s.printf("Select a room first.\n")
	case errors.Is(err, service.ErrRoomFull):
		s.printf("%s\n", models.JoinLabelFull)
	case errors.Is(err, service.ErrInvalidTransition):
		s.printf("Not possible right now.\n")
	case errors.Is(err, service.ErrNotAuthenticated):
		s.printf("Sign in first.\n")
	case errors.Is(err, service.ErrIncompleteForm):
		s.printf("All fields are required.\n")
	case errors.Is(err, service.ErrNotTeacher):
		s.printf("Teacher access required.\n")
	default:
		return false
	}
	return true
}

func (s *Shell) usage(text string) {
	s.printf("Usage: %s\n", text)
}

func (s *Shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
