package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/session"
	"github.com/navikt/studyroom/internal/utils"
	"go.uber.org/zap"
)

// Course list orderings
const (
	SortNameAsc  = "name-asc"
	SortNameDesc = "name-desc"
	SortNewest   = "newest"
)

// Catalog provides the account, course, schedule and room administration operations
type Catalog struct {
	backend CatalogBackend
	session *session.Session
	logger  *zap.Logger
	now     func() time.Time
}

// NewCatalog creates a new Catalog
func NewCatalog(b CatalogBackend, sess *session.Session, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		backend: b,
		session: sess,
		logger:  logger,
		now:     time.Now,
	}
}

// Login authenticates with an email or phone and a password and keeps the user signed in
func (c *Catalog) Login(ctx context.Context, credential, password string) (*models.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" || password == "" {
		return nil, ErrIncompleteForm
	}

	res, err := c.backend.LoginUser(ctx, credential, password)
	if err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, errors.New("login response carried no user")
	}

	if err := c.session.Save(ctx, res.User); err != nil {
		return nil, err
	}

	c.logger.Info("user signed in", zap.String("user", utils.MaskEmail(res.User.Email)))
	return res.User, nil
}

// Register submits a sign-up request. Every field is required.
func (c *Catalog) Register(ctx context.Context, reg models.Registration) (*models.Result, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)
	if reg.Name == "" || reg.Email == "" || reg.Phone == "" || reg.Password == "" {
		return nil, ErrIncompleteForm
	}
	return c.backend.RegisterUser(ctx, reg)
}

// Logout forgets the signed-in user
func (c *Catalog) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

// IsTeacher reports whether the signed-in user may administer courses and rooms
func (c *Catalog) IsTeacher(ctx context.Context) (bool, error) {
	email := c.session.Email()
	if email == "" {
		return false, nil
	}
	return c.backend.CheckIsTeacher(ctx, email)
}

// RequireTeacher returns nil when the signed-in user is a teacher. A refused
// attempt is reported to the backend as a security warning.
func (c *Catalog) RequireTeacher(ctx context.Context, operation string) error {
	if !c.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	isTeacher, err := c.IsTeacher(ctx)
	if err != nil {
		return err
	}
	if isTeacher {
		return nil
	}

	c.logger.Warn("administration refused",
		zap.String("user", utils.MaskEmail(c.session.Email())),
		zap.String("operation", utils.SanitizeLogString(operation)))
	if err := c.ReportSecurityWarning(ctx, "unauthorized_admin_access", operation); err != nil {
		c.logger.Warn("failed to report refused administration", zap.Error(err))
	}
	return ErrNotTeacher
}

// Courses returns the course catalogue filtered by query and ordered by sortBy
func (c *Catalog) Courses(ctx context.Context, query, sortBy string) ([]models.Course, error) {
	courses, err := c.backend.GetHomeData(ctx)
	if err != nil {
		return nil, err
	}
	return FilterCourses(courses, query, sortBy), nil
}

// FilterCourses keeps the courses whose name or description contains query,
// ignoring case, and orders them by sortBy. Unknown orderings keep the
// backend order; newest reverses it.
func FilterCourses(courses []models.Course, query, sortBy string) []models.Course {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if q == "" ||
			strings.Contains(strings.ToLower(course.Name), q) ||
			strings.Contains(strings.ToLower(course.Description), q) {
			out = append(out, course)
		}
	}

	switch sortBy {
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name)
		})
	case SortNewest:
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// CourseDetail returns a course with its lessons
func (c *Catalog) CourseDetail(ctx context.Context, courseName string) (*models.CourseDetail, error) {
	if strings.TrimSpace(courseName) == "" {
		return nil, ErrIncompleteForm
	}
	return c.backend.GetCourseData(ctx, courseName)
}

// AddCourse creates a course
func (c *Catalog) AddCourse(ctx context.Context, course models.CourseInput) (*models.Result, error) {
	if strings.TrimSpace(course.Name) == "" {
		return nil, ErrIncompleteForm
	}
	return c.backend.AddCourse(ctx, course)
}

// CourseForEdit returns the editable fields of a course
func (c *Catalog) CourseForEdit(ctx context.Context, courseName string) (*models.CourseInput, error) {
	return c.backend.GetCourseForEdit(ctx, courseName)
}

// UpdateCourse replaces the course stored as oldCourseName
func (c *Catalog) UpdateCourse(ctx context.Context, oldCourseName string, course models.CourseInput) (*models.Result, error) {
	if strings.TrimSpace(course.Name) == "" {
		return nil, ErrIncompleteForm
	}
	return c.backend.UpdateCourse(ctx, oldCourseName, course)
}

// DeleteCourse removes a course
func (c *Catalog) DeleteCourse(ctx context.Context, courseName string) (*models.Result, error) {
	return c.backend.DeleteCourse(ctx, courseName)
}

// QuickAddCourse creates a course from a shared folder link
func (c *Catalog) QuickAddCourse(ctx context.Context, folderURL, courseDesc string) (*models.Result, error) {
	if strings.TrimSpace(folderURL) == "" {
		return nil, ErrIncompleteForm
	}
	return c.backend.QuickAddCourseFromFolder(ctx, folderURL, courseDesc)
}

// Profile returns the profile of the signed-in user, or nil when the backend has none
func (c *Catalog) Profile(ctx context.Context) (*models.Profile, error) {
	email := c.session.Email()
	if email == "" {
		return nil, ErrNotAuthenticated
	}
	return c.backend.GetProfile(ctx, email)
}

// UpdateProfile saves the profile of the signed-in user and merges the
// result into the session
func (c *Catalog) UpdateProfile(ctx context.Context, profile models.Profile) (*models.ProfileUpdateResult, error) {
	email := c.session.Email()
	if email == "" {
		return nil, ErrNotAuthenticated
	}
	profile.Email = email

	res, err := c.backend.UpdateProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	merged := res.Profile
	if merged == nil {
		merged = &profile
	}
	if err := c.session.MergeProfile(ctx, merged); err != nil {
		c.logger.Warn("failed to update stored user", zap.Error(err))
	}
	return res, nil
}

// Month identifies a calendar month
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Prev returns the previous month
func (m Month) Prev() Month {
	return MonthOf(time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

// Next returns the following month
func (m Month) Next() Month {
	return MonthOf(time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

func (m Month) String() string {
	return fmt.Sprintf("%02d/%d", int(m.Month), m.Year)
}

// CurrentMonth returns the month containing today
func (c *Catalog) CurrentMonth() Month {
	return MonthOf(c.now())
}

// DaySchedule holds the events of one date, ordered by start time
type DaySchedule struct {
	Date   string
	Events []models.ScheduleEvent
}

// Schedule returns the events of a month
func (c *Catalog) Schedule(ctx context.Context, month Month) ([]models.ScheduleEvent, error) {
	return c.backend.GetSchedule(ctx, int(month.Month), month.Year)
}

// GroupByDate groups events by date in ascending date and start time order
func GroupByDate(events []models.ScheduleEvent) []DaySchedule {
	byDate := make(map[string][]models.ScheduleEvent)
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	days := make([]DaySchedule, 0, len(byDate))
	for date, list := range byDate {
		sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime < list[j].StartTime })
		days = append(days, DaySchedule{Date: date, Events: list})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// AddScheduleEvent creates a calendar event
func (c *Catalog) AddScheduleEvent(ctx context.Context, event models.ScheduleEvent) (*models.Result, error) {
	if event.Date == "" || strings.TrimSpace(event.Title) == "" {
		return nil, ErrIncompleteForm
	}
	return c.backend.AddScheduleEvent(ctx, event)
}

// Rooms returns the rooms for the administration screen
func (c *Catalog) Rooms(ctx context.Context) ([]models.Room, error) {
	return c.backend.GetRooms(ctx)
}

// SaveRoom creates the room when it has no id and updates it otherwise.
// Empty form fields take the defaults of a new room.
func (c *Catalog) SaveRoom(ctx context.Context, in models.RoomInput) (*models.Result, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrIncompleteForm
	}

	defaults := models.NewRoomInput()
	if in.MeetLink == "" {
		in.MeetLink = defaults.MeetLink
	}
	if in.MaxCam <= 0 {
		in.MaxCam = defaults.MaxCam
	}
	if in.Type == "" {
		in.Type = defaults.Type
	}
	if in.Status == "" {
		in.Status = defaults.Status
	}
	in.Email = c.session.Email()

	if in.RoomID == "" {
		return c.backend.AddRoom(ctx, in)
	}
	return c.backend.UpdateRoom(ctx, in)
}

// DeleteRoom removes a room on behalf of the signed-in user
func (c *Catalog) DeleteRoom(ctx context.Context, roomID string) (*models.Result, error) {
	if roomID == "" {
		return nil, ErrNoRoomSelected
	}
	return c.backend.DeleteRoom(ctx, roomID, c.session.Email())
}

// ReportSecurityWarning records suspicious activity of the signed-in user
func (c *Catalog) ReportSecurityWarning(ctx context.Context, warningType, details string) error {
	return c.backend.LogSecurityWarning(ctx, models.SecurityWarning{
		UserEmail:   c.session.Email(),
		WarningType: warningType,
		Details:     details,
	})
}
