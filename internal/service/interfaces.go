package service

import (
	"context"

	"github.com/navikt/studyroom/internal/models"
)

// RoomBackend is the set of backend actions used by the study-room screens
type RoomBackend interface {
	GetCurrentUser(ctx context.Context) (*models.User, error)
	GetRooms(ctx context.Context) ([]models.Room, error)
	GetUserStats(ctx context.Context, email string) (*models.Stats, error)
	JoinRoom(ctx context.Context, roomID string, user *models.User) (*models.JoinResult, error)
	LeaveRoom(ctx context.Context, sessionID string) (*models.LeaveResult, error)
	GetMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, roomID, message string) (*models.SendResult, error)
}

// CatalogBackend is the set of backend actions used by the account, course,
// schedule and room administration screens
type CatalogBackend interface {
	LoginUser(ctx context.Context, credential, password string) (*models.LoginResult, error)
	RegisterUser(ctx context.Context, reg models.Registration) (*models.Result, error)
	CheckIsTeacher(ctx context.Context, email string) (bool, error)
	GetProfile(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile models.Profile) (*models.ProfileUpdateResult, error)

	GetHomeData(ctx context.Context) ([]models.Course, error)
	GetCourseData(ctx context.Context, courseName string) (*models.CourseDetail, error)
	AddCourse(ctx context.Context, course models.CourseInput) (*models.Result, error)
	GetCourseForEdit(ctx context.Context, courseName string) (*models.CourseInput, error)
	UpdateCourse(ctx context.Context, oldCourseName string, course models.CourseInput) (*models.Result, error)
	DeleteCourse(ctx context.Context, courseName string) (*models.Result, error)
	QuickAddCourseFromFolder(ctx context.Context, folderURL, courseDesc string) (*models.Result, error)

	GetRooms(ctx context.Context) ([]models.Room, error)
	AddRoom(ctx context.Context, room models.RoomInput) (*models.Result, error)
	UpdateRoom(ctx context.Context, room models.RoomInput) (*models.Result, error)
	DeleteRoom(ctx context.Context, roomID, email string) (*models.Result, error)

	GetSchedule(ctx context.Context, month, year int) ([]models.ScheduleEvent, error)
	AddScheduleEvent(ctx context.Context, event models.ScheduleEvent) (*models.Result, error)

	LogSecurityWarning(ctx context.Context, warning models.SecurityWarning) error
}

// Notifier shows a blocking message to the user
type Notifier interface {
	Alert(message string)
}

// LinkOpener opens an external link, such as a meeting, for the user
type LinkOpener interface {
	Open(url string) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(message string)

// Alert calls f(message)
func (f NotifierFunc) Alert(message string) {
	f(message)
}

type nopNotifier struct{}

func (nopNotifier) Alert(string) {}

type nopOpener struct{}

func (nopOpener) Open(string) error { return nil }
