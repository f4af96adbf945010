// Package backend provides a typed client for the study-room backend actions
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/navikt/studyroom/internal/datasource"
	"github.com/navikt/studyroom/internal/models"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Client wraps a data source with one method per backend action
type Client struct {
	ds     datasource.DataSource
	logger *zap.Logger
}

// NewClient creates a new backend client on top of ds
func NewClient(ds datasource.DataSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		ds:     ds,
		logger: logger,
	}
}

// call invokes an action and returns the parsed response
func (c *Client) call(ctx context.Context, action datasource.Action, params datasource.Params) (json.RawMessage, gjson.Result, error) {
	raw, err := c.ds.Call(ctx, action, params)
	if err != nil {
		return nil, gjson.Result{}, err
	}
	return raw, gjson.ParseBytes(raw), nil
}

// expectSuccess turns a response without success=true into an AppError
func expectSuccess(action datasource.Action, res gjson.Result) error {
	if res.Get("success").Type == gjson.True {
		return nil
	}
	return &AppError{Action: action, Message: res.Get("message").String()}
}

// decode unmarshals raw into v
func decode(action datasource.Action, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	return nil
}

// decodeList unmarshals an array response, treating any other shape as empty
func decodeList[T any](action datasource.Action, raw json.RawMessage, res gjson.Result) ([]T, error) {
	if !res.IsArray() {
		return []T{}, nil
	}
	out := []T{}
	if err := decode(action, raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// write invokes a write action and checks the success flag
func (c *Client) write(ctx context.Context, action datasource.Action, params datasource.Params) (*models.Result, error) {
	raw, res, err := c.call(ctx, action, params)
	if err != nil {
		return nil, err
	}
	if err := expectSuccess(action, res); err != nil {
		return nil, err
	}

	var result models.Result
	if err := decode(action, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCurrentUser returns the user the backend associates with this client
func (c *Client) GetCurrentUser(ctx context.Context) (*models.User, error) {
	raw, res, err := c.call(ctx, datasource.ActionGetCurrentUser, nil)
	if err != nil {
		return nil, err
	}
	if err := expectSuccess(datasource.ActionGetCurrentUser, res); err != nil {
		return nil, err
	}

	var current models.CurrentUser
	if err := decode(datasource.ActionGetCurrentUser, raw, &current); err != nil {
		return nil, err
	}
	return &current.User, nil
}

// GetRooms returns all study rooms with their current occupancy
func (c *Client) GetRooms(ctx context.Context) ([]models.Room, error) {
	raw, res, err := c.call(ctx, datasource.ActionGetRooms, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Room](datasource.ActionGetRooms, raw, res)
}

// GetUserStats returns the study statistics of a user, or of the current user when email is empty
func (c *Client) GetUserStats(ctx context.Context, email string) (*models.Stats, error) {
	params := datasource.Params{}
	if email != "" {
		params["email"] = email
	}

	raw, res, err := c.call(ctx, datasource.ActionGetUserStats, params)
	if err != nil {
		return nil, err
	}
	if s := res.Get("success"); s.Exists() && !s.Bool() {
		return nil, &AppError{Action: datasource.ActionGetUserStats, Message: res.Get("message").String()}
	}

	var stats models.Stats
	if err := decode(datasource.ActionGetUserStats, raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// JoinRoom registers the user in a room. The user's email and name are
// sent when known, the name defaulting to the email.
func (c *Client) JoinRoom(ctx context.Context, roomID string, user *models.User) (*models.JoinResult, error) {
	params := datasource.Params{"roomId": roomID}
	if user != nil {
		if email := strings.TrimSpace(user.Email); email != "" {
			params["email"] = email
			name := strings.TrimSpace(user.Name)
			if name == "" {
				name = email
			}
			params["name"] = name
		}
	}

	raw, res, err := c.call(ctx, datasource.ActionJoinRoom, params)
	if err != nil {
		return nil, err
	}
	if err := expectSuccess(datasource.ActionJoinRoom, res); err != nil {
		return nil, err
	}

	var result models.JoinResult
	if err := decode(datasource.ActionJoinRoom, raw, &result); err != nil {
		return nil, err
	}
	if result.RoomID == "" {
		result.RoomID = roomID
	}
	return &result, nil
}

// LeaveRoom closes a session and returns the studied duration
func (c *Client) LeaveRoom(ctx context.Context, sessionID string) (*models.LeaveResult, error) {
	raw, res, err := c.call(ctx, datasource.ActionLeaveRoom, datasource.Params{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	if err := expectSuccess(datasource.ActionLeaveRoom, res); err != nil {
		return nil, err
	}

	var result models.LeaveResult
	if err := decode(datasource.ActionLeaveRoom, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMessages returns the latest messages of a room
func (c *Client) GetMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = models.DefaultMessageLimit
	}

	raw, res, err := c.call(ctx, datasource.ActionGetMessages, datasource.Params{
		"roomId": roomID,
		"limit":  strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}
	return decodeList[models.Message](datasource.ActionGetMessages, raw, res)
}

// SendMessage posts a chat message to a room
func (c *Client) SendMessage(ctx context.Context, roomID, message string) (*models.SendResult, error) {
	raw, res, err := c.call(ctx, datasource.ActionSendMessage, datasource.Params{
		"roomId":  roomID,
		"message": message,
	})
	if err != nil {
		return nil, err
	}
	if err := expectSuccess(datasource.ActionSendMessage, res); err != nil {
		return nil, err
	}

	var result models.SendResult
	if err := decode(datasource.ActionSendMessage, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoginUser authenticates with an email or phone number and a password
func (c *Client) LoginUser(ctx context.Context, credential, password string) (*models.LoginResult, error) {
	raw, res, err := c.call(ctx, datasource.ActionLoginUser, datasource.Params{
		"credential": credential,
		"password":   password,
	})
	if err != nil {
		return nil, err
	}
	if err := expectSuccess(datasource.ActionLoginUser, res); err != nil {
		return nil, err
	}

	var result models.LoginResult
	if err := decode(datasource.ActionLoginUser, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterUser submits a sign-up request
func (c *Client) RegisterUser(ctx context.Context, reg models.Registration) (*models.Result, error) {
	return c.write(ctx, datasource.ActionRegisterUser, datasource.Params{
		"name":     reg.Name,
		"email":    reg.Email,
		"phone":    reg.Phone,
		"password": reg.Password,
	})
}

// CheckIsTeacher reports whether the backend answers a literal true for email
func (c *Client) CheckIsTeacher(ctx context.Context, email string) (bool, error) {
	_, res, err := c.call(ctx, datasource.ActionCheckIsTeacher, datasource.Params{"email": email})
	if err != nil {
		return false, err
	}
	return res.Type == gjson.True, nil
}

// GetProfile returns the profile of a user, or nil when the backend has none
func (c *Client) GetProfile(ctx context.Context, email string) (*models.Profile, error) {
	_, res, err := c.call(ctx, datasource.ActionGetProfile, datasource.Params{"email": email})
	if err != nil {
		return nil, err
	}

	var node gjson.Result
	switch {
	case res.Get("success").Bool() && res.Get("profile").IsObject():
		node = res.Get("profile")
	case res.IsObject() && res.Get("email").String() != "":
		node = res
	default:
		return nil, nil
	}

	var profile models.Profile
	if err := decode(datasource.ActionGetProfile, json.RawMessage(node.Raw), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile saves the profile fields
func (c *Client) UpdateProfile(ctx context.Context, profile models.Profile) (*models.ProfileUpdateResult, error) {
	params, err := toParams(profile)
	if err != nil {
		return nil, err
	}

	raw, res, err := c.call(ctx, datasource.ActionUpdateProfile, params)
	if err != nil {
		return nil, err
	}
	if err := expectSuccess(datasource.ActionUpdateProfile, res); err != nil {
		return nil, err
	}

	var result models.ProfileUpdateResult
	if err := decode(datasource.ActionUpdateProfile, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHomeData returns the course catalogue
func (c *Client) GetHomeData(ctx context.Context) ([]models.Course, error) {
	raw, res, err := c.call(ctx, datasource.ActionGetHomeData, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Course](datasource.ActionGetHomeData, raw, res)
}

// GetCourseData returns a course with its lessons
func (c *Client) GetCourseData(ctx context.Context, courseName string) (*models.CourseDetail, error) {
	raw, res, err := c.call(ctx, datasource.ActionGetCourseData, datasource.Params{"courseName": courseName})
	if err != nil {
		return nil, err
	}
	if s := res.Get("success"); s.Exists() && !s.Bool() {
		return nil, &AppError{Action: datasource.ActionGetCourseData, Message: res.Get("message").String()}
	}

	var detail models.CourseDetail
	if err := decode(datasource.ActionGetCourseData, raw, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// AddCourse creates a course
func (c *Client) AddCourse(ctx context.Context, course models.CourseInput) (*models.Result, error) {
	params, err := toParams(course)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, datasource.ActionAddCourse, params)
}

// GetCourseForEdit returns the editable fields of a course
func (c *Client) GetCourseForEdit(ctx context.Context, courseName string) (*models.CourseInput, error) {
	raw, res, err := c.call(ctx, datasource.ActionGetCourseForEdit, datasource.Params{"courseName": courseName})
	if err != nil {
		return nil, err
	}
	if s := res.Get("success"); s.Exists() && !s.Bool() {
		return nil, &AppError{Action: datasource.ActionGetCourseForEdit, Message: res.Get("message").String()}
	}

	// Some deployments wrap the course in a data field
	if data := res.Get("data"); data.IsObject() {
		raw = json.RawMessage(data.Raw)
	}

	var course models.CourseInput
	if err := decode(datasource.ActionGetCourseForEdit, raw, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// UpdateCourse replaces the course stored as oldCourseName
func (c *Client) UpdateCourse(ctx context.Context, oldCourseName string, course models.CourseInput) (*models.Result, error) {
	return c.write(ctx, datasource.ActionUpdateCourse, datasource.Params{
		"oldCourseName": oldCourseName,
		"courseData":    course,
	})
}

// DeleteCourse removes a course
func (c *Client) DeleteCourse(ctx context.Context, courseName string) (*models.Result, error) {
	return c.write(ctx, datasource.ActionDeleteCourse, datasource.Params{"courseName": courseName})
}

// QuickAddCourseFromFolder creates a course from a shared drive folder
func (c *Client) QuickAddCourseFromFolder(ctx context.Context, folderURL, courseDesc string) (*models.Result, error) {
	return c.write(ctx, datasource.ActionQuickAddCourseFromFolder, datasource.Params{
		"folderUrl":  folderURL,
		"courseDesc": courseDesc,
	})
}

// AddRoom creates a study room
func (c *Client) AddRoom(ctx context.Context, room models.RoomInput) (*models.Result, error) {
	params, err := toParams(room)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, datasource.ActionAddRoom, params)
}

// UpdateRoom edits a study room
func (c *Client) UpdateRoom(ctx context.Context, room models.RoomInput) (*models.Result, error) {
	params, err := toParams(room)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, datasource.ActionUpdateRoom, params)
}

// DeleteRoom removes a study room, on behalf of email when given
func (c *Client) DeleteRoom(ctx context.Context, roomID, email string) (*models.Result, error) {
	params := datasource.Params{"roomId": roomID}
	if email != "" {
		params["email"] = email
	}
	return c.write(ctx, datasource.ActionDeleteRoom, params)
}

// GetSchedule returns the class events of a month (1-12)
func (c *Client) GetSchedule(ctx context.Context, month, year int) ([]models.ScheduleEvent, error) {
	raw, res, err := c.call(ctx, datasource.ActionGetSchedule, datasource.Params{
		"month": strconv.Itoa(month),
		"year":  strconv.Itoa(year),
	})
	if err != nil {
		return nil, err
	}
	return decodeList[models.ScheduleEvent](datasource.ActionGetSchedule, raw, res)
}

// AddScheduleEvent creates a calendar event
func (c *Client) AddScheduleEvent(ctx context.Context, event models.ScheduleEvent) (*models.Result, error) {
	params, err := toParams(event)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, datasource.ActionAddScheduleEvent, params)
}

// LogSecurityWarning reports suspicious client activity
func (c *Client) LogSecurityWarning(ctx context.Context, warning models.SecurityWarning) error {
	params, err := toParams(warning)
	if err != nil {
		return err
	}
	if _, err := c.write(ctx, datasource.ActionLogSecurityWarning, params); err != nil {
		c.logger.Warn("failed to log security warning",
			zap.String("warningType", warning.WarningType),
			zap.Error(err))
		return err
	}
	return nil
}

// toParams flattens a struct into action parameters using its JSON tags
func toParams(v any) (datasource.Params, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	params := datasource.Params{}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	return params, nil
}
