// Package datasource provides the transport used to invoke backend actions.
//
// Every backend operation is a named action sent to a single endpoint.
// Read actions travel as GET requests with the action and parameters in
// the query string so that browsers and proxies never need a preflight;
// write actions travel as POST requests with a JSON body of the form
// {"action": ..., ...params}.
package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Action is the name of a backend operation
type Action string

// Actions exposed by the study-room backend
const (
	ActionGetCurrentUser           Action = "getCurrentUser"
	ActionGetRooms                 Action = "getRooms"
	ActionGetUserStats             Action = "getUserStats"
	ActionJoinRoom                 Action = "joinRoom"
	ActionLeaveRoom                Action = "leaveRoom"
	ActionGetMessages              Action = "getMessages"
	ActionSendMessage              Action = "sendMessage"
	ActionLoginUser                Action = "loginUser"
	ActionRegisterUser             Action = "registerUser"
	ActionCheckIsTeacher           Action = "checkIsTeacher"
	ActionGetProfile               Action = "getProfile"
	ActionUpdateProfile            Action = "updateProfile"
	ActionGetHomeData              Action = "getHomeData"
	ActionGetCourseData            Action = "getCourseData"
	ActionAddCourse                Action = "addCourse"
	ActionGetCourseForEdit         Action = "getCourseForEdit"
	ActionUpdateCourse             Action = "updateCourse"
	ActionDeleteCourse             Action = "deleteCourse"
	ActionQuickAddCourseFromFolder Action = "quickAddCourseFromFolder"
	ActionAddRoom                  Action = "addRoom"
	ActionUpdateRoom               Action = "updateRoom"
	ActionDeleteRoom               Action = "deleteRoom"
	ActionGetSchedule              Action = "getSchedule"
	ActionAddScheduleEvent         Action = "addScheduleEvent"
	ActionLogSecurityWarning       Action = "logSecurityWarning"
)

// readActions are idempotent and sent as GET requests
var readActions = map[Action]struct{}{
	ActionGetCurrentUser:   {},
	ActionGetRooms:         {},
	ActionGetUserStats:     {},
	ActionGetMessages:      {},
	ActionCheckIsTeacher:   {},
	ActionGetProfile:       {},
	ActionGetHomeData:      {},
	ActionGetCourseData:    {},
	ActionGetCourseForEdit: {},
	ActionGetSchedule:      {},
}

// IsRead returns true if the action only reads backend state
func (a Action) IsRead() bool {
	_, ok := readActions[a]
	return ok
}

// Method returns the HTTP method used to invoke the action
func (a Action) Method() string {
	if a.IsRead() {
		return "GET"
	}
	return "POST"
}

// Params holds the parameters of an action call
type Params map[string]any

// DataSource invokes backend actions and returns the raw JSON response
type DataSource interface {
	Call(ctx context.Context, action Action, params Params) (json.RawMessage, error)
}

// ErrInvalidJSON is returned when the backend answers with a body that is not JSON
var ErrInvalidJSON = errors.New("invalid JSON response")

// TransportError reports a failure to exchange a request with the backend
type TransportError struct {
	Action Action
	// StatusCode is zero when no HTTP response was received
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP error! status: %d", e.Action, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNetwork returns true if the request never produced an HTTP response
func (e *TransportError) IsNetwork() bool {
	return e.StatusCode == 0
}

// IsNetworkError returns true if err is a transport failure without an HTTP response
func IsNetworkError(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.IsNetwork()
}
