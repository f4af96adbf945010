package service

import "errors"

// Validation errors. They are returned before any backend call is made.
var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrNoRoomSelected    = errors.New("no room selected")
	ErrRoomFull          = errors.New("room is full")
	ErrNotAuthenticated  = errors.New("not signed in")
	ErrInvalidTransition = errors.New("action not allowed in the current state")
	ErrIncompleteForm    = errors.New("all fields are required")
)

// ErrMissingSessionID is returned when the backend accepts a join without a session id
var ErrMissingSessionID = errors.New("join response carried no session id")

// ErrNotTeacher is returned when a non-teacher attempts an administration operation
var ErrNotTeacher = errors.New("teacher access required")
