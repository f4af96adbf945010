package models

import "time"

// Session represents the server-tracked presence of the user in a room
type Session struct {
	ID       string    `json:"session_id"`
	RoomID   string    `json:"room_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// JoinResult is the response of the joinRoom action
type JoinResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	MeetLink  string `json:"meetLink,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
}

// LeaveResult is the response of the leaveRoom action
type LeaveResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Duration int    `json:"duration"` // in minutes
}

// Stats holds the study statistics computed by the backend
type Stats struct {
	Success      bool `json:"success,omitempty"`
	TotalMinutes int  `json:"totalMinutes"`
	SessionCount int  `json:"sessionCount"`
}

// Result is the generic envelope returned by write actions
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
