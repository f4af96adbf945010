package models

// ScheduleEvent is a class slot in the monthly calendar
type ScheduleEvent struct {
	EventID     string `json:"EventId"`
	Date        string `json:"Date"` // YYYY-MM-DD
	StartTime   string `json:"StartTime"`
	EndTime     string `json:"EndTime"`
	Title       string `json:"Title"`
	CourseName  string `json:"CourseName"`
	LessonName  string `json:"LessonName"`
	RoomID      string `json:"RoomId"`
	Description string `json:"Description"`
}

// SecurityWarning is reported when the client detects suspicious activity
type SecurityWarning struct {
	UserEmail   string `json:"userEmail"`
	WarningType string `json:"warningType"`
	Details     string `json:"details"`
}
