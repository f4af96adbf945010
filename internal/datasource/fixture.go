package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fixture produces the mock response of an action from its parameters
type Fixture func(params Params) any

// FixtureDataSource serves static mock responses keyed by action name.
// It backs local development and stands in for the backend when the
// network is unavailable.
type FixtureDataSource struct {
	mu       sync.RWMutex
	fixtures map[Action]Fixture
	now      func() time.Time
}

// NewFixtureDataSource creates a fixture data source with the default mock data
func NewFixtureDataSource() *FixtureDataSource {
	f := &FixtureDataSource{
		fixtures: make(map[Action]Fixture),
		now:      time.Now,
	}
	f.registerDefaults()
	return f
}

// With overrides the fixture for an action
func (f *FixtureDataSource) With(action Action, fixture Fixture) *FixtureDataSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixtures[action] = fixture
	return f
}

// Call returns the mock response for the action
func (f *FixtureDataSource) Call(ctx context.Context, action Action, params Params) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	fixture, ok := f.fixtures[action]
	f.mu.RUnlock()

	var response any = map[string]any{"success": true, "message": "Mock response"}
	if ok {
		response = fixture(params)
	}

	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fixture for %s: %w", action, err)
	}
	return data, nil
}

// static wraps a constant response as a fixture
func static(v any) Fixture {
	return func(Params) any { return v }
}

func (f *FixtureDataSource) registerDefaults() {
	user := map[string]any{
		"email": "student@gmail.com",
		"name":  "Test Student",
		"phone": "0912345678",
	}

	// Auth
	f.fixtures[ActionLoginUser] = static(map[string]any{
		"success": true,
		"message": "Đăng nhập thành công!",
		"user":    user,
	})
	f.fixtures[ActionRegisterUser] = static(map[string]any{
		"success": true,
		"message": "Đăng ký thành công! Vui lòng đợi admin phê duyệt.",
	})
	f.fixtures[ActionCheckIsTeacher] = static(false)
	f.fixtures[ActionGetProfile] = static(map[string]any{
		"email":       "student@gmail.com",
		"name":        "Học sinh mẫu",
		"phone":       "0912345678",
		"avatarUrl":   "",
		"dateOfBirth": "",
		"gender":      "",
		"classGrade":  "10A1",
		"school":      "THPT Mẫu",
		"address":     "",
		"parentName":  "",
		"parentPhone": "",
		"lastLogin":   "",
		"bio":         "",
		"studyGoals":  "",
	})

	// Courses
	f.fixtures[ActionGetHomeData] = static([]map[string]any{
		{
			"courseName":   "React Basics",
			"thumbnailUrl": "https://placehold.co/400x200/8b5cf6/white?text=React+Basics",
			"courseDesc":   "Học React từ cơ bản đến nâng cao",
		},
		{
			"courseName":   "JavaScript ES6",
			"thumbnailUrl": "https://placehold.co/400x200/dc2626/white?text=JavaScript+ES6",
			"courseDesc":   "Modern JavaScript cho developers",
		},
	})
	f.fixtures[ActionGetCourseData] = static(map[string]any{
		"courseName": "React Basics",
		"courseDesc": "Học React từ cơ bản đến nâng cao",
		"lessons": []map[string]any{
			{"index": 1, "lessonName": "Bài 1: Giới thiệu", "videoEmbedUrl": "", "materialUrl": ""},
			{"index": 2, "lessonName": "Bài 2: Components", "videoEmbedUrl": "", "materialUrl": ""},
		},
	})

	// Study rooms
	f.fixtures[ActionGetCurrentUser] = static(map[string]any{
		"success": true,
		"email":   "student@gmail.com",
		"name":    "Test Student",
		"role":    "student",
		"active":  true,
	})
	f.fixtures[ActionGetRooms] = static([]map[string]any{
		{"room_id": "R1", "room_name": "Silent Study", "type": "Focus", "count": 12, "status": "open", "meet_link": "https://meet.google.com/new", "max_cam": 20},
		{"room_id": "R2", "room_name": "Pomodoro Lounge", "type": "Timer", "count": 8, "status": "open", "meet_link": "https://meet.google.com/new", "max_cam": 20},
		{"room_id": "R3", "room_name": "Group Discussion", "type": "Collab", "count": 5, "status": "open", "meet_link": "https://meet.google.com/new", "max_cam": 20},
		{"room_id": "R4", "room_name": "Chill Vibes", "type": "Relax", "count": 20, "status": "open", "meet_link": "https://meet.google.com/new", "max_cam": 20},
	})
	f.fixtures[ActionGetUserStats] = static(map[string]any{
		"success":      true,
		"totalMinutes": 245,
		"sessionCount": 8,
		"sessions":     []any{},
	})
	f.fixtures[ActionJoinRoom] = func(params Params) any {
		roomID, _ := params["roomId"].(string)
		if roomID == "" {
			roomID = "R1"
		}
		return map[string]any{
			"success":   true,
			"sessionId": "S" + uuid.NewString(),
			"meetLink":  "https://meet.google.com/abc-xyz",
			"roomId":    roomID,
		}
	}
	f.fixtures[ActionLeaveRoom] = static(map[string]any{
		"success":  true,
		"duration": 45,
	})
	f.fixtures[ActionGetMessages] = static([]any{})
	f.fixtures[ActionSendMessage] = func(Params) any {
		return map[string]any{
			"success":   true,
			"messageId": "M" + uuid.NewString(),
			"email":     "student@gmail.com",
			"timestamp": f.now().UTC().Format(time.RFC3339Nano),
		}
	}
	f.fixtures[ActionGetSchedule] = func(Params) any {
		today := f.now().Format("2006-01-02")
		return []map[string]any{
			{"EventId": "E1", "Date": today, "StartTime": "08:00", "EndTime": "09:00", "Title": "Toán - Chương 1", "CourseName": "Toán 10", "LessonName": "Bài 1", "RoomId": "R1", "Description": ""},
			{"EventId": "E2", "Date": today, "StartTime": "14:00", "EndTime": "15:00", "Title": "Văn", "CourseName": "Văn 10", "LessonName": "Bài 2", "RoomId": "", "Description": ""},
		}
	}
}
