package models

const (
	// DefaultMaxCam is the camera limit suggested for new rooms
	DefaultMaxCam = 20
	// UnboundedMaxCam is assumed for rooms the backend reports without a limit
	UnboundedMaxCam = 999

	JoinLabelOpen = "Tham gia"
	JoinLabelFull = "Đã đầy"
)

// Room represents a virtual study room as reported by the backend
type Room struct {
	ID       string `json:"room_id"`
	Name     string `json:"room_name"`
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Status   string `json:"status"`
	MeetLink string `json:"meet_link"`
	MaxCam   int    `json:"max_cam,omitempty"`
}

// Capacity returns the occupancy limit, treating a missing max_cam as unbounded
func (r *Room) Capacity() int {
	if r.MaxCam <= 0 {
		return UnboundedMaxCam
	}
	return r.MaxCam
}

// IsFull returns true if the room has reached its camera limit
func (r *Room) IsFull() bool {
	return r.Count >= r.Capacity()
}

// JoinLabel returns the label of the join control for this room
func (r *Room) JoinLabel() string {
	if r.IsFull() {
		return JoinLabelFull
	}
	return JoinLabelOpen
}

// OnlineCount returns the number of users across all rooms
func OnlineCount(rooms []Room) int {
	total := 0
	for _, r := range rooms {
		total += r.Count
	}
	return total
}

// FindRoom returns the room with the given ID, or nil
func FindRoom(rooms []Room, id string) *Room {
	for i := range rooms {
		if rooms[i].ID == id {
			room := rooms[i]
			return &room
		}
	}
	return nil
}

// RoomInput holds the fields of the add/edit room form
type RoomInput struct {
	RoomID   string `json:"room_id,omitempty"`
	Name     string `json:"room_name"`
	MeetLink string `json:"meet_link"`
	MaxCam   int    `json:"max_cam"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Email    string `json:"email,omitempty"`
}

// NewRoomInput returns a form pre-filled with the defaults used for new rooms
func NewRoomInput() RoomInput {
	return RoomInput{
		MeetLink: "https://meet.google.com/new",
		MaxCam:   DefaultMaxCam,
		Type:     "Focus",
		Status:   "open",
	}
}

// EditRoomInput returns a form pre-filled from an existing room
func EditRoomInput(r Room) RoomInput {
	in := RoomInput{
		RoomID:   r.ID,
		Name:     r.Name,
		MeetLink: r.MeetLink,
		MaxCam:   r.MaxCam,
		Type:     r.Type,
		Status:   r.Status,
	}
	if in.MaxCam <= 0 {
		in.MaxCam = DefaultMaxCam
	}
	if in.Type == "" {
		in.Type = "Focus"
	}
	if in.Status == "" {
		in.Status = "open"
	}
	return in
}
