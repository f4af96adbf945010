package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultMessageLimit is the number of messages fetched per poll
const DefaultMessageLimit = 50

// Message represents a chat line posted in a room
type Message struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Message   string    `json:"message"`
	Timestamp Timestamp `json:"timestamp"`
}

// SendResult is the response of the sendMessage action
type SendResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Email     string    `json:"email,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// Timestamp accepts the time formats the backend emits: ISO strings,
// sheet-style "2006-01-02 15:04:05" strings and epoch milliseconds
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` || raw == "" {
		t.Time = time.Time{}
		return nil
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Spreadsheet backends may serialise epochs as floats
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("invalid timestamp %s: %w", raw, err)
			}
			ms = int64(f)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	s, err := strconv.Unquote(raw)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", raw, err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp format %q", s)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format(time.RFC3339Nano))), nil
}
