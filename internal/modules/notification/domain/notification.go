package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status is the icon variant a notification is shown with, derived from
// the `new_status` field of its data payload.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusOther    Status = "other"
)

// DataKeyNewStatus is the one payload key the client interprets.
const DataKeyNewStatus = "new_status"

type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"`
	Icon      string         `json:"icon,omitempty"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt Timestamp      `json:"created_at"`
}

// Status reports the icon variant selected by data.new_status.
func (n Notification) Status() Status {
	raw, ok := n.Data[DataKeyNewStatus].(string)
	if !ok {
		return StatusOther
	}
	switch Status(raw) {
	case StatusAccepted, StatusRejected:
		return Status(raw)
	default:
		return StatusOther
	}
}

// Feed is the client-side view of a user's notifications. UnreadCount is
// maintained independently of the IsRead flags in Notifications because the
// server may count unread items outside the fetched page.
type Feed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// EmptyFeed is what callers see when the feed cannot be loaded.
func EmptyFeed() Feed {
	return Feed{Notifications: []Notification{}, UnreadCount: 0}
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMalformedEvent       = errors.New("malformed notification event")
)

// DecodeNotification parses one pushed event body.
func DecodeNotification(payload []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if n.ID == "" {
		return Notification{}, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	return n, nil
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO-8601 form the
// portal backend emits for naive UTC datetimes.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("created_at: unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
