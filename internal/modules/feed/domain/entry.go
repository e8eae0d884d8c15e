package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	notification "github.com/saransh1220/portal-notify/internal/modules/notification/domain"
)

var (
	ErrEntryNotFound = errors.New("notification not found")
	ErrInvalidChange = errors.New("invalid status change")
)

// TypeApplicationStatus is the only entry type the feed server creates.
const TypeApplicationStatus = "application_status"

// Entry is a stored notification owned by one user.
type Entry struct {
	ID        uuid.UUID  `db:"id"`
	UserID    string     `db:"user_id"`
	Type      string     `db:"type"`
	Icon      string     `db:"icon"`
	Title     string     `db:"title"`
	Message   string     `db:"message"`
	Data      Payload    `db:"data"`
	IsRead    bool       `db:"is_read"`
	CreatedAt time.Time  `db:"created_at"`
	ReadAt    *time.Time `db:"read_at"`
}

// Notification converts the entry to its wire form.
func (e Entry) Notification() notification.Notification {
	return notification.Notification{
		ID:        e.ID.String(),
		Type:      e.Type,
		Icon:      e.Icon,
		Title:     e.Title,
		Message:   e.Message,
		Data:      maps.Clone(map[string]any(e.Data)),
		IsRead:    e.IsRead,
		CreatedAt: notification.Timestamp{Time: e.CreatedAt.UTC()},
	}
}

// Payload is the free-form data object stored as JSONB.
type Payload map[string]any

func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *Payload) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("payload: unsupported type %T", src)
	}
	*p = nil
	return json.Unmarshal(raw, p)
}

// StatusChange is an HR decision on a student's application.
type StatusChange struct {
	UserID        string `json:"user_id"`
	ApplicationID string `json:"application_id"`
	JobTitle      string `json:"job_title"`
	CompanyName   string `json:"company_name"`
	NewStatus     string `json:"new_status"`
	HRReason      string `json:"hr_reason"`
}

func (c StatusChange) Validate() error {
	switch {
	case strings.TrimSpace(c.UserID) == "":
		return fmt.Errorf("%w: user_id is required", ErrInvalidChange)
	case strings.TrimSpace(c.NewStatus) == "":
		return fmt.Errorf("%w: new_status is required", ErrInvalidChange)
	case strings.TrimSpace(c.JobTitle) == "":
		return fmt.Errorf("%w: job_title is required", ErrInvalidChange)
	}
	return nil
}

var statusLabels = map[string]string{
	"accepted":  "ผ่านการคัดเลือก",
	"rejected":  "ไม่ผ่านการคัดเลือก",
	"reviewing": "กำลังพิจารณา",
	"interview": "นัดสัมภาษณ์",
}

var statusIcons = map[string]string{
	"accepted":  "check-circle",
	"rejected":  "x-circle",
	"reviewing": "eye",
	"interview": "calendar",
}

// NewEntry builds the unread notification for a status change.
func NewEntry(c StatusChange, now time.Time) Entry {
	label, ok := statusLabels[c.NewStatus]
	if !ok {
		label = c.NewStatus
	}
	icon, ok := statusIcons[c.NewStatus]
	if !ok {
		icon = "bell"
	}

	var title string
	switch notification.Status(c.NewStatus) {
	case notification.StatusAccepted:
		title = "ยินดีด้วย! คุณผ่านการคัดเลือก"
	case notification.StatusRejected:
		title = "ผลการคัดเลือก"
	default:
		title = "อัปเดตสถานะใบสมัคร"
	}

	return Entry{
		ID:      uuid.New(),
		UserID:  c.UserID,
		Type:    TypeApplicationStatus,
		Icon:    icon,
		Title:   title,
		Message: fmt.Sprintf("ใบสมัคร %s (%s) — %s", c.JobTitle, c.CompanyName, label),
		Data: Payload{
			"application_id": c.ApplicationID,
			"job_title":      c.JobTitle,
			"company_name":   c.CompanyName,
			"new_status":     c.NewStatus,
			"hr_reason":      c.HRReason,
		},
		CreatedAt: now.UTC(),
	}
}

// Repository persists entries per user. ListByUser returns the newest
// first.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}
