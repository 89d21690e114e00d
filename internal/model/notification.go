package model

import (
	"strings"
	"time"
)

// NotificationType classifies a notification for display purposes.
type NotificationType string

const (
	NotificationTask     NotificationType = "task"
	NotificationMeeting  NotificationType = "meeting"
	NotificationReminder NotificationType = "reminder"
	NotificationSystem   NotificationType = "system"
	NotificationOther    NotificationType = "other"
)

// NotificationTypes lists every known type in display order.
var NotificationTypes = []NotificationType{
	NotificationTask,
	NotificationMeeting,
	NotificationReminder,
	NotificationSystem,
	NotificationOther,
}

// ParseNotificationType maps a raw string onto the closed set of types.
// Anything unrecognised becomes NotificationOther.
func ParseNotificationType(s string) NotificationType {
	t := NotificationType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return NotificationOther
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTask, NotificationMeeting, NotificationReminder,
		NotificationSystem, NotificationOther:
		return true
	}
	return false
}

// Notification represents an alert surfaced to the user in the
// notification dropdown.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the recipient. Empty for notifications that did not
	// come from the database feed.
	UserID string `json:"user_id,omitempty" db:"user_id"`

	// Type selects the icon used when rendering.
	Type NotificationType `json:"type" db:"type"`

	// Title is the short headline.
	Title string `json:"title" db:"title"`

	// Message is the body text. It may contain markdown.
	Message string `json:"message" db:"message"`

	// Link is an optional navigation target.
	Link string `json:"link,omitempty" db:"link"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"is_read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasLink reports whether the notification points somewhere.
func (n Notification) HasLink() bool {
	return strings.TrimSpace(n.Link) != ""
}
