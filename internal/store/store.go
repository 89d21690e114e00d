package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Cursor marks a position in the notifications feed. Rows strictly after
// (CreatedAt, ID) are returned by ListNotificationsSince.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Advance returns the cursor positioned at n if n is later than c.
func (c Cursor) Advance(n model.Notification) Cursor {
	if n.CreatedAt.After(c.CreatedAt) ||
		(n.CreatedAt.Equal(c.CreatedAt) && n.ID > c.ID) {
		return Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	}
	return c
}

// Store defines the persistence interface for users and the
// notifications feed.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, user model.User) (string, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	RecordLogin(ctx context.Context, id string) error
	SetOnline(ctx context.Context, id string, online bool) error

	// === Notifications feed ===

	CreateNotification(ctx context.Context, n model.Notification) (string, error)
	ListNotificationsSince(ctx context.Context, userID string, after Cursor, limit int) ([]model.Notification, error)
}
