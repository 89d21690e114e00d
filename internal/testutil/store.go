package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateUser inserts a user with the given email and returns its ID.
func CreateUser(t *testing.T, s store.Store, email, name string) string {
	t.Helper()

	id, err := s.CreateUser(context.Background(), model.User{
		Email:    email,
		Name:     name,
		Password: "not-a-real-hash",
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return id
}

// CreateNotification inserts a feed notification for userID at the given
// time and returns its ID.
func CreateNotification(t *testing.T, s store.Store, userID, title string, at time.Time) string {
	t.Helper()

	id, err := s.CreateNotification(context.Background(), model.Notification{
		UserID:    userID,
		Type:      model.NotificationTask,
		Title:     title,
		Message:   "body of " + title,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("creating notification %q: %v", title, err)
	}
	return id
}
