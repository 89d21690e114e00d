// Package database delivers notifications from the notifications table.
package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/source"
	"github.com/nhle/taskboard/internal/store"
)

// defaultBatchSize caps how many rows a single fetch reads.
const defaultBatchSize = 100

// Source reads a user's feed rows newer than its cursor.
type Source struct {
	store     store.Store
	userID    string
	batchSize int

	mu     sync.Mutex
	cursor store.Cursor
}

// New creates a database source for the given user.
func New(s store.Store, userID string) *Source {
	return &Source{
		store:     s,
		userID:    userID,
		batchSize: defaultBatchSize,
	}
}

// Type implements source.Source.
func (s *Source) Type() source.SourceType {
	return source.SourceTypeDatabase
}

// ValidateConnection checks that the user exists.
func (s *Source) ValidateConnection(ctx context.Context) (string, error) {
	u, err := s.store.GetUserByID(ctx, s.userID)
	if err != nil {
		return "", fmt.Errorf("validating database source: %w", err)
	}
	return fmt.Sprintf("Connected as %s", u.Email), nil
}

// Fetch returns rows after the cursor and advances it. Rows are returned
// oldest first so they land in the store in creation order.
func (s *Source) Fetch(ctx context.Context) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Notification
	for {
		batch, err := s.store.ListNotificationsSince(ctx, s.userID, s.cursor, s.batchSize)
		if err != nil {
			return out, err
		}
		for _, n := range batch {
			s.cursor = s.cursor.Advance(n)
		}
		out = append(out, batch...)
		if len(batch) < s.batchSize {
			return out, nil
		}
	}
}
