package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
)

func TestEncodeDecodeKeepsFields(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC)
	body, err := encode(model.Notification{
		ID:        "42",
		Type:      model.NotificationReminder,
		Title:     "Stand-up",
		Message:   "In 5 minutes",
		Link:      "https://meet.example.com/x",
		CreatedAt: at,
	})
	require.NoError(t, err)

	n, err := decode(body)
	require.NoError(t, err)
	assert.Equal(t, "redis:42", n.ID)
	assert.Equal(t, model.NotificationReminder, n.Type)
	assert.Equal(t, "Stand-up", n.Title)
	assert.Equal(t, "https://meet.example.com/x", n.Link)
	assert.True(t, n.CreatedAt.Equal(at))
	assert.False(t, n.Read)
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	_, err := decode([]byte("not json"))
	assert.Error(t, err)

	_, err = decode([]byte(`{"type":"task"}`))
	assert.Error(t, err)

	n, err := decode([]byte(`{"type":"webinar","title":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, model.NotificationOther, n.Type)
	assert.Empty(t, n.ID)
}

func TestPushDropsOldestWhenFull(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(nil, "u1", logger)

	for i := 0; i < maxBuffered+3; i++ {
		s.push(model.Notification{Title: "n", Message: string(rune('a' + i%26))})
	}
	assert.Len(t, s.buf, maxBuffered)
	assert.Equal(t, 3, s.dropped)
	assert.Equal(t, "d", s.buf[0].Message)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "taskboard:notifications:u1", Channel("u1"))
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, isAuthFailure(errors.New("NOAUTH Authentication required.")))
	assert.True(t, isAuthFailure(errors.New("WRONGPASS invalid username-password pair")))
	assert.False(t, isAuthFailure(errors.New("dial tcp: connection refused")))
}

func TestDrainedBufferIsNotDeliveredAgainAfterClear(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(nil, "u1", logger)
	s.cancel = func() {} // subscriber already running

	store := notify.New()
	s.push(model.Notification{ID: "redis:1", Title: "build failed"})
	s.push(model.Notification{ID: "redis:2", Title: "review requested"})

	batch, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Add(batch...))

	store.ClearNotifications()

	batch, err = s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Zero(t, store.Add(batch...))
	assert.Zero(t, store.Len())

	s.push(model.Notification{ID: "redis:3", Title: "deploy done"})
	batch, err = s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Add(batch...))
	assert.Equal(t, "deploy done", store.List()[0].Title)
}
