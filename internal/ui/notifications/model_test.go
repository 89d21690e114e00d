package notifications

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
)

func TestBadge(t *testing.T) {
	assert.Equal(t, "", Badge(0))
	assert.Equal(t, "", Badge(-3))
	assert.Equal(t, "7", Badge(7))
	assert.Equal(t, "99", Badge(99))
	assert.Equal(t, "99+", Badge(100))
}

func seeded(t *testing.T) (Model, *notify.Store) {
	t.Helper()
	s := notify.New()
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	s.Add(
		model.Notification{ID: "1", Type: model.NotificationTask, Title: "Old task", CreatedAt: base},
		model.Notification{ID: "2", Type: model.NotificationMeeting, Title: "Meeting", CreatedAt: base.Add(time.Minute), Link: "https://meet.example.com"},
		model.Notification{ID: "3", Type: model.NotificationSystem, Title: "Newest", Message: "line one\nline two", CreatedAt: base.Add(2 * time.Minute)},
	)
	m := New(s, keys.DefaultKeyMap(), 80, 40)
	m.now = func() time.Time { return base.Add(time.Hour) }
	return m, s
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return m.Update(msg)
}

func TestNewestFirstAndSelectMarksRead(t *testing.T) {
	m, s := seeded(t)

	n, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "3", n.ID)

	m, cmd := press(m, "enter")
	assert.Nil(t, cmd, "no link, no preview")
	assert.Equal(t, 2, s.UnreadCount())

	m, _ = press(m, "enter")
	assert.Equal(t, 2, s.UnreadCount(), "marking twice is a no-op")

	m, _ = press(m, "j")
	m, cmd = press(m, "enter")
	require.NotNil(t, cmd)
	msg, ok := cmd().(PreviewMsg)
	require.True(t, ok)
	assert.Equal(t, "2", msg.Notification.ID)
	assert.True(t, msg.Notification.Read)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestCursorWraps(t *testing.T) {
	m, _ := seeded(t)

	m, _ = press(m, "k")
	n, _ := m.Selected()
	assert.Equal(t, "1", n.ID)

	m, _ = press(m, "j")
	n, _ = m.Selected()
	assert.Equal(t, "3", n.ID)
}

func TestMarkAllAndClear(t *testing.T) {
	m, s := seeded(t)

	m, _ = press(m, "m")
	assert.Zero(t, s.UnreadCount())
	assert.Equal(t, 3, s.Len())

	m, cmd := press(m, "X")
	assert.True(t, m.Confirming())
	_ = cmd

	m.finishClear(false)
	assert.False(t, m.Confirming())
	assert.Equal(t, 3, s.Len())

	m, _ = press(m, "X")
	require.True(t, m.Confirming())
	m.finishClear(true)
	assert.Zero(t, s.Len())
	_, ok := m.Selected()
	assert.False(t, ok)

	m, _ = press(m, "X")
	assert.False(t, m.Confirming(), "nothing to clear")
	assert.Contains(t, m.View(), "all caught up")
}

func TestEscCancelsConfirmThenCloses(t *testing.T) {
	m, s := seeded(t)

	m, _ = press(m, "X")
	require.True(t, m.Confirming())
	m, cmd := press(m, "esc")
	assert.False(t, m.Confirming())
	assert.Nil(t, cmd)
	assert.Equal(t, 3, s.Len())

	_, cmd = press(m, "esc")
	require.NotNil(t, cmd)
	assert.IsType(t, CloseMsg{}, cmd())
}

func TestViewShowsUnreadAndRelativeTime(t *testing.T) {
	m, _ := seeded(t)

	out := m.View()
	assert.Contains(t, out, "3 unread")
	assert.Contains(t, out, "Newest")
	assert.Contains(t, out, "line one")
	assert.False(t, strings.Contains(out, "line two"))
	assert.Contains(t, out, "ago")
}
