package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/source"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/testutil"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui/command"
	"github.com/nhle/taskboard/internal/ui/notifications"
)

func newModel(t *testing.T, d Deps) Model {
	t.Helper()
	logger, _ := test.NewNullLogger()
	if d.Notifications == nil {
		d.Notifications = notify.New()
	}
	if d.Poller == nil {
		d.Poller = appsync.New(d.Notifications, "", logger)
	}
	d.Log = logger
	m := New(d)
	t.Cleanup(m.unsubscribe)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavigationSwapsViews(t *testing.T) {
	m := newModel(t, Deps{})
	assert.Equal(t, ViewHome, m.currentView)
	assert.Contains(t, m.View(), "Welcome back, User")

	m, _ = send(m, keyPress("n"))
	assert.Equal(t, ViewNotifications, m.currentView)

	m, cmd := send(m, keyPress("esc"))
	require.NotNil(t, cmd)
	m, _ = send(m, cmd())
	assert.Equal(t, ViewHome, m.currentView)

	m, _ = send(m, keyPress("p"))
	assert.Equal(t, ViewProfile, m.currentView)

	m, _ = send(m, keyPress("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	m, _ = send(m, keyPress("?"))
	assert.Equal(t, ViewProfile, m.currentView)
}

func TestSnapshotUpdatesBadge(t *testing.T) {
	store := notify.New()
	m := newModel(t, Deps{Notifications: store})

	store.Add(model.Notification{Title: "one"}, model.Notification{Title: "two"})
	snap := <-m.snapshots

	m, cmd := send(m, snapshotMsg(snap))
	assert.NotNil(t, cmd, "keeps listening")
	assert.Equal(t, 2, m.unread)
	assert.Contains(t, m.View(), "2 unread notifications")
}

func TestCommandPaletteReadAllAndClear(t *testing.T) {
	store := notify.New()
	store.Add(model.Notification{Title: "a"}, model.Notification{Title: "b"})
	m := newModel(t, Deps{Notifications: store})

	m, _ = send(m, keyPress(":"))
	assert.Equal(t, ViewCommand, m.currentView)

	m, _ = send(m, command.CommandMsg{Name: command.ReadAll})
	assert.Equal(t, ViewHome, m.currentView)
	assert.Zero(t, store.UnreadCount())
	assert.Equal(t, "marked 2 as read", m.statusMsg)

	m, _ = send(m, command.CommandMsg{Name: command.Clear})
	assert.Zero(t, store.Len())

	m, _ = send(m, command.UnknownCommandMsg{Input: "dance"})
	assert.Contains(t, m.keyHints(), "unknown command: dance")
}

func TestPreviewReturnsToDropdown(t *testing.T) {
	store := notify.New()
	store.Add(model.Notification{ID: "x", Title: "Linked", Link: "https://example.com"})
	m := newModel(t, Deps{Notifications: store})

	m, _ = send(m, keyPress("n"))
	m, cmd := send(m, keyPress("enter"))
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, notifications.PreviewMsg{}, msg)

	m, _ = send(m, msg)
	assert.Equal(t, ViewPreview, m.currentView)
	assert.Zero(t, store.UnreadCount())

	m, cmd = send(m, keyPress("esc"))
	m, _ = send(m, cmd())
	assert.Equal(t, ViewNotifications, m.currentView)
}

func TestThemeToggleIsPersisted(t *testing.T) {
	var saved []theme.Mode
	m := newModel(t, Deps{
		Theme: theme.Dark,
		OnThemeChange: func(mode theme.Mode) error {
			saved = append(saved, mode)
			return errors.New("read-only config")
		},
	})
	t.Cleanup(func() { theme.Apply(theme.Dark) })

	m, cmd := send(m, keyPress("t"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, theme.Light, m.mode)
	assert.Equal(t, []theme.Mode{theme.Light}, saved)
}

func TestSyncResultSetsStatus(t *testing.T) {
	m := newModel(t, Deps{})

	m, _ = send(m, appsync.SyncResultMsg{SourceID: "mail", Added: 3})
	assert.Equal(t, "3 new from mail", m.statusMsg)

	m, _ = send(m, appsync.SyncResultMsg{SourceID: "mail", AuthError: &appsync.AuthErrorMsg{Message: "mail: authentication failed"}})
	assert.Equal(t, "mail: authentication failed", m.statusMsg)
}

func TestLoginAndSignOffUpdatePresence(t *testing.T) {
	s := testutil.NewTestStore(t)
	id := testutil.CreateUser(t, s, "ada@example.com", "Ada")
	user, err := s.GetUserByID(context.Background(), id)
	require.NoError(t, err)

	m := newModel(t, Deps{Users: s, User: user})

	login := m.recordLogin()
	require.NotNil(t, login)
	m, _ = send(m, login())
	assert.True(t, m.deps.User.IsOnline)
	assert.Equal(t, 1, m.deps.User.LoginCount)

	signOff := m.signOff()
	require.NotNil(t, signOff)
	signOff()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fresh, err := s.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, fresh.IsOnline)
}

type closingSource struct {
	mu     sync.Mutex
	closed bool
}

func (s *closingSource) Type() source.SourceType { return source.SourceTypeRedis }

func (s *closingSource) ValidateConnection(context.Context) (string, error) { return "ok", nil }

func (s *closingSource) Fetch(context.Context) ([]model.Notification, error) { return nil, nil }

func (s *closingSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *closingSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestQuitStopsPollerOutsideUpdate(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := notify.New()
	poller := appsync.New(store, "@every 1h", logger)
	src := &closingSource{}
	require.NoError(t, poller.RegisterSource(src, model.SourceConfig{ID: "redis"}))
	require.NotNil(t, poller.Start())

	m := newModel(t, Deps{Notifications: store, Poller: poller})

	_, cmd := send(m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.False(t, src.isClosed(), "update returns before the poller stops")

	m.stopPolling()()
	assert.True(t, src.isClosed())
}
