package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
)

// presenceTimeout bounds the login and sign-off database updates.
const presenceTimeout = 5 * time.Second

// snapshotMsg carries a store change to the UI.
type snapshotMsg notify.Snapshot

// presenceMsg reports the result of a presence update.
type presenceMsg struct {
	user *model.User
	err  error
}

// waitForSnapshot returns a tea.Cmd that waits for the next store change.
// It returns nil once the subscription is closed.
func waitForSnapshot(ch <-chan notify.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// recordLogin bumps the login counter, marks the user online and reloads
// the row so the profile menu shows fresh values.
func (m Model) recordLogin() tea.Cmd {
	users, user := m.deps.Users, m.deps.User
	if users == nil || user == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()

		if err := users.RecordLogin(ctx, user.ID); err != nil {
			return presenceMsg{err: err}
		}
		fresh, err := users.GetUserByID(ctx, user.ID)
		return presenceMsg{user: fresh, err: err}
	}
}

// signOff marks the user offline.
func (m Model) signOff() tea.Cmd {
	users, user, log := m.deps.Users, m.deps.User, m.deps.Log
	if users == nil || user == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()

		if err := users.SetOnline(ctx, user.ID, false); err != nil {
			log.WithError(err).Warn("marking user offline")
		}
		return nil
	}
}

// stopPolling stops the scheduler and closes the sources.
func (m Model) stopPolling() tea.Cmd {
	poller := m.deps.Poller
	return func() tea.Msg {
		poller.Stop()
		return nil
	}
}
