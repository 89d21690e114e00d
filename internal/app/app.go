package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/store"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/internal/ui/command"
	helpview "github.com/nhle/taskboard/internal/ui/help"
	"github.com/nhle/taskboard/internal/ui/notifications"
	"github.com/nhle/taskboard/internal/ui/preview"
	"github.com/nhle/taskboard/internal/ui/profile"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHome ViewState = iota
	ViewNotifications
	ViewProfile
	ViewPreview
	ViewHelp
	ViewCommand
)

// Deps holds everything the root model needs. Users and User may be nil
// when no database is configured.
type Deps struct {
	Notifications *notify.Store
	Poller        *appsync.Poller
	Users         store.Store
	User          *model.User
	Log           logrus.FieldLogger
	Theme         theme.Mode

	// OnThemeChange, when set, is called after the theme is toggled so
	// the choice can be persisted.
	OnThemeChange func(theme.Mode) error
}

// Model is the root Bubble Tea model that manages view routing and
// layout. Navigation only swaps the active view; nothing is reloaded.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	deps         Deps

	notifications notifications.Model
	profile       profile.Model
	preview       preview.Model
	helpView      helpview.Model
	commandView   command.Model

	snapshots   <-chan notify.Snapshot
	unsubscribe func()
	unread      int

	mode      theme.Mode
	ready     bool
	statusMsg string
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	theme.Apply(d.Theme)

	snapshots, unsubscribe := d.Notifications.Subscribe()

	return Model{
		currentView:   ViewHome,
		keys:          k,
		deps:          d,
		notifications: notifications.New(d.Notifications, k, 80, 24),
		profile:       profile.New(d.User, k, 80, 24),
		preview:       preview.New(k, d.Theme, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		snapshots:     snapshots,
		unsubscribe:   unsubscribe,
		unread:        d.Notifications.UnreadCount(),
		mode:          d.Theme,
	}
}

// Init starts polling, listens for store changes and records the login.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.deps.Poller.Start(),
		waitForSnapshot(m.snapshots),
		m.recordLogin(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.notifications.SetSize(w, h)
		m.profile.SetSize(w, h)
		m.preview.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case snapshotMsg:
		m.unread = msg.UnreadCount
		m.notifications.Refresh()
		return m, waitForSnapshot(m.snapshots)

	case appsync.SyncResultMsg:
		switch {
		case msg.AuthError != nil:
			m.statusMsg = msg.AuthError.Message
		case msg.Error != nil:
			m.statusMsg = fmt.Sprintf("%s: %v", msg.SourceID, msg.Error)
		case msg.Added > 0:
			m.statusMsg = fmt.Sprintf("%d new from %s", msg.Added, msg.SourceID)
		}
		return m, m.deps.Poller.WaitForNextResult()

	case presenceMsg:
		if msg.err != nil {
			m.deps.Log.WithError(msg.err).Warn("updating presence")
		}
		if msg.user != nil {
			m.deps.User = msg.user
			m.profile.SetUser(msg.user)
		}
		return m, nil

	case notifications.CloseMsg:
		m.currentView = ViewHome
		return m, nil

	case notifications.PreviewMsg:
		m.preview.SetNotification(msg.Notification)
		m.previousView = m.currentView
		m.currentView = ViewPreview
		return m, nil

	case preview.BackMsg:
		m.currentView = m.previousView
		return m, nil

	case profile.CloseMsg:
		m.currentView = ViewHome
		return m, nil

	case profile.ToggleThemeMsg:
		return m, m.toggleTheme()

	case profile.RefreshMsg:
		m.statusMsg = "refreshing..."
		return m, m.deps.Poller.RefreshAll()

	case profile.SignOutMsg:
		return m, m.quit()

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg.Name)

	case command.UnknownCommandMsg:
		m.currentView = m.previousView
		m.statusMsg = fmt.Sprintf("unknown command: %s", msg.Input)
		return m, nil

	case tea.KeyMsg:
		if m.notifications.Confirming() {
			break
		}

		// Global keys that work regardless of current view
		switch {
		case msg.String() == "ctrl+c":
			return m, m.quit()

		case key.Matches(msg, m.keys.Quit) && m.currentView == ViewHome:
			return m, m.quit()

		case key.Matches(msg, m.keys.Help) && m.currentView != ViewCommand:
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command) && m.currentView != ViewCommand:
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case m.currentView == ViewCommand && msg.String() == "esc":
			m.currentView = m.previousView
			return m, nil

		case m.currentView == ViewHelp && msg.String() == "esc":
			m.currentView = m.previousView
			return m, nil
		}

		if m.currentView == ViewHome {
			switch {
			case key.Matches(msg, m.keys.Notifications):
				m.notifications.Refresh()
				m.currentView = ViewNotifications
				return m, nil
			case key.Matches(msg, m.keys.Profile):
				m.currentView = ViewProfile
				return m, nil
			case key.Matches(msg, m.keys.Theme):
				return m, m.toggleTheme()
			case key.Matches(msg, m.keys.Refresh):
				m.statusMsg = "refreshing..."
				return m, m.deps.Poller.RefreshAll()
			case key.Matches(msg, m.keys.MarkAllRead):
				return m, m.executeCommand(command.ReadAll)
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewProfile:
		m.profile, cmd = m.profile.Update(msg)
	case ViewPreview:
		m.preview, cmd = m.preview.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("taskboard", m.syncStatus(), m.deps.User.DisplayName(), m.unread)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewNotifications:
		return m.notifications.View()
	case ViewProfile:
		return m.profile.View()
	case ViewPreview:
		return m.preview.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return m.homeView()
	}
}

// syncStatus returns a short string describing the combined sync state.
func (m Model) syncStatus() string {
	statuses := m.deps.Poller.GetStatuses()
	if len(statuses) == 0 {
		return "no sources"
	}

	running := 0
	var failing []string
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failing = append(failing, s.SourceID)
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if len(failing) > 0 {
		return "⚠ unreachable: " + strings.Join(failing, ", ")
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && m.currentView == ViewHome {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewNotifications:
		return "enter read | v preview | m mark all | X clear | esc close"
	case ViewProfile:
		return "enter select | j/k move | esc close"
	case ViewPreview:
		return "j/k scroll | esc back"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	default:
		return "n notifications | p profile | m mark all | t theme | r refresh | : command | ? help | q quit"
	}
}

// executeCommand handles a command from the palette.
func (m *Model) executeCommand(name command.Name) tea.Cmd {
	switch name {
	case command.ReadAll:
		n := m.deps.Notifications.MarkAllAsRead()
		m.statusMsg = fmt.Sprintf("marked %d as read", n)
		m.notifications.Refresh()
		return nil
	case command.Clear:
		m.deps.Notifications.ClearNotifications()
		m.statusMsg = "notifications cleared"
		m.notifications.Refresh()
		return nil
	case command.Theme:
		return m.toggleTheme()
	case command.Refresh:
		m.statusMsg = "refreshing..."
		return m.deps.Poller.RefreshAll()
	case command.Profile:
		m.currentView = ViewProfile
		return nil
	case command.Quit:
		return m.quit()
	default:
		return nil
	}
}

// toggleTheme flips dark/light and persists the choice when possible.
func (m *Model) toggleTheme() tea.Cmd {
	m.mode = m.mode.Toggle()
	theme.Apply(m.mode)
	m.preview.SetMode(m.mode)
	m.statusMsg = fmt.Sprintf("theme: %s", m.mode)

	if m.deps.OnThemeChange == nil {
		return nil
	}
	save, mode, log := m.deps.OnThemeChange, m.mode, m.deps.Log
	return func() tea.Msg {
		if err := save(mode); err != nil {
			log.WithError(err).Warn("saving theme")
		}
		return nil
	}
}

// quit stops polling, marks the user offline and exits. Stopping waits
// for in-flight fetches, so it runs as a command off the update loop.
func (m *Model) quit() tea.Cmd {
	m.unsubscribe()
	return tea.Sequence(m.stopPolling(), m.signOff(), tea.Quit)
}
