// Package notifications renders the bell dropdown listing the session's
// notifications, newest first.
package notifications

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/theme"
)

// badgeCap is the largest count shown on the badge before it reads "99+".
const badgeCap = 99

// CloseMsg asks the parent to close the dropdown.
type CloseMsg struct{}

// PreviewMsg asks the parent to show a notification in the preview pane.
type PreviewMsg struct {
	Notification model.Notification
}

// Model is the notification dropdown.
type Model struct {
	store  *notify.Store
	keys   *keys.KeyMap
	items  []model.Notification
	cursor int

	confirm     *huh.Form
	clearAnswer *bool

	width, height int
	now           func() time.Time
}

// New creates a dropdown backed by s.
func New(s *notify.Store, k *keys.KeyMap, width, height int) Model {
	m := Model{
		store:  s,
		keys:   k,
		width:  width,
		height: height,
		now:    time.Now,
	}
	m.Refresh()
	return m
}

// Badge renders the unread count for the bell icon: empty at zero and
// capped at "99+".
func Badge(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > badgeCap:
		return strconv.Itoa(badgeCap) + "+"
	default:
		return strconv.Itoa(count)
	}
}

// Refresh reloads the list from the store, keeping the cursor in range.
func (m *Model) Refresh() {
	m.items = m.store.Newest(0)
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Confirming reports whether the clear confirmation is showing.
func (m Model) Confirming() bool {
	return m.confirm != nil
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	if len(m.items) == 0 {
		return model.Notification{}, false
	}
	return m.items[m.cursor], true
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the dropdown.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.items) > 0 {
			m.cursor = (m.cursor + 1) % len(m.items)
		}

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.items) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.items) - 1
			}
		}

	case key.Matches(keyMsg, m.keys.Select):
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.store.MarkAsRead(n.ID)
		m.Refresh()
		if n.HasLink() {
			n.Read = true
			return m, preview(n)
		}

	case key.Matches(keyMsg, m.keys.Preview):
		if n, ok := m.Selected(); ok {
			return m, preview(n)
		}

	case key.Matches(keyMsg, m.keys.MarkAllRead):
		m.store.MarkAllAsRead()
		m.Refresh()

	case key.Matches(keyMsg, m.keys.Clear):
		if len(m.items) == 0 {
			return m, nil
		}
		m.clearAnswer = new(bool)
		m.confirm = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Clear all %d notifications?", len(m.items))).
					Affirmative("Clear").
					Negative("Cancel").
					Value(m.clearAnswer),
			),
		).WithShowHelp(false)
		return m, m.confirm.Init()
	}

	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
		m.confirm = nil
		return m, nil
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		m.finishClear(*m.clearAnswer)
		return m, nil
	case huh.StateAborted:
		m.finishClear(false)
		return m, nil
	}
	return m, cmd
}

// finishClear closes the confirmation and clears the store when confirmed.
func (m *Model) finishClear(confirmed bool) {
	m.confirm = nil
	m.clearAnswer = nil
	if confirmed {
		m.store.ClearNotifications()
		m.cursor = 0
	}
	m.Refresh()
}

func preview(n model.Notification) tea.Cmd {
	return func() tea.Msg { return PreviewMsg{Notification: n} }
}

// View renders the dropdown.
func (m Model) View() string {
	if m.confirm != nil {
		return theme.PanelStyle.Width(m.panelWidth()).Render(m.confirm.View())
	}

	unread := m.store.UnreadCount()
	title := "Notifications"
	if unread > 0 {
		title = fmt.Sprintf("Notifications · %d unread", unread)
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(theme.DimmedStyle.Italic(true).Render("You're all caught up."))
		return theme.PanelStyle.Width(m.panelWidth()).Render(b.String())
	}

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		b.WriteString(m.renderItem(m.items[i], i == m.cursor))
		b.WriteString("\n")
	}
	if hidden := len(m.items) - (end - start); hidden > 0 {
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("%d more", hidden)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter read · v preview · m mark all · X clear · esc close"))

	return theme.PanelStyle.Width(m.panelWidth()).Render(b.String())
}

func (m Model) renderItem(n model.Notification, selected bool) string {
	marker := " "
	if !n.Read {
		marker = theme.UnreadMarker
	}
	icon := theme.NotificationStyle(n.Type).Render(theme.NotificationIcon(n.Type))
	when := humanize.RelTime(n.CreatedAt, m.now(), "ago", "from now")

	titleStyle := lipgloss.NewStyle().Bold(!n.Read)
	if n.Read {
		titleStyle = theme.DimmedStyle
	}

	line := fmt.Sprintf("%s %s %s  %s", marker, icon, titleStyle.Render(n.Title), theme.DimmedStyle.Render(when))
	if summary := firstLine(n.Message); summary != "" {
		line += "\n    " + theme.DimmedStyle.Render(truncate(summary, m.panelWidth()-8))
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// visibleRange returns the window of items that fits, keeping the cursor
// on screen. Each item takes two lines.
func (m Model) visibleRange() (int, int) {
	rows := (m.height - 8) / 2
	if rows < 1 {
		rows = 1
	}
	if len(m.items) <= rows {
		return 0, len(m.items)
	}
	start := m.cursor - rows + 1
	if start < 0 {
		start = 0
	}
	return start, start + rows
}

func (m Model) panelWidth() int {
	w := m.width - 4
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// SetSize updates the dropdown dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 1 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
