// Package profile renders the profile menu for the signed-in user.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// CloseMsg asks the parent to close the menu.
type CloseMsg struct{}

// ToggleThemeMsg asks the parent to switch between dark and light.
type ToggleThemeMsg struct{}

// RefreshMsg asks the parent to poll every source now.
type RefreshMsg struct{}

// SignOutMsg asks the parent to mark the user offline and quit.
type SignOutMsg struct{}

type menuItem struct {
	label string
	msg   tea.Msg
}

var menu = []menuItem{
	{label: "Toggle theme", msg: ToggleThemeMsg{}},
	{label: "Refresh notifications", msg: RefreshMsg{}},
	{label: "Sign out", msg: SignOutMsg{}},
}

// Model is the profile menu.
type Model struct {
	user   *model.User
	keys   *keys.KeyMap
	cursor int
	width  int
	height int
	now    func() time.Time
}

// New creates a profile menu. user may be nil.
func New(user *model.User, k *keys.KeyMap, width, height int) Model {
	return Model{
		user:   user,
		keys:   k,
		width:  width,
		height: height,
		now:    time.Now,
	}
}

// SetUser replaces the displayed user.
func (m *Model) SetUser(user *model.User) {
	m.user = user
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(menu)

	case key.Matches(keyMsg, m.keys.Up):
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(menu) - 1
		}

	case keyMsg.String() == "enter":
		out := menu[m.cursor].msg
		return m, func() tea.Msg { return out }
	}
	return m, nil
}

// View renders the menu.
func (m Model) View() string {
	var b strings.Builder

	avatar := theme.HeaderStyle.Render(m.user.Initials())
	name := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(m.user.DisplayName())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, avatar, " ", name))
	b.WriteString("\n\n")

	label := theme.DimmedStyle
	if m.user != nil {
		presence := theme.DimmedStyle.Render("○ offline")
		if m.user.IsOnline {
			presence = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("● online")
		}
		fmt.Fprintf(&b, "%s %s\n", label.Render("Email:  "), m.user.Email)
		fmt.Fprintf(&b, "%s %s\n", label.Render("Role:   "), m.user.Role)
		fmt.Fprintf(&b, "%s %s  %s\n", label.Render("Status: "), theme.StatusStyle(m.user.Status).Render(m.user.Status), presence)
		fmt.Fprintf(&b, "%s %s\n", label.Render("Logins: "), humanize.Comma(int64(m.user.LoginCount)))
		if !m.user.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "%s %s\n", label.Render("Joined: "), humanize.RelTime(m.user.CreatedAt, m.now(), "ago", "from now"))
		}
	} else {
		b.WriteString(theme.DimmedStyle.Italic(true).Render("Not signed in"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range menu {
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(item.label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(item.label))
		}
		b.WriteString("\n")
	}

	w := m.width - 4
	if w > 48 {
		w = 48
	}
	return theme.PanelStyle.Width(w).Render(b.String())
}

// SetSize updates the menu dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
