// Package preview renders notification bodies as markdown in a scrollable
// viewport.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// BackMsg signals the parent to close the preview.
type BackMsg struct{}

// Model is the markdown preview pane.
type Model struct {
	viewport     viewport.Model
	keys         *keys.KeyMap
	mode         theme.Mode
	notification *model.Notification
	width        int
	height       int
}

// New creates a preview pane.
func New(k *keys.KeyMap, mode theme.Mode, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		mode:     mode,
		width:    width,
		height:   height,
	}
}

// Render turns markdown into styled terminal output wrapped at width.
func Render(md string, width int, mode theme.Mode) (string, error) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(string(mode)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// Markdown builds the document shown for a notification.
func Markdown(n model.Notification, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	fmt.Fprintf(&b, "_%s · %s_\n\n", n.Type, humanize.RelTime(n.CreatedAt, now, "ago", "from now"))
	if body := strings.TrimSpace(n.Message); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	if n.HasLink() {
		fmt.Fprintf(&b, "---\n\n[Open link](%s)\n", n.Link)
	}
	return b.String()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the preview.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the preview.
func (m Model) View() string {
	if m.notification == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing to preview")
	}
	return m.viewport.View()
}

// SetNotification shows n and scrolls to the top.
func (m *Model) SetNotification(n model.Notification) {
	m.notification = &n
	m.render()
	m.viewport.GotoTop()
}

// SetMode switches the markdown style between dark and light.
func (m *Model) SetMode(mode theme.Mode) {
	m.mode = mode
	m.render()
}

// SetSize updates the preview dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.render()
}

func (m *Model) render() {
	if m.notification == nil {
		return
	}
	md := Markdown(*m.notification, time.Now())
	out, err := Render(md, m.width-4, m.mode)
	if err != nil {
		// Fall back to the raw markdown.
		out = md
	}
	m.viewport.SetContent(out)
}
