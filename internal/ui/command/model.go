package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	ReadAll Name = "read all"
	Clear   Name = "clear"
	Theme   Name = "theme"
	Refresh Name = "refresh"
	Profile Name = "profile"
	Quit    Name = "quit"
)

// Names lists the palette commands in suggestion order.
var Names = []Name{ReadAll, Clear, Theme, Refresh, Profile, Quit}

var aliases = map[string]Name{
	"read all":      ReadAll,
	"readall":       ReadAll,
	"mark all read": ReadAll,
	"clear":         Clear,
	"theme":         Theme,
	"toggle theme":  Theme,
	"refresh":       Refresh,
	"sync":          Refresh,
	"profile":       Profile,
	"me":            Profile,
	"quit":          Quit,
	"q":             Quit,
}

// Parse maps typed input onto a command name.
func Parse(input string) (Name, bool) {
	n, ok := aliases[strings.Join(strings.Fields(strings.ToLower(input)), " ")]
	return n, ok
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg struct {
	Name Name
}

// UnknownCommandMsg is emitted for input that matches no command.
type UnknownCommandMsg struct {
	Input string
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "read all, clear, theme, refresh, profile, quit"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	suggestions := make([]string, len(Names))
	for i, n := range Names {
		suggestions[i] = string(n)
	}
	ti.SetSuggestions(suggestions)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if raw == "" {
				return m, nil
			}
			if name, ok := Parse(raw); ok {
				return m, func() tea.Msg { return CommandMsg{Name: name} }
			}
			return m, func() tea.Msg { return UnknownCommandMsg{Input: raw} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Command Palette")
	return theme.PanelStyle.
		Width(m.width - 4).
		Render(title + "\n" + m.input.View())
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
