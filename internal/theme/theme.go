package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Mode selects which half of the adaptive palette is used.
type Mode string

const (
	Dark  Mode = "dark"
	Light Mode = "light"
)

// ParseMode maps a config value onto a Mode. Anything but "light" is dark.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(Light)) {
		return Light
	}
	return Dark
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Light {
		return Dark
	}
	return Light
}

// Apply switches lipgloss' adaptive colors to the given mode. Styles
// resolve their colors at render time, so the next frame picks it up.
func Apply(m Mode) {
	lipgloss.SetHasDarkBackground(m != Light)
}

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps dropdowns, menus and the preview.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TitleStyle is used for panel titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// DimmedStyle renders read notifications and secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BadgeStyle renders the unread count next to the bell.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

// UnreadMarker prefixes unread notifications.
var UnreadMarker = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Render("●")

// NotificationIcon returns the glyph shown for a notification type.
func NotificationIcon(t model.NotificationType) string {
	switch t {
	case model.NotificationTask:
		return "✔"
	case model.NotificationMeeting:
		return "◷"
	case model.NotificationReminder:
		return "⏰"
	case model.NotificationSystem:
		return "⚙"
	default:
		return "•"
	}
}

// NotificationStyle returns a color-coded style for the given notification type.
func NotificationStyle(t model.NotificationType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch t {
	case model.NotificationTask:
		return base.Foreground(ColorBlue)
	case model.NotificationMeeting:
		return base.Foreground(ColorMagenta)
	case model.NotificationReminder:
		return base.Foreground(ColorYellow)
	case model.NotificationSystem:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGray)
	}
}

// StatusStyle returns a color-coded style for a user status.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch status {
	case model.UserStatusActive:
		return base.Foreground(ColorGreen)
	case model.UserStatusSuspended:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
