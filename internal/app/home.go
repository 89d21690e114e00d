package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/taskboard/internal/theme"
)

// homeRecent is how many notifications the home screen lists.
const homeRecent = 5

// homeView renders the landing screen: a greeting, the unread summary and
// the most recent notifications.
func (m Model) homeView() string {
	var b strings.Builder

	greeting := fmt.Sprintf("Welcome back, %s", m.deps.User.DisplayName())
	b.WriteString(theme.TitleStyle.Render(greeting))
	b.WriteString("\n")

	switch m.unread {
	case 0:
		b.WriteString(theme.DimmedStyle.Render("No unread notifications."))
	case 1:
		b.WriteString("You have 1 unread notification.")
	default:
		b.WriteString(fmt.Sprintf("You have %d unread notifications.", m.unread))
	}
	b.WriteString("\n\n")

	recent := m.deps.Notifications.Newest(homeRecent)
	if len(recent) > 0 {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Recent"))
		b.WriteString("\n")
		now := time.Now()
		for _, n := range recent {
			marker := " "
			if !n.Read {
				marker = theme.UnreadMarker
			}
			icon := theme.NotificationStyle(n.Type).Render(theme.NotificationIcon(n.Type))
			fmt.Fprintf(&b, "%s %s %s  %s\n", marker, icon, n.Title,
				theme.DimmedStyle.Render(humanize.RelTime(n.CreatedAt, now, "ago", "from now")))
		}
	}

	return theme.ListItemStyle.Render(b.String())
}
