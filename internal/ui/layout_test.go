package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeight(t *testing.T) {
	l := NewLayout(100, 30)
	assert.Equal(t, 28, l.ContentHeight())
	assert.Equal(t, 100, l.ContentWidth())
}

func TestBellShowsBadge(t *testing.T) {
	assert.NotContains(t, Bell(0), "0")
	assert.Contains(t, Bell(4), "4")
	assert.Contains(t, Bell(250), "99+")
}

func TestRenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(80, 24)
	header := l.RenderHeader("taskboard", "idle", "Ada", 3)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(header), "taskboard"))
	assert.Contains(t, header, "Ada")
	assert.Equal(t, 80, lipgloss.Width(header))
}
