// Package tui renders tab groups as terminal text for the CLI.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/1broseidon/tabtile/internal/droptarget"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/overlay"
)

// cellLayout is droptarget.Layout measured in terminal cells instead of pixels.
var cellLayout = droptarget.Layout{
	MaxTabWidth:     24,
	PinnedTabWidth:  3,
	SeparatorWeight: 0.25,
}

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func color(c uint32) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%06x", c&0xffffff))
}

// RenderBar draws v's tab bar as a single line width cells wide, laid out the
// same way the overlay lays out pixels.
func RenderBar(v group.View, width int, p overlay.Palette) string {
	if width <= 0 {
		width = DefaultWidth
	}
	spans := cellLayout.TabSpans(droptarget.SlotsOf(v.Windows), width)

	var b strings.Builder
	used := 0
	for i, w := range v.Windows {
		span := spans[i]
		if span.Width <= 0 {
			continue
		}
		active := i == v.ActiveIndex
		style := lipgloss.NewStyle().
			Width(span.Width).
			MaxWidth(span.Width).
			Foreground(color(p.Text)).
			Background(color(overlay.TabColor(w, active, p)))
		if active {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(fitCells(overlay.TabLabel(w), span.Width)))
		used += span.Width
	}
	if used < width {
		b.WriteString(lipgloss.NewStyle().Background(color(p.Background)).Render(strings.Repeat(" ", width-used)))
	}
	return b.String()
}

// RenderGroup is a header line describing v followed by its bar.
func RenderGroup(v group.View, width int, p overlay.Palette) string {
	name := string(v.ID)
	if v.Name != "" {
		name = fmt.Sprintf("%s (%s)", v.Name, v.ID)
	}
	details := fmt.Sprintf("workspace %d  %dx%d+%d+%d  %d tabs",
		v.WorkspaceID, v.Frame.Width, v.Frame.Height, v.Frame.X, v.Frame.Y, len(v.Windows))
	if pos := v.CounterPosition(); pos > 0 {
		details += fmt.Sprintf("  maximized %d/%d", pos, len(v.MaximizedGroupCounterIDs))
	} else if v.Maximized {
		details += "  maximized"
	}
	header := headerStyle.Render(name) + "  " + dimStyle.Render(details)
	return lipgloss.JoinVertical(lipgloss.Left, header, RenderBar(v, width, p))
}

// RenderGroups renders every group separated by a blank line.
func RenderGroups(views []group.View, width int, p overlay.Palette) string {
	if len(views) == 0 {
		return dimStyle.Render("no groups")
	}
	blocks := make([]string, 0, len(views))
	for _, v := range views {
		blocks = append(blocks, RenderGroup(v, width, p))
	}
	return strings.Join(blocks, "\n\n")
}

// fitCells pads label with one leading space and truncates it to width cells.
func fitCells(label string, width int) string {
	if width <= 1 {
		return strings.Repeat(" ", width)
	}
	label = strings.Map(func(r rune) rune {
		if r < 0x20 {
			return ' '
		}
		return r
	}, label)
	return " " + runewidth.Truncate(label, width-1, "…")
}
