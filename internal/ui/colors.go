package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/tasks"
)

// Styles is the palette used by the CLI.
var Styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	rule  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		rule:  NewStyle(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Header renders title between two horizontal rules sized to the title.
func (p *Palette) Header(title string) string {
	rule := p.rule.Render(strings.Repeat("═", max(lipgloss.Width(title), 39)))
	return lipgloss.JoinVertical(lipgloss.Left, rule, p.title.Render(title), rule)
}

// Mark renders ✓ or ✗ for a preview outcome.
func (p *Palette) Mark(found bool) string {
	if found {
		return p.ok.Render("✓")
	}
	return p.err.Render("✗")
}

// FeedStatus describes the paging state of a feed in one line.
func (p *Palette) FeedStatus(mode models.Mode, value string, count int, exhausted bool) string {
	status := fmt.Sprintf("%s %q: %d playlists", mode, value, count)
	if exhausted {
		return status + " " + p.help.Render("(end of results)")
	}
	return status + " " + p.help.Render("(more available)")
}

// Coverage colors a scan summary by how many tracks have previews.
func (p *Palette) Coverage(report *tasks.ScanReport) string {
	line := fmt.Sprintf("%d/%d tracks have previews (%.1f%%)", report.Found, report.Total, report.Coverage)
	switch {
	case report.Total == 0:
		return p.help.Render(line)
	case report.Coverage >= 80:
		return p.ok.Render(line)
	case report.Coverage >= 50:
		return p.warn.Render(line)
	default:
		return p.err.Render(line)
	}
}
