package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/mixtape/internal/models"
)

// DefaultPalette is used by the CLI for terminal output.
var DefaultPalette = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
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
func (p *Palette) Error(s string) string { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Tracks renders a numbered, styled track list.
func (p *Palette) Tracks(title string, tracks []models.Track) string {
	var b strings.Builder
	b.WriteString(p.Title(fmt.Sprintf("%s (%d)", title, len(tracks))))
	b.WriteString("\n")

	if len(tracks) == 0 {
		b.WriteString(p.Warn("No tracks matched."))
		b.WriteString("\n")
		return b.String()
	}

	width := len(fmt.Sprint(len(tracks)))
	for i, t := range tracks {
		fmt.Fprintf(&b, "%*d. %s %s\n", width, i+1, p.OK(t.Name), p.Help(artistLine(t)))
	}
	return b.String()
}

// Artists renders artist search results with their IDs.
func (p *Palette) Artists(artists []models.Artist) string {
	var b strings.Builder
	for _, a := range artists {
		fmt.Fprintf(&b, "%s %s\n", p.OK(a.Name), p.Help(a.ID))
	}
	return b.String()
}

// Runs renders run history newest first.
func (p *Palette) Runs(runs []*models.Run) string {
	var b strings.Builder
	if len(runs) == 0 {
		b.WriteString(p.Warn("No runs recorded."))
		b.WriteString("\n")
		return b.String()
	}

	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %s  %s\n",
			p.OK(r.ID),
			r.CreatedAt.Local().Format(time.DateTime),
			p.Help(fmt.Sprintf("%d tracks", len(r.Tracks))),
		)
		if summary := RequestSummary(r.Request); summary != "" {
			fmt.Fprintf(&b, "  %s\n", summary)
		}
	}
	return b.String()
}

// RequestSummary describes a request on one line.
func RequestSummary(req models.SynthesisRequest) string {
	var parts []string
	for _, field := range []struct {
		label  string
		values []string
	}{
		{"moods", req.Moods},
		{"activities", req.Activities},
		{"artists", req.PreferredArtists},
		{"genres", req.GenreHints},
	} {
		if len(field.values) > 0 {
			parts = append(parts, field.label+": "+strings.Join(field.values, ", "))
		}
	}
	if req.AttributePreference != "" {
		parts = append(parts, "attribute: "+req.AttributePreference)
	}
	return strings.Join(parts, " | ")
}
