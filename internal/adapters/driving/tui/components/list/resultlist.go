// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/animerec/internal/core/domain"
)

// Entry is one row of the list.
type Entry struct {
	Title   string
	Genres  []string
	Score   float64
	Preview string
}

// FromSources converts recommendation sources to entries.
func FromSources(sources []domain.Source) []Entry {
	entries := make([]Entry, len(sources))
	for i, s := range sources {
		entries[i] = Entry{Title: s.Title, Genres: s.Genres, Score: s.Score}
	}
	return entries
}

// FromHits converts raw search hits to entries with a content preview.
func FromHits(hits domain.QueryResult) []Entry {
	entries := make([]Entry, len(hits))
	for i, h := range hits {
		entries[i] = Entry{
			Title:   h.Chunk.Title,
			Genres:  h.Chunk.Genres,
			Score:   h.Score,
			Preview: h.Chunk.Content,
		}
	}
	return entries
}

// ResultList displays entries in a scrollable list.
type ResultList struct {
	entries  []Entry
	heading  string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates an empty list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{
		heading: "Sources",
		styles:  s,
		width:   80,
		height:  10,
	}
}

// View renders the list. An empty list renders nothing.
func (r *ResultList) View() string {
	if len(r.entries) == 0 {
		return ""
	}

	lines := make([]string, 0, len(r.entries)*2+2)
	lines = append(lines, r.styles.Heading.Render(fmt.Sprintf("%s (%d)", r.heading, len(r.entries))))

	perEntry := 1
	if r.hasPreviews() {
		perEntry = 2
	}
	visible := (r.height - 1) / perEntry
	if visible < 1 {
		visible = 1
	}

	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.entries))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderEntry(i))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderEntry(index int) string {
	e := r.entries[index]

	title := e.Title
	if title == "" {
		title = "(untitled)"
	}
	if len(e.Genres) > 0 {
		title += " (" + strings.Join(e.Genres, ", ") + ")"
	}
	maxTitle := max(r.width-14, 10)
	title = truncate(title, maxTitle)

	score := fmt.Sprintf("%.3f", e.Score)
	var line string
	if index == r.selected {
		line = r.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", maxTitle, title, score))
	} else {
		line = "  " + r.styles.SourceTitle.Render(fmt.Sprintf("%-*s", maxTitle, title)) +
			"  " + r.styles.Muted.Render(score)
	}

	if e.Preview == "" {
		return line
	}
	preview := strings.Join(strings.Fields(e.Preview), " ")
	return line + "\n" + r.styles.Muted.Render("    "+truncate(preview, max(r.width-6, 20)))
}

func (r *ResultList) hasPreviews() bool {
	for _, e := range r.entries {
		if e.Preview != "" {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetEntries replaces the list contents under heading.
func (r *ResultList) SetEntries(heading string, entries []Entry) {
	r.heading = heading
	r.entries = entries
	r.selected = 0
}

// Entries returns the current entries.
func (r *ResultList) Entries() []Entry {
	return r.entries
}

// Selected returns the index of the selected entry.
func (r *ResultList) Selected() int {
	return r.selected
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.entries)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of entries.
func (r *ResultList) Count() int {
	return len(r.entries)
}

// Clear removes all entries.
func (r *ResultList) Clear() {
	r.entries = nil
	r.selected = 0
}
