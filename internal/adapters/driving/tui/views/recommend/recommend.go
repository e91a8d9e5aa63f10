// Package recommend provides the main view of the TUI: a query input, the
// generated answer and the titles it was based on.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driving"
)

// Tips are example queries shown under the heading.
var Tips = []string{
	"lighthearted school anime",
	"dark fantasy with strong female leads",
	"mecha action series",
}

// View is the recommendation view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar
	spinner   spinner.Model

	svc driving.RecommendationService
	ctx context.Context

	mode      messages.Mode
	loading   bool
	query     string
	answer    string
	retrieved int
	degraded  bool
	warning   string
	errMsg    string
	errHint   string

	width  int
	height int
	ready  bool
}

// NewView creates a recommendation view backed by svc.
func NewView(s *styles.Styles, km *keymap.KeyMap, svc driving.RecommendationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	bar := status.NewBar(s, km)
	if svc != nil {
		bar.SetEntries(svc.Info().Entries)
	}

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQueryInput(s),
		list:      list.NewResultList(s),
		statusbar: bar,
		spinner:   sp,
		svc:       svc,
		ctx:       context.Background(),
		mode:      messages.ModeRecommend,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blinking.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case spinner.TickMsg:
		if !v.loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.RecommendationCompleted:
		v.handleRecommendation(msg)
		return v, nil

	case messages.SearchCompleted:
		v.handleSearch(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.ToggleMode):
		if v.loading {
			return v, nil
		}
		v.SetMode(v.mode.Next())
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Clear):
		if v.loading {
			return v, nil
		}
		v.Reset()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Up):
		v.list.MoveUp()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Down):
		v.list.MoveDown()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Submit):
		return v.submit()
	}

	if v.loading {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit validates the input and starts the service call.
func (v *View) submit() (*View, tea.Cmd) {
	if v.loading || v.svc == nil {
		return v, nil
	}

	query := strings.TrimSpace(v.input.Value())
	if query == "" {
		return v, nil
	}
	if minLen := v.svc.MinQueryLength(); len([]rune(query)) < minLen {
		v.warning = fmt.Sprintf("Please enter at least %d characters.", minLen)
		return v, nil
	}

	v.warning = ""
	v.errMsg, v.errHint = "", ""
	v.query = query
	v.loading = true
	v.statusbar.SetState(status.StateThinking)

	return v, tea.Batch(v.spinner.Tick, v.run(query))
}

func (v *View) run(query string) tea.Cmd {
	svc, ctx, mode := v.svc, v.ctx, v.mode
	return func() tea.Msg {
		if mode == messages.ModeSearch {
			hits, err := svc.Search(ctx, query, 0)
			return messages.SearchCompleted{Query: query, Hits: hits, Err: err}
		}
		rec, err := svc.Recommend(ctx, query)
		return messages.RecommendationCompleted{Query: query, Recommendation: rec, Err: err}
	}
}

func (v *View) handleRecommendation(msg messages.RecommendationCompleted) {
	v.loading = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	rec := msg.Recommendation
	v.answer = rec.Answer
	v.retrieved = rec.Retrieved
	v.degraded = rec.Degraded
	v.list.SetEntries("Sources", list.FromSources(rec.Sources))
	v.statusbar.SetState(status.StateAnswered)
	v.input.Reset()
}

func (v *View) handleSearch(msg messages.SearchCompleted) {
	v.loading = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.answer = ""
	v.degraded = false
	v.retrieved = len(msg.Hits)
	v.list.SetEntries("Matches", list.FromHits(msg.Hits))
	v.statusbar.SetState(status.StateAnswered)
	v.input.Reset()
}

func (v *View) setError(err error) {
	v.errMsg, v.errHint = domain.Explain(err)
	v.answer = ""
	v.retrieved = 0
	v.list.Clear()
	v.statusbar.SetState(status.StateError)
}

// View renders the view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 16)
	sections = append(sections,
		v.styles.Heading.Render("Anime Recommender"),
		v.styles.Subheading.Render("Describe what you'd like to watch and get suggestions from the catalog."),
		"",
	)

	if v.answer == "" && v.list.Count() == 0 && v.errMsg == "" && !v.loading {
		sections = append(sections, v.styles.Muted.Render("Try something like:"))
		for _, tip := range Tips {
			sections = append(sections, v.styles.Muted.Render("  • "+tip))
		}
		sections = append(sections, "")
	}

	sections = append(sections, v.input.View())
	if v.warning != "" {
		sections = append(sections, v.styles.Warning.Render(v.warning))
	}
	sections = append(sections, "")

	switch {
	case v.loading:
		label := "Finding recommendations..."
		if v.mode == messages.ModeSearch {
			label = "Searching the catalog..."
		}
		sections = append(sections, v.spinner.View()+" "+v.styles.Muted.Render(label))

	case v.errMsg != "":
		sections = append(sections, v.styles.Error.Render(v.errMsg))
		if v.errHint != "" {
			sections = append(sections, v.styles.Muted.Render(v.errHint))
		}

	case v.answer != "" || v.list.Count() > 0:
		if v.query != "" {
			sections = append(sections, v.styles.Muted.Render("You asked: "+v.query), "")
		}
		if v.answer != "" {
			answerStyle := v.styles.Answer.Width(max(v.width-4, 20))
			if v.degraded {
				answerStyle = answerStyle.BorderForeground(v.styles.Theme().Warning)
			}
			sections = append(sections, answerStyle.Render(v.answer), "")
		}
		sections = append(sections, v.styles.Muted.Render(fmt.Sprintf("Documents retrieved: %d", v.retrieved)))
		if lv := v.list.View(); lv != "" {
			sections = append(sections, "", lv)
		}
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, max(height-16, 3))
	v.statusbar.SetWidth(width)
}

// SetMode switches between recommending and raw search.
func (v *View) SetMode(mode messages.Mode) {
	v.mode = mode
	v.statusbar.SetMode(mode.String())
	if mode == messages.ModeSearch {
		v.input.SetLabel("Search")
	} else {
		v.input.SetLabel("Ask")
	}
	v.input.SetWidth(v.width)
}

// Reset clears the answer, results and input.
func (v *View) Reset() {
	v.input.Reset()
	v.list.Clear()
	v.query = ""
	v.answer = ""
	v.retrieved = 0
	v.degraded = false
	v.warning = ""
	v.errMsg, v.errHint = "", ""
	v.statusbar.SetState(status.StateReady)
}

// Mode returns the current mode.
func (v *View) Mode() messages.Mode { return v.mode }

// Loading reports whether a call is in flight.
func (v *View) Loading() bool { return v.loading }

// Answer returns the last generated answer.
func (v *View) Answer() string { return v.answer }

// Retrieved returns the number of documents behind the last result.
func (v *View) Retrieved() int { return v.retrieved }

// Warning returns the current input warning, if any.
func (v *View) Warning() string { return v.warning }

// Failure returns the message and hint of the last failure.
func (v *View) Failure() (message, hint string) { return v.errMsg, v.errHint }

// Entries returns the listed sources or matches.
func (v *View) Entries() []list.Entry { return v.list.Entries() }

// SetQuery sets the input value.
func (v *View) SetQuery(query string) { v.input.SetValue(query) }

// Ready returns whether the view has received its dimensions.
func (v *View) Ready() bool { return v.ready }
