// Package search provides the search and ask views for the TUI. Both share
// an input, a ranked result list and a status bar; ask mode also renders the
// synthesized answer above the sources it was built from.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// Kind selects what the view does with a submitted query.
type Kind int

const (
	// KindSearch ranks chunks for the query.
	KindSearch Kind = iota
	// KindAsk answers the query from the ranked chunks.
	KindAsk
)

// suggestionCount is the number of example questions shown in ask mode.
const suggestionCount = 3

// modeCycle is the order the mode key steps through.
var modeCycle = []domain.SearchMode{
	domain.SearchModeAuto,
	domain.SearchModeLexical,
	domain.SearchModeVector,
	domain.SearchModeHybrid,
}

// View is the query view with input, answer, results list and status bar.
type View struct {
	kind      Kind
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	answers   driving.AnswerService
	ctx       context.Context

	mode        domain.SearchMode
	answer      *domain.Answer
	outcome     *domain.RetrievalOutcome
	suggestions []string
	width       int
	height      int
	ready       bool
	err         error
	focusInput  bool
}

// NewView creates a query view of the given kind.
func NewView(
	kind Kind,
	s *styles.Styles,
	km *keymap.KeyMap,
	retrieval driving.RetrievalService,
	answers driving.AnswerService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	label, placeholder := "Search", "Enter search query..."
	if kind == KindAsk {
		label, placeholder = "Ask", "Ask a question about your material..."
	}

	v := &View{
		kind:       kind,
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, label, placeholder),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		retrieval:  retrieval,
		answers:    answers,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
	v.refreshIndexState()
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	if v.kind == KindAsk && v.answers != nil {
		v.suggestions = v.answers.SuggestQuestions(suggestionCount)
	}
	v.refreshIndexState()
	return v.input.Init()
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.answer = nil
		v.showOutcome(msg.Outcome)
		return v, nil

	case messages.AnswerCompleted:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.answer = msg.Answer
		v.showOutcome(msg.Answer.Outcome)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if keymap.Matches(msg.String(), v.keymap.CycleMode) {
		v.cycleMode()
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.focusInput = false
			v.input.Blur()
			return v, v.submit(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if keymap.Matches(msg.String(), v.keymap.NewQuery) {
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *View) cycleMode() {
	for i, m := range modeCycle {
		if m == v.mode {
			v.mode = modeCycle[(i+1)%len(modeCycle)]
			return
		}
	}
	v.mode = domain.SearchModeAuto
}

// submit returns the command running the query in the background.
func (v *View) submit(query string) tea.Cmd {
	ctx := v.ctx
	opts := domain.SearchOptions{Mode: v.mode}

	if v.kind == KindAsk {
		v.statusbar.SetState(status.StateAnswering)
		answers := v.answers
		return func() tea.Msg {
			if answers == nil {
				return messages.ErrorOccurred{Err: ErrNoAnswerService}
			}
			answer, err := answers.Ask(ctx, query, domain.AskOptions{Search: opts})
			return messages.AnswerCompleted{Answer: answer, Err: err}
		}
	}

	v.statusbar.SetState(status.StateSearching)
	retrieval := v.retrieval
	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		outcome, err := retrieval.Search(ctx, query, opts)
		return messages.SearchCompleted{Outcome: outcome, Err: err}
	}
}

func (v *View) showOutcome(outcome domain.RetrievalOutcome) {
	v.err = nil
	v.outcome = &outcome
	v.list.SetResults(outcome.Results)
	v.statusbar.SetOutcome(outcome)
	v.refreshIndexState()
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.focusInput = true
	v.input.Focus()
}

func (v *View) refreshIndexState() {
	if v.retrieval != nil {
		v.statusbar.SetIndexState(v.retrieval.State())
	}
}

// View renders the query view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	title := "StudyMate Search"
	if v.kind == KindAsk {
		title = "StudyMate Ask"
	}
	sections := []string{
		v.styles.Title.Render(title) + "  " + v.styles.Muted.Render("mode: "+v.mode.String()),
		"",
		v.input.View(),
		"",
	}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if notes := v.renderNotes(); notes != "" {
		sections = append(sections, notes, "")
	}

	if v.answer != nil {
		sections = append(sections, v.renderAnswer(), "")
	} else if v.kind == KindAsk && v.outcome == nil && len(v.suggestions) > 0 {
		sections = append(sections, v.renderSuggestions(), "")
	}

	if v.outcome != nil {
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderNotes explains outcome flags that affect how results should be read.
func (v *View) renderNotes() string {
	if v.outcome == nil {
		return ""
	}
	var notes []string
	if v.outcome.NoDocuments {
		notes = append(notes, v.styles.Warning.Render("Nothing has been indexed yet."))
	}
	if v.outcome.EmbeddingFallback {
		notes = append(notes, v.styles.Warning.Render("Embeddings unavailable, ranked by keywords only."))
	}
	if v.outcome.Stale {
		notes = append(notes, v.styles.Muted.Render("Recent changes are not indexed yet."))
	}
	return strings.Join(notes, "\n")
}

func (v *View) renderAnswer() string {
	a := v.answer
	heading := "Extracted from your sources"
	if a.Generated {
		heading = "Answer"
	}

	lines := []string{
		v.styles.Subtitle.Render(heading) + "  " + v.styles.Confidence(a.Outcome.Confidence),
		v.styles.Answer.Width(max(v.width-4, 20)).Render(a.Text),
	}
	if len(a.Sources) > 0 {
		names := make([]string, 0, len(a.Sources))
		seen := make(map[string]bool)
		for _, src := range a.Sources {
			if !seen[src.SourceName] {
				seen[src.SourceName] = true
				names = append(names, v.styles.Source.Render(src.SourceName))
			}
		}
		lines = append(lines, v.styles.Muted.Render("Sources: ")+strings.Join(names, ", "))
	}
	if a.Insights.Suggestion != "" {
		lines = append(lines, v.styles.Help.Render(a.Insights.Suggestion))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderSuggestions() string {
	lines := []string{v.styles.Muted.Render("Try asking:")}
	for _, q := range v.suggestions {
		lines = append(lines, v.styles.Normal.Render("  • "+q))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	listHeight := height - 10
	if v.kind == KindAsk {
		listHeight = height - 18
	}
	v.list.SetDimensions(width, max(listHeight, 4))
	v.statusbar.SetWidth(width)
}

// Kind returns what the view does with a submitted query.
func (v *View) Kind() Kind {
	return v.kind
}

// Mode returns the search mode used for the next query.
func (v *View) Mode() domain.SearchMode {
	return v.mode
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current input.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the input.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedResult returns the currently selected result.
func (v *View) SelectedResult() *domain.SearchResult {
	return v.list.SelectedResult()
}

// Answer returns the last answer, or nil in search mode.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Suggestions returns the example questions shown before the first query.
func (v *View) Suggestions() []string {
	return v.suggestions
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty input.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.answer = nil
	v.outcome = nil
	v.err = nil
	v.statusbar.Clear()
	v.refreshIndexState()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
