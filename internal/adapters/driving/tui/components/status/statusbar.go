// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studymate/internal/core/domain"
)

// State represents the current activity for display.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateAnswering State = "answering"
	StateError     State = "error"
	StateHelp      State = "help"
	StateResults   State = "results"
)

// Bar displays activity, index state and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	resultCount int
	confidence  float64
	mode        domain.SearchMode
	index       domain.IndexState
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		index:  domain.IndexStateEmpty,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var text string
	switch s.state {
	case StateSearching:
		text = s.styles.Muted.Render("Searching...")
	case StateAnswering:
		text = s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message != "" {
			text = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			text = s.styles.Error.Render("Error")
		}
	case StateHelp:
		text = s.styles.Normal.Render("Help")
	case StateResults:
		text = s.styles.Normal.Render(fmt.Sprintf("%d results [%s] ", s.resultCount, s.mode)) +
			s.styles.Confidence(s.confidence)
	default:
		text = s.styles.Muted.Render("Ready")
	}

	switch s.index {
	case domain.IndexStateStale:
		text += s.styles.Warning.Render("  index stale")
	case domain.IndexStateEmpty:
		text += s.styles.Muted.Render("  nothing indexed")
	}
	return text
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetOutcome records the figures of a finished retrieval and switches to
// the results state.
func (s *Bar) SetOutcome(outcome domain.RetrievalOutcome) {
	s.state = StateResults
	s.resultCount = len(outcome.Results)
	s.confidence = outcome.Confidence
	s.mode = outcome.Mode
}

// ResultCount returns the current result count.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// SetIndexState records the engine lifecycle state.
func (s *Bar) SetIndexState(state domain.IndexState) {
	s.index = state
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
	s.confidence = 0
}
