// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Item represents a single menu option.
type Item struct {
	Label string
	View  messages.ViewType
	Quit  bool
}

// Options selects the optional menu entries.
type Options struct {
	Ask       bool
	Documents bool
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	items    []Item
	stats    domain.IndexStats
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles, opts Options) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	items := []Item{{Label: "Search", View: messages.ViewSearch}}
	if opts.Ask {
		items = append(items, Item{Label: "Ask a question", View: messages.ViewAsk})
	}
	if opts.Documents {
		items = append(items, Item{Label: "Documents", View: messages.ViewDocuments})
	}
	items = append(items,
		Item{Label: "Help", View: messages.ViewHelp},
		Item{Label: "Quit", Quit: true},
	)

	return &View{
		styles: s,
		items:  items,
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case "enter":
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}
		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("StudyMate"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Search and question your course material"))
	b.WriteString("\n\n")
	b.WriteString(v.renderStats())
	b.WriteString("\n\n")

	for i, item := range v.items {
		if i == v.selected {
			b.WriteString("> " + v.styles.Subtitle.Render(item.Label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(item.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))

	return b.String()
}

func (v *View) renderStats() string {
	s := v.stats
	if s.ChunkCount == 0 {
		return v.styles.Warning.Render("Nothing indexed yet. Run the index command to add files.")
	}

	line := fmt.Sprintf("%d documents, %d chunks, %d terms", s.DocumentCount, s.ChunkCount, s.VocabularySize)
	if s.VectorsAvailable {
		line += fmt.Sprintf(", %d vectors", s.VectorCount)
	}
	out := v.styles.Normal.Render(line)
	if s.State == domain.IndexStateStale {
		out += "  " + v.styles.Warning.Render("(stale, rebuild to include recent changes)")
	}
	return out
}

// SetStats records the index summary shown under the title.
func (v *View) SetStats(stats domain.IndexStats) {
	v.stats = stats
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
