// Package documents provides the indexed documents list view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// View lists the documents in the corpus.
type View struct {
	styles *styles.Styles
	corpus driving.CorpusService

	documents    []domain.Document
	selected     int
	scrollOffset int
	width        int
	height       int
	err          error
	loading      bool
	confirming   bool
	notice       string
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, corpus driving.CorpusService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		corpus: corpus,
		width:  80,
		height: 24,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches the document list.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.err = nil
	v.confirming = false
	corpus := v.corpus
	return func() tea.Msg {
		if corpus == nil {
			return messages.DocumentsLoaded{Err: fmt.Errorf("document store not available")}
		}
		docs, err := corpus.ListDocuments(context.Background())
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) removeSelected() tea.Cmd {
	doc := v.SelectedDocument()
	if doc == nil || v.corpus == nil {
		return nil
	}
	corpus := v.corpus
	source := doc.SourceName
	return func() tea.Msg {
		n, err := corpus.RemoveSource(context.Background(), source)
		return messages.SourceRemoved{SourceName: source, Chunks: n, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			if v.selected >= len(v.documents) {
				v.selected = max(len(v.documents)-1, 0)
			}
			v.clampScroll()
		}
		return v, nil

	case messages.SourceRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Removed %s (%d chunks)", msg.SourceName, msg.Chunks)
		return v, v.Load()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.confirming {
		v.confirming = false
		if msg.String() == "y" {
			return v, v.removeSelected()
		}
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.clampScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.clampScroll()
		}
	case "enter":
		if doc := v.SelectedDocument(); doc != nil {
			selected := *doc
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: selected}
			}
		}
	case "d":
		if v.SelectedDocument() != nil {
			v.confirming = true
			v.notice = ""
		}
	case "r":
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) visibleRows() int {
	return max(v.height-8, 1)
}

func (v *View) clampScroll() {
	rows := v.visibleRows()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	}
	if v.selected >= v.scrollOffset+rows {
		v.scrollOffset = v.selected - rows + 1
	}
}

// View renders the documents list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents indexed"))
	default:
		end := min(v.scrollOffset+v.visibleRows(), len(v.documents))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderRow(i))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case v.confirming:
		doc := v.SelectedDocument()
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Remove %s from the corpus? [y/N]", doc.SourceName)))
	case v.notice != "":
		b.WriteString(v.styles.Success.Render(v.notice))
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] navigate  [enter] read  [d] remove  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderRow(i int) string {
	doc := v.documents[i]
	info := fmt.Sprintf("%d words", doc.WordCount)
	if doc.PageCount > 0 {
		info += fmt.Sprintf(", %d pages", doc.PageCount)
	}
	nameWidth := max(v.width-30, 10)
	name := doc.SourceName
	if r := []rune(name); len(r) > nameWidth {
		name = string(r[:nameWidth-3]) + "..."
	}
	if i == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s %s", nameWidth, name, info))
	}
	return "  " + v.styles.Normal.Render(fmt.Sprintf("%-*s ", nameWidth, name)) + v.styles.Muted.Render(info)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.clampScroll()
}

// Documents returns the loaded documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedDocument returns the highlighted document, or nil when the list is empty.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < 0 || v.selected >= len(v.documents) {
		return nil
	}
	return &v.documents[v.selected]
}

// Confirming reports whether a removal is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
