// Package doccontent provides the document text view for the TUI.
package doccontent

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// reservedLines are taken by the title, separator and footer.
const reservedLines = 6

// View shows the full text of one document in a scrollable viewport.
type View struct {
	styles *styles.Styles
	corpus driving.CorpusService

	document *domain.Document
	viewport viewport.Model
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, corpus driving.CorpusService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		corpus:   corpus,
		viewport: viewport.New(80, 18),
		width:    80,
		height:   24,
	}
}

// SetDocument selects a document and returns a command loading its text.
func (v *View) SetDocument(doc *domain.Document) tea.Cmd {
	v.document = doc
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()

	corpus := v.corpus
	return func() tea.Msg {
		if doc == nil || corpus == nil {
			return messages.DocumentContentLoaded{Err: fmt.Errorf("document store not available")}
		}
		full, err := corpus.GetDocument(context.Background(), doc.ID)
		return messages.DocumentContentLoaded{Document: full, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentContentLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.document = msg.Document
		v.err = nil
		v.viewport.SetContent(v.render())
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		case "home", "g":
			v.viewport.GotoTop()
			return v, nil
		case "end", "G":
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// render lays out the document text with a marker at each page start.
func (v *View) render() string {
	if v.document == nil {
		return ""
	}
	doc := v.document
	width := v.viewport.Width
	if width < 20 {
		width = 20
	}

	if len(doc.Pages) == 0 {
		return wrapText(doc.Text, width)
	}

	var b strings.Builder
	for i, p := range doc.Pages {
		end := len(doc.Text)
		if i+1 < len(doc.Pages) {
			end = doc.Pages[i+1].Offset
		}
		if p.Offset > end || end > len(doc.Text) {
			continue
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("── page %d ──", p.Page)))
		b.WriteString("\n")
		b.WriteString(wrapText(doc.Text[p.Offset:end], width))
		b.WriteString("\n")
	}
	return b.String()
}

// wrapText hard-wraps each line of text to width runes.
func wrapText(text string, width int) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			out = append(out, string(runes[:width]))
			runes = runes[width:]
		}
		out = append(out, string(runes))
	}
	return strings.Join(out, "\n")
}

// View renders the document content view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.SourceName
		if v.document.Title != "" {
			title = v.document.Title
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.document == nil || v.document.Text == "":
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%3.0f%%] %d words",
			v.viewport.ScrollPercent()*100, v.document.WordCount)))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and resizes the viewport.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = max(width-4, 20)
	v.viewport.Height = max(height-reservedLines, 1)
	if v.document != nil && !v.loading {
		v.viewport.SetContent(v.render())
	}
}

// Document returns the current document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Loading reports whether the document text is being fetched.
func (v *View) Loading() bool {
	return v.loading
}
