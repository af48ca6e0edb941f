package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studymate/internal/core/domain"
)

// previewLength is the number of characters of chunk text shown per result.
const previewLength = 160

// printer writes command output, styled only when stdout is a terminal.
type printer struct {
	cmd    *cobra.Command
	styles *styles.Styles
}

func newPrinter(cmd *cobra.Command) *printer {
	p := &printer{cmd: cmd}
	if isTerminal(cmd.OutOrStdout()) {
		p.styles = styles.NewStyles(nil)
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) render(style func(*styles.Styles) lipgloss.Style, text string) string {
	if p.styles == nil {
		return text
	}
	return style(p.styles).Render(text)
}

func (p *printer) title(text string) string {
	return p.render(func(s *styles.Styles) lipgloss.Style { return s.Title }, text)
}

func (p *printer) source(text string) string {
	return p.render(func(s *styles.Styles) lipgloss.Style { return s.Source }, text)
}

func (p *printer) muted(text string) string {
	return p.render(func(s *styles.Styles) lipgloss.Style { return s.Muted }, text)
}

func (p *printer) warn(text string) string {
	return p.render(func(s *styles.Styles) lipgloss.Style { return s.Warning }, text)
}

func (p *printer) confidence(value float64) string {
	if p.styles == nil {
		return fmt.Sprintf("%.0f%%", value)
	}
	return p.styles.Confidence(value)
}

// outcomeNotes prints why an outcome may be incomplete.
func (p *printer) outcomeNotes(outcome *domain.RetrievalOutcome) {
	if outcome.NoDocuments {
		p.cmd.Println(p.warn("Nothing is indexed yet. Run 'studymate index <path>' first."))
	}
	if outcome.Stale {
		p.cmd.Println(p.warn("Documents changed since the last build. Run 'studymate index' to rebuild."))
	}
	if outcome.EmbeddingFallback {
		p.cmd.Println(p.warn("Vector search was unavailable; results are keyword matches only."))
	}
}

// location formats a source name with its page number, if known.
func location(sourceName string, page int) string {
	if page > 0 {
		return fmt.Sprintf("%s p.%d", sourceName, page)
	}
	return sourceName
}

// preview collapses whitespace and shortens text to limit characters.
func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
