// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/studymate/internal/core/domain"
)

// SearchCompleted carries a retrieval outcome back to the model.
type SearchCompleted struct {
	Outcome domain.RetrievalOutcome
	Err     error
}

// AnswerCompleted carries a synthesized answer back to the model.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// ResultSelected is sent when a search result is selected.
type ResultSelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewAsk is the question and answer view.
	ViewAsk
	// ViewDocuments lists indexed documents.
	ViewDocuments
	// ViewDocContent shows document text.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewAsk:
		return "ask"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the list of indexed documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentContentLoaded carries the full text of a document.
type DocumentContentLoaded struct {
	Document *domain.Document
	Err      error
}

// SourceRemoved signals a source was removed from the corpus.
type SourceRemoved struct {
	SourceName string
	Chunks     int
	Err        error
}
