// Package tui provides an interactive terminal user interface for searching
// and questioning an indexed corpus.
package tui

import (
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls.
type Ports struct {
	// Retrieval ranks chunks for queries. Required.
	Retrieval driving.RetrievalService

	// Answer synthesizes answers. Optional; the ask mode is hidden without it.
	Answer driving.AnswerService

	// Corpus lists and removes documents. Optional; the documents view is
	// hidden without it.
	Corpus driving.CorpusService
}

// NewPorts creates a Ports aggregate with the given services.
func NewPorts(
	retrieval driving.RetrievalService,
	answer driving.AnswerService,
	corpus driving.CorpusService,
) *Ports {
	return &Ports{
		Retrieval: retrieval,
		Answer:    answer,
		Corpus:    corpus,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
