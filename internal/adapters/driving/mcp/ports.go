package mcp

import (
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Retrieval searches the index. Required.
	Retrieval driving.RetrievalService

	// Answer synthesises answers. The ask tool is only offered when set.
	Answer driving.AnswerService

	// Corpus lists documents. Document resources are only offered when set.
	Corpus driving.CorpusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
