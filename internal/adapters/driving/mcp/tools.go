package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// defaultLimit is used when a tool call leaves the limit unset.
const defaultLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query         string   `json:"query" jsonschema:"the question or keywords to search for"`
	Limit         int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Mode          string   `json:"mode,omitempty" jsonschema:"lexical, vector or hybrid; empty picks the best available"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" jsonschema:"base score a result must exceed, between 0 and 1"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results    []SearchResultOutput `json:"results"`
	Count      int                  `json:"count"`
	Confidence float64              `json:"confidence"`
	Mode       string               `json:"mode"`
	Stale      bool                 `json:"stale,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID     string  `json:"chunk_id"`
	Source      string  `json:"source"`
	Page        int     `json:"page,omitempty"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Content     string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of passages to consider (default 10)"`
	Extractive bool   `json:"extractive,omitempty" jsonschema:"answer from extracted sentences without a language model"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string             `json:"answer"`
	Generated  bool               `json:"generated"`
	Confidence float64            `json:"confidence"`
	Sources    []domain.SourceRef `json:"sources"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the indexed study documents and return ranked passages",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Describe the search index: documents, chunks, vocabulary and vectors",
	}, s.handleStats)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question from the indexed study documents, citing sources",
		}, s.handleAsk)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	mode := domain.SearchMode(input.Mode)
	if input.Mode == "auto" {
		mode = domain.SearchModeAuto
	}

	opts := domain.SearchOptions{K: limit, Mode: mode, MinSimilarity: input.MinSimilarity}
	outcome, err := s.ports.Retrieval.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("search: %w", err)
	}

	output := SearchOutput{
		Results:    make([]SearchResultOutput, len(outcome.Results)),
		Count:      len(outcome.Results),
		Confidence: outcome.Confidence,
		Mode:       outcome.Mode.String(),
		Stale:      outcome.Stale,
	}

	for i := range outcome.Results {
		r := &outcome.Results[i]
		output.Results[i] = SearchResultOutput{
			ChunkID:     r.ChunkID,
			Source:      r.SourceName,
			Page:        r.PageNumber,
			Score:       r.CombinedScore,
			Explanation: r.Explanation,
			Content:     r.Text,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	answer, err := s.ports.Answer.Ask(ctx, input.Question, domain.AskOptions{
		Search:     domain.SearchOptions{K: limit},
		Extractive: input.Extractive,
	})
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", err)
	}

	return nil, AskOutput{
		Answer:     answer.Text,
		Generated:  answer.Generated,
		Confidence: answer.Outcome.Confidence,
		Sources:    answer.Sources,
	}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.IndexStats, error) {
	return nil, s.ports.Retrieval.Stats(), nil
}
