// Package mcp provides an MCP (Model Context Protocol) server adapter for StudyMate.
// It lets AI assistants search the user's study documents and ask questions
// about them.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
