package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUICmd_Metadata(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.Equal(t, "Launch the interactive terminal UI", tuiCmd.Short)
	assert.Contains(t, tuiCmd.Long, "Tab      - Cycle search mode")
}

func TestTUICmd_RequiresRetrieval(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute(t, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval service not configured")
}

func TestTUICmd_RejectsArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "tui", "extra")

	assert.Error(t, err)
}
