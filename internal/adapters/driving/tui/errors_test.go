package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingRetrievalService.Error(), ErrInvalidPorts.Error())
}

func TestErrMissingRetrievalService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingRetrievalService.Error(), "retrieval service")
}

func TestErrInvalidPorts_Message(t *testing.T) {
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
}
