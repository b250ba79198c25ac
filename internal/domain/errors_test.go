package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{fmt.Errorf("history: %w", ErrSessionNotFound), KindNotFound},
		{ErrEmptyMessage, KindInvalidInput},
		{fmt.Errorf("form: %w", ErrMissingFile), KindInvalidInput},
		{fmt.Errorf("send: %w", ErrModelUnavailable), KindModelUnavailable},
		{fmt.Errorf("send: %w", ErrModelCall), KindModelError},
		{fmt.Errorf("upsert: %w", ErrStore), KindStoreFailure},
		{ErrUnauthorized, KindUnauthorized},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), "%v", tt.err)
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("model")
	assert.True(t, ok)
	assert.Equal(t, RoleAssistant, r)
	assert.Equal(t, "gemini", r.Wire())

	r, ok = ParseRole("user")
	assert.True(t, ok)
	assert.Equal(t, "user", r.Wire())

	_, ok = ParseRole("system")
	assert.False(t, ok)
}

func TestParseAnalysisMode(t *testing.T) {
	m, ok := ParseAnalysisMode("full")
	assert.True(t, ok)
	assert.True(t, m.WantsOCR())
	assert.True(t, m.WantsImage())

	m, ok = ParseAnalysisMode("visual")
	assert.True(t, ok)
	assert.False(t, m.WantsOCR())

	_, ok = ParseAnalysisMode("xray")
	assert.False(t, ok)
}
