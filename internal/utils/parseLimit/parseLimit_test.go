package utils

import (
	"testing"

	"kbdedup/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"valid number", "10", 10},
		{"zero", "0", 0},
		{"negative number", "-5", 0},
		{"not a number", "abc", 0},
		{"empty string", "", 0},
		{"above maximum", "5000", models.MaxPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseLimit(tt.input))
		})
	}
}

func TestParseOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 20, ParseOffset("20"))
	assert.Equal(t, 0, ParseOffset("0"))
	assert.Equal(t, 0, ParseOffset("-1"))
	assert.Equal(t, 0, ParseOffset("x"))
}

func TestParsePage(t *testing.T) {
	t.Parallel()

	page := ParsePage("25", "50")
	assert.Equal(t, models.DocumentPage{Limit: 25, Offset: 50}, page)
	assert.True(t, page.IsValid())
	assert.True(t, ParsePage("100000", "-3").IsValid())
}
