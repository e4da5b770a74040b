package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", DefaultMaxInputSize - 1, false},
		{"Exact Limit", DefaultMaxInputSize, false},
		{"Over Limit", DefaultMaxInputSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "back", "back"},
		{"Tab Kept", "1\t", "1\t"},
		{"ANSI Code", "\x1b[31m2\x1b[0m", "[31m2[0m"},
		{"Null Byte", "q\x00", "q"},
		{"Bell", "e\x07", "e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_Invalid(t *testing.T) {
	_, err := SanitizeInput("\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	t.Setenv(EnvMaxInputSize, "3")
	_, err = SanitizeInput("next")
	assert.ErrorIs(t, err, ErrInputTooLarge)
}
