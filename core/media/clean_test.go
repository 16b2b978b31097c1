package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTagString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text unchanged", "Hello World", "Hello World"},
		{"surrounding whitespace trimmed", "  Song Title \t", "Song Title"},
		{"control characters stripped", "Ti\x00tle\x07", "Title"},
		{"newlines and tabs kept", "line one\nline two", "line one\nline two"},
		{"invalid utf8 dropped", "Caf\xc3\x28", "Caf("},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanTagString(tt.input))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "0:59", FormatDuration(59.9))
	assert.Equal(t, "3:05", FormatDuration(185.2))
	assert.Equal(t, "61:01", FormatDuration(3661))
}
