package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "Equities drift higher", "Equities drift higher"},
		{"bold and italic", "*risk* is _elevated_", "\\*risk\\* is \\_elevated\\_"},
		{"link and code", "[SPY] `up`", "\\[SPY] \\`up\\`"},
		{"punctuation untouched", "Yield 4.25% (10Y) - flat!", "Yield 4.25% (10Y) - flat!"},
		{"asset ids", "real_rate_10y", "real\\_rate\\_10y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeMarkdown(tt.input))
		})
	}
}

func TestSafeText_DropsInvalidUTF8(t *testing.T) {
	assert.Equal(t, "ok \\_x", SafeText("ok \xff_x"))
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Equal(t, []string{""}, SplitMessage("", 10))
	})

	t.Run("prefers paragraph breaks", func(t *testing.T) {
		text := "first para\n\nsecond para"
		assert.Equal(t, []string{"first para", "second para"}, SplitMessage(text, 15))
	})

	t.Run("falls back to spaces", func(t *testing.T) {
		chunks := SplitMessage("alpha beta gamma delta", 11)
		assert.Equal(t, []string{"alpha beta", "gamma delta"}, chunks)
	})

	t.Run("hard cut without separators", func(t *testing.T) {
		chunks := SplitMessage(strings.Repeat("x", 25), 10)
		assert.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 10)
		}
	})
}
