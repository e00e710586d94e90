package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitWords(t *testing.T) {
	out, cut := LimitWords("one two  three", 5)
	assert.Equal(t, "one two three", out)
	assert.False(t, cut)

	out, cut = LimitWords("one two three four", 2)
	assert.Equal(t, "one two...", out)
	assert.True(t, cut)
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Title text", StripMarkup("# Title\n<b>text</b>"))
	assert.Equal(t, "1 first 2 second", StripMarkup("1. 1 first\n2) 2 second"))
	assert.Equal(t, "", StripMarkup("   "))
}
