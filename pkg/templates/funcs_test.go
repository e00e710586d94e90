package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate(10, "  short "))
	assert.Equal(t, "abcdefg...", Truncate(10, "abcdefghijklmnop"))
	assert.Equal(t, "ab", Truncate(2, "abcdef"))
	assert.Equal(t, "привет", Truncate(6, "привет"))
}

func TestNumberFormatting(t *testing.T) {
	assert.Equal(t, "1,234.50", Price(1234.5))
	assert.Equal(t, "+10.00%", Ratio(0.1))
	assert.Equal(t, "-2.50%", Ratio(-0.025))
	assert.Equal(t, "+0.30", Signed(0.3))
}
