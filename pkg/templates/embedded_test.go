package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddedTemplates(t *testing.T) {
	ids := Get().List()

	for _, id := range []string{
		"prompts/profile",
		"prompts/market_analysis",
		"prompts/market_news",
		"notifications/report",
	} {
		assert.Contains(t, ids, id)
	}
}

func TestEmbeddedNotification(t *testing.T) {
	out, err := Get().Render("notifications/report", map[string]string{
		"Title": "Market News",
		"Date":  "20260101",
		"Text":  "Sentiment is mixed.",
		"RunID": "run-1",
	})
	assert.NoError(t, err)
	assert.Contains(t, out, "*Market News* 20260101")
	assert.Contains(t, out, "Sentiment is mixed.")
}
