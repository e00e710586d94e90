package templates

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

func TestRegistryLoadAndRender(t *testing.T) {
	reg, err := NewRegistryFromFS(fstest.MapFS{
		"prompts/greeting.tmpl": {Data: []byte("Hello {{.Name}}")},
		"README.md":             {Data: []byte("ignored")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"prompts/greeting"}, reg.List())

	out, err := reg.Render("prompts/greeting", map[string]string{"Name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice", out)
}

func TestRegistryMissingKeyIsError(t *testing.T) {
	reg, err := NewRegistryFromFS(fstest.MapFS{
		"t.tmpl": {Data: []byte("{{.Missing}}")},
	})
	require.NoError(t, err)

	_, err = reg.Render("t", map[string]string{})
	assert.Error(t, err)
}

func TestRegistryParseError(t *testing.T) {
	_, err := NewRegistryFromFS(fstest.MapFS{
		"broken.tmpl": {Data: []byte("{{.Name")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestRegistryFuncs(t *testing.T) {
	reg, err := NewRegistryFromFS(fstest.MapFS{
		"fmt.tmpl": {Data: []byte(`{{price .P}} {{ratio .R}} {{truncate 6 .S}}`)},
	})
	require.NoError(t, err)

	out, err := reg.Render("fmt", map[string]any{"P": 1500.0, "R": 0.05, "S": "headline text"})
	require.NoError(t, err)
	assert.Equal(t, "1,500.00 +5.00% hea...", out)
}

func TestRegistryMissingTemplate(t *testing.T) {
	_, err := Get().Render("prompts/nonexistent", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestWithOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notifications"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notifications", "report.tmpl"), []byte("custom {{.RunID}}"), 0o644))

	reg, err := WithOverrides(dir)
	require.NoError(t, err)

	out, err := reg.Render("notifications/report", map[string]string{"RunID": "r1"})
	require.NoError(t, err)
	assert.Equal(t, "custom r1", out)

	// built-ins are still there and the shared registry is untouched
	assert.Contains(t, reg.List(), "prompts/market_news")
	out, err = Get().Render("notifications/report", map[string]string{"Title": "T", "Date": "D", "Text": "x", "RunID": "r1"})
	require.NoError(t, err)
	assert.NotContains(t, out, "custom")
}

func TestWithOverrides_EmptyDir(t *testing.T) {
	reg, err := WithOverrides("")
	require.NoError(t, err)
	assert.Same(t, Get(), reg)
}
