package testsupport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpMigrations_Ordered(t *testing.T) {
	pg, err := UpMigrations("postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0], "agent_profiles")

	ch, err := UpMigrations("clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 2)
	assert.Contains(t, ch[0], "market_observations")
}

func TestStatements(t *testing.T) {
	stmts := Statements("CREATE TABLE a (x Int8);\n\n  CREATE TABLE b (y Int8);\n")
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b"))
	assert.Empty(t, Statements(" ;\n"))
}
