package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// MigrationsDir returns the migrations directory of a store ("postgres" or "clickhouse")
func MigrationsDir(store string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations", store)
}

// UpMigrations returns the contents of a store's *.up.sql files in apply order
func UpMigrations(store string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(MigrationsDir(store), "*.up.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	out := make([]string, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, string(content))
	}
	return out, nil
}

// Statements splits a migration into single statements.
// ClickHouse rejects multi-statement queries.
func Statements(migration string) []string {
	var out []string
	for _, stmt := range strings.Split(migration, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
