package suppress

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	rules, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestLoadAndMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
suppressions:
  - rule: py-print
    files: "scripts/**"
    reason: CLI scripts print to stdout
  - rule: secret-hardcoded
    files: "config/dev.py"
    reason: dev-only placeholder
    expires: "2024-01-31"
  - rule: go-sql-injection
    reason: query builder reviewed
`), 0o644))

	rules, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, rules.Suppressed("py-print", "scripts/seed/run.py", now))
	assert.False(t, rules.Suppressed("py-print", "app/views.py", now))
	assert.False(t, rules.Suppressed("secret-hardcoded", "config/dev.py", now), "expired entry")
	assert.True(t, rules.Suppressed("secret-hardcoded", "config/dev.py", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, rules.Suppressed("go-sql-injection", "internal/db/q.go", now))
}

func TestLoadRejectsMissingReason(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suppressions:\n  - rule: py-print\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason is required")
}
