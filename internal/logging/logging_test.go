package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewFiltersBelowWarnUnlessVerbose(t *testing.T) {
	var quiet bytes.Buffer
	log := New(&quiet, false)
	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("changed-only unavailable", zap.String("reason", "not a git repository"))
	_ = log.Sync()

	out := quiet.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "reviewgate")
	assert.Contains(t, out, `"reason": "not a git repository"`)

	var loud bytes.Buffer
	log = New(&loud, true)
	log.Debug("rule catalog built", zap.Int("rules", 42))
	_ = log.Sync()
	assert.Contains(t, loud.String(), "rule catalog built")
	assert.Contains(t, loud.String(), "logging_test.go")
}
