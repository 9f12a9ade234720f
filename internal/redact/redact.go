// Package redact masks credential-shaped text before it reaches a report.
// Findings may quote source through {match}, and a secret finding must never
// reprint the secret it found.
package redact

import (
	"regexp"

	"reviewgate/internal/model"
)

type replacer struct {
	re   *regexp.Regexp
	with string
}

// Order matters: whole key blocks and bearer headers go first so the generic
// assignment pattern never sees half of them.
var replacers = []replacer{
	{regexp.MustCompile(`-----BEGIN [A-Z0-9 ]*PRIVATE KEY-----([\s\S]*?-----END [A-Z0-9 ]*PRIVATE KEY-----)?`), "[REDACTED PRIVATE KEY]"},
	{regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._~+/=-]{8,}`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`(?i)\b(api[_-]?key|apikey|secret(?:[_-]?key)?|(?:auth|access)[_-]?token|token|password|passwd|pwd)\b(["']?\s*(?::=|[:=])\s*)(["']?)([A-Za-z0-9._~+/=-]{8,})(["']?)`), `${1}${2}${3}[REDACTED]${5}`},
	{regexp.MustCompile(`\b(sk|pk|rk)_(live|test)_[A-Za-z0-9]{10,}`), "${1}_${2}_[REDACTED]"},
	{regexp.MustCompile(`\b(?:A3T|AKIA|ASIA|AGPA|AIDA|ANPA|ANVA|AROA|AIPA)[0-9A-Z]{16}\b`), "[REDACTED_AWS_ACCESS_KEY]"},
	{regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9_]{20,}\b`), "[REDACTED_GITHUB_TOKEN]"},
	{regexp.MustCompile(`\bxox[bporas]-[0-9A-Za-z-]{10,}`), "[REDACTED_SLACK_TOKEN]"},
}

// Text masks common secret and token patterns.
func Text(s string) string {
	for _, r := range replacers {
		s = r.re.ReplaceAllString(s, r.with)
	}
	return s
}

// Finding masks the free-text fields of f.
func Finding(f model.Finding) model.Finding {
	f.Message = Text(f.Message)
	f.Fix = Text(f.Fix)
	return f
}
