package rules

import (
	"reviewgate/internal/detect"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

func goRules() []Rule {
	return []Rule{
		{
			ID:          "go-sql-injection",
			Group:       GroupSecurity,
			Description: "database/sql calls with a formatted or concatenated query.",
			Scope:       Scope{Languages: goLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{
						Label:      "fmt.Sprintf",
						Regex:      re(`\.(?P<method>Query|QueryRow|Exec|QueryContext|QueryRowContext|ExecContext|Raw)\(\s*(ctx,\s*)?fmt\.Sprintf\(`),
						Confidence: 90,
					},
					{
						Label:      "string concatenation",
						Regex:      re(`\.(?P<method>Query|QueryRow|Exec|QueryContext|QueryRowContext|ExecContext|Raw)\(\s*(ctx,\s*)?"[^"]*"\s*\+`),
						Confidence: 85,
					},
				},
				MatchCode: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 85,
			Message:    "SQL injection risk: query passed to {method}() built with {label}",
			Fix:        "Use placeholders and pass values as arguments: db.{method}(query, args...)",
		},
		{
			ID:          "go-empty-err-check",
			Group:       GroupQuality,
			Description: "if err != nil blocks that do nothing.",
			Scope:       Scope{Languages: goLangs},
			Matcher: &match.Block{
				Trigger:  re(`\bif\s+(.*;\s*)?err\s*!=\s*nil\s*\{`),
				MaxLines: match.DefaultMaxLines,
			},
			Severity:   model.SeverityWarning,
			Confidence: 85,
			Message:    "Error checked but ignored in an empty if err != nil block",
			Fix:        "Return or wrap the error, or log it with context",
		},
		{
			ID:          "go-route-missing-auth",
			Group:       GroupSecurity,
			Description: "HTTP routes registered without auth middleware nearby.",
			Scope:       Scope{Languages: goLangs, Frameworks: []string{detect.Gin, detect.Echo, detect.Chi, detect.Fiber}},
			Matcher: &match.Window{
				Trigger:      re(`\.(?P<label>GET|POST|PUT|PATCH|DELETE|Get|Post|Put|Patch|Delete)\(\s*"`),
				TriggerSkip:  re(`"/(health|healthz|ready|readyz|livez|metrics|ping|login|signup|register)"`),
				Corroborate:  re(`(?i)\b(\w*auth\w*|jwt\w*|RequireUser|Protected|\.Use\()`),
				SuppressNear: nearTestOrExample,
				Before:       5,
			},
			Severity:   model.SeverityWarning,
			Confidence: 70,
			Message:    "{label} route registered without auth middleware in the surrounding group",
			Fix:        "Register the route on a group that uses auth middleware, or attach it to the handler chain",
		},
		{
			ID:          "go-log-fatal",
			Group:       GroupQuality,
			Description: "log.Fatal in library code exits the whole process.",
			Scope:       Scope{Languages: goLangs, Paths: []string{"internal/**", "pkg/**"}},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`\blog\.(?P<label>Fatal|Fatalf|Fatalln)\(`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 70,
			Message:    "log.{label}() outside main exits the process and skips deferred cleanup",
			Fix:        "Return the error to the caller and exit from main",
		},
	}
}
