package rules

import (
	"reviewgate/internal/detect"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

// viewWords marks a function name as a request handler.
const viewWords = `(?:view|get|post|put|delete|patch|list|create|update|destroy|retrieve)`

func pythonRules() []Rule {
	return []Rule{
		{
			ID:          "py-missing-auth",
			Group:       GroupSecurity,
			Description: "View-like functions without an auth decorator or dependency.",
			Scope:       Scope{Languages: pyLangs, Frameworks: []string{detect.Django, detect.Flask, detect.FastAPI}},
			Matcher: &match.Window{
				Trigger:      re(`^\s*(?:async\s+)?def\s+(?P<name>(?:` + viewWords + `|[A-Za-z]\w*?` + viewWords + `)\w*)\s*\(`),
				Corroborate:  re(`@\s*(\w+\.)*(login_required|permission_required|user_passes_test|staff_member_required|jwt_required|auth_required|requires_auth|authenticated|permissions_required|api_view|permission_classes)\b|Depends\(\s*\w*(current_user|auth)\w*|Security\(`),
				SuppressNear: nearTestOrExample,
				Before:       5,
			},
			Severity:   model.SeverityCritical,
			Confidence: 85,
			Message:    "Function '{name}' appears to be a view but has no auth decorator",
			Fix:        "Add @login_required, @permission_required, or equivalent auth decorator",
		},
		{
			ID:          "py-bare-except",
			Group:       GroupQuality,
			Description: "except: without a type also catches SystemExit and KeyboardInterrupt.",
			Scope:       Scope{Languages: pyLangs},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`^\s*except\s*:`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 90,
			Message:    "Bare except: block catches all exceptions including SystemExit/KeyboardInterrupt",
			Fix:        "Use 'except Exception:' or catch specific exception types",
		},
		{
			ID:          "py-empty-except",
			Group:       GroupQuality,
			Description: "except blocks holding only pass with no explanation.",
			Scope:       Scope{Languages: pyLangs},
			Matcher: &match.Block{
				Trigger:  re(`^\s*except\b[^:]*:`),
				MaxLines: match.DefaultMaxLines,
			},
			Severity:   model.SeverityWarning,
			Confidence: 85,
			Message:    "Empty except block silently swallows errors",
			Fix:        "Add error logging, re-raise, or add a comment explaining why",
		},
		{
			ID:          "py-print",
			Group:       GroupQuality,
			Description: "print() in production code.",
			Scope:       Scope{Languages: pyLangs},
			Matcher: &match.Pattern{
				Exprs:               []match.Expr{{Regex: re(`(^|[^\w.])print\s*\(`)}},
				MatchCode:           true,
				AggregateOver:       3,
				AggregateConfidence: 80,
				AggregateMessage:    "{count} print() statements found in production code",
				AggregateFix:        "Replace with logging module (import logging; logger = logging.getLogger(__name__))",
			},
			Severity:   model.SeverityWarning,
			Confidence: 75,
			Message:    "print() statement in production code",
			Fix:        "Replace with logging.info() or logging.debug()",
		},
		{
			ID:          "py-eval-exec",
			Group:       GroupSecurity,
			Description: "Dynamic code execution.",
			Scope:       Scope{Languages: pyLangs},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`(^|[^\w.])(?P<label>eval|exec)\s*\(`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 95,
			Message:    "{label}() can execute arbitrary code (code injection risk)",
			Fix:        "Replace {label}() with safe alternatives (ast.literal_eval, importlib, etc.)",
		},
		{
			ID:          "py-sql-injection",
			Group:       GroupSecurity,
			Description: "Query methods fed with f-strings, concatenation or formatting.",
			Scope:       Scope{Languages: pyLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{
						Label:      "f-string passed to",
						Regex:      re(`\.(?P<method>execute|executemany|raw|extra)\(\s*[fF][rR]?["']`),
						Confidence: 95,
					},
					{
						Label:      "string concatenation/format in",
						Regex:      re(`\.(?P<method>execute|executemany|raw|extra)\(\s*["'][^"']*["']\s*(\+|%|\.format\()`),
						Confidence: 90,
					},
				},
				MatchCode: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 90,
			Message:    "SQL injection: {label} .{method}()",
			Fix:        "Use parameterized queries: cursor.execute('SELECT ... WHERE id = %s', [user_id])",
		},
		{
			ID:          "py-subprocess-shell",
			Group:       GroupSecurity,
			Description: "subprocess with shell=True.",
			Scope:       Scope{Languages: pyLangs},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`\bsubprocess\.\w+\(.*\bshell\s*=\s*True\b|\bos\.system\(`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 80,
			Message:    "Shell command execution with interpolated input risks command injection",
			Fix:        "Pass an argument list to subprocess.run() without shell=True",
		},
		{
			ID:          "py-missing-return-type",
			Group:       GroupQuality,
			Description: "Public functions without a return annotation.",
			Scope:       Scope{Languages: pyLangs},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`^\s*(?:async\s+)?def\s+(?P<name>[A-Za-z]\w*)\s*\(.*\)\s*:`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 70,
			Message:    "Public function '{name}' has no return type hint",
			Fix:        "Add return type: def {name}(...) -> ReturnType:",
		},
		{
			ID:          "py-mark-safe",
			Group:       GroupSecurity,
			Description: "Django mark_safe bypasses template auto-escaping.",
			Scope:       Scope{Languages: pyLangs, Frameworks: []string{detect.Django}},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`\bmark_safe\s*\(`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 80,
			Message:    "mark_safe() renders unescaped markup (XSS risk)",
			Fix:        "Use format_html() or escape user input before marking it safe",
		},
		{
			ID:          "py-debug-enabled",
			Group:       GroupSecurity,
			Description: "DEBUG left on in settings modules.",
			Scope:       Scope{Languages: pyLangs, Paths: []string{"**/settings.py", "**/settings/*.py", "**/config.py"}},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`^\s*DEBUG\s*=\s*True\b`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 80,
			Message:    "DEBUG = True in settings exposes stack traces and internals",
			Fix:        "Read DEBUG from the environment and default it to False",
		},
	}
}
