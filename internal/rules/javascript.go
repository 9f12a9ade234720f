package rules

import (
	"regexp"

	"reviewgate/internal/detect"
	"reviewgate/internal/lang"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

var sanitizedHTML = regexp.MustCompile(`DOMPurify\.sanitize|sanitizeHtml\(|sanitize\(`)

func javascriptRules() []Rule {
	return []Rule{
		{
			ID:          "ts-nest-missing-guard",
			Group:       GroupSecurity,
			Description: "NestJS route handlers without a guard or explicit public marker.",
			Scope:       Scope{Languages: jsLangs, Frameworks: []string{detect.NestJS}},
			Matcher: &match.Window{
				Trigger:      re(`@(?P<label>Get|Post|Put|Patch|Delete)\(`),
				Corroborate:  re(`@(UseGuards|Public|Roles|SkipAuth|AllowAnonymous|Auth)\b`),
				SuppressNear: nearTestOrExample,
				Before:       10,
			},
			Severity:   model.SeverityCritical,
			Confidence: 80,
			Message:    "@{label}() handler has no @UseGuards, @Roles or @Public within 10 lines",
			Fix:        "Add @UseGuards(AuthGuard) to the handler or controller, or mark it @Public() deliberately",
		},
		{
			ID:          "js-express-missing-auth",
			Group:       GroupSecurity,
			Description: "Express routes registered without auth middleware.",
			Scope:       Scope{Languages: jsLangs, Frameworks: []string{detect.Express}},
			Matcher: &match.Window{
				Trigger:      re(`\b(app|router)\.(?P<label>get|post|put|patch|delete)\(\s*['"` + "`" + `]`),
				TriggerSkip:  re(`['"` + "`" + `]/(health|healthz|ready|readyz|status|ping|login|signup|register)['"` + "`" + `]`),
				Corroborate:  re(`(?i)\b(\w*auth\w*|isAuthenticated|verifyToken|requireUser|protect|ensureLoggedIn|passport\.authenticate)\b`),
				SuppressNear: nearTestOrExample,
				Before:       3,
			},
			Severity:   model.SeverityCritical,
			Confidence: 75,
			Message:    "Express {label} route registered without auth middleware",
			Fix:        "Insert authentication middleware before the handler: router.{label}(path, requireAuth, handler)",
		},
		{
			ID:          "js-raw-sql",
			Group:       GroupSecurity,
			Description: "Raw SQL built from interpolated strings.",
			Scope:       Scope{Languages: jsLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Label: "$queryRawUnsafe/$executeRawUnsafe", Regex: re(`\$(queryRaw|executeRaw)Unsafe\s*\(`)},
					{Label: "template literal interpolation", Regex: re(`\.(query|execute|raw|sequelize\.query)\s*\(\s*` + "`" + `[^` + "`" + `]*\$\{`)},
					{Label: "string concatenation", Regex: re(`\.(query|execute|raw)\s*\(\s*['"][^'"]*['"]\s*\+`), Confidence: 85},
				},
				SkipComments: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 90,
			Message:    "SQL injection risk: raw query with {label}",
			Fix:        "Use parameter placeholders or Prisma's tagged $queryRaw`...${value}` which binds values",
		},
		{
			ID:          "js-empty-catch",
			Group:       GroupQuality,
			Description: "Empty catch blocks and no-op promise catch handlers.",
			Scope:       Scope{Languages: jsLangs},
			Matcher: &match.Block{
				Trigger:  re(`\bcatch\s*(\([^)]*\))?\s*\{|\.catch\(\s*(\([^)]*\)|\w+)\s*=>\s*\{`),
				MaxLines: match.DefaultMaxLines,
			},
			Severity:   model.SeverityWarning,
			Confidence: 85,
			Message:    "Empty catch block silently swallows errors",
			Fix:        "Log or rethrow the error, or add a comment explaining why it is safe to ignore",
		},
		{
			ID:          "js-dangerous-html",
			Group:       GroupSecurity,
			Description: "Unsanitized HTML injection sinks.",
			Scope:       Scope{Languages: jsLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Label: "dangerouslySetInnerHTML", Regex: re(`dangerouslySetInnerHTML`)},
					{Label: "innerHTML assignment", Regex: re(`\.(innerHTML|outerHTML)\s*\+?=`)},
					{Label: "v-html", Regex: re(`\bv-html\s*=`)},
					{Label: "document.write", Regex: re(`\bdocument\.write(ln)?\s*\(`)},
				},
				Exclude:   []*regexp.Regexp{sanitizedHTML},
				MatchCode: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 80,
			Message:    "Unsafe markup rendering via {label} (XSS risk)",
			Fix:        "Sanitize with DOMPurify.sanitize() or render text content instead",
		},
		{
			ID:          "js-eval",
			Group:       GroupSecurity,
			Description: "Dynamic code execution.",
			Scope:       Scope{Languages: jsLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Label: "eval()", Regex: re(`(^|[^\w.$])eval\s*\(`)},
					{Label: "new Function()", Regex: re(`\bnew\s+Function\s*\(`)},
					{Label: "string setTimeout", Regex: re(`\bset(Timeout|Interval)\s*\(\s*['"]`), Confidence: 80},
				},
				MatchCode: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 95,
			Message:    "{label} can execute arbitrary code (code injection risk)",
			Fix:        "Replace dynamic evaluation with explicit logic or JSON.parse()",
		},
		{
			ID:          "js-console-log",
			Group:       GroupQuality,
			Description: "Debug console output left in code.",
			Scope:       Scope{Languages: jsLangs},
			Matcher: &match.Pattern{
				Exprs:               []match.Expr{{Regex: re(`\bconsole\.(?P<label>log|debug)\s*\(`)}},
				MatchCode:           true,
				AggregateOver:       3,
				AggregateConfidence: 80,
				AggregateMessage:    "{count} console.log/debug statements found in production code",
				AggregateFix:        "Replace with a structured logger and remove debug output",
			},
			Severity:   model.SeverityWarning,
			Confidence: 70,
			Message:    "console.{label}() in production code",
			Fix:        "Remove it or use the application's logger",
		},
		{
			ID:          "js-token-in-localstorage",
			Group:       GroupSecurity,
			Description: "Auth tokens persisted where any script can read them.",
			Scope:       Scope{Languages: jsLangs},
			Matcher: &match.Pattern{
				Exprs:        []match.Expr{{Regex: re(`(?i)localStorage\.setItem\(\s*['"` + "`" + `][^'"` + "`" + `]*(token|jwt|session|secret)`)}},
				SkipComments: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 75,
			Message:    "Auth token stored in localStorage is readable by any injected script",
			Fix:        "Keep tokens in httpOnly, secure cookies",
		},
		{
			ID:          "ts-ts-ignore",
			Group:       GroupQuality,
			Description: "Compiler errors silenced.",
			Scope:       Scope{Languages: []lang.Language{lang.TypeScript}},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{{Regex: re(`@ts-(?P<label>ignore|nocheck)\b`)}},
			},
			Severity:   model.SeverityWarning,
			Confidence: 65,
			Message:    "@ts-{label} hides type errors",
			Fix:        "Fix the underlying type error or use @ts-expect-error with a reason",
		},
	}
}
