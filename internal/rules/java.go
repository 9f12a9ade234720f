package rules

import (
	"reviewgate/internal/detect"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

func javaRules() []Rule {
	return []Rule{
		{
			ID:          "java-missing-auth",
			Group:       GroupSecurity,
			Description: "Spring request mappings without a method security annotation.",
			Scope:       Scope{Languages: javaLang, Frameworks: []string{detect.Spring}},
			Matcher: &match.Window{
				Trigger:      re(`@(?P<label>GetMapping|PostMapping|PutMapping|PatchMapping|DeleteMapping|RequestMapping)\b`),
				TriggerSkip:  re(`@RestController|@Controller`),
				Corroborate:  re(`@(PreAuthorize|Secured|RolesAllowed|PermitAll|PostAuthorize)\b`),
				SuppressNear: nearTestOrExample,
				Before:       3,
				After:        3,
			},
			Severity:   model.SeverityCritical,
			Confidence: 80,
			Message:    "@{label} endpoint has no @PreAuthorize, @Secured or @RolesAllowed",
			Fix:        "Annotate the method with @PreAuthorize(\"hasRole('...')\") or mark it @PermitAll deliberately",
		},
		{
			ID:          "java-empty-catch",
			Group:       GroupQuality,
			Description: "Empty catch blocks.",
			Scope:       Scope{Languages: javaLang},
			Matcher: &match.Block{
				Trigger:  re(`\bcatch\s*\([^)]*\)\s*\{`),
				MaxLines: match.DefaultMaxLines,
			},
			Severity:   model.SeverityWarning,
			Confidence: 85,
			Message:    "Empty catch block silently swallows exceptions",
			Fix:        "Log or rethrow the exception, or add a comment explaining why it is ignored",
		},
		{
			ID:          "java-sql-injection",
			Group:       GroupSecurity,
			Description: "JDBC and JPA queries assembled from strings.",
			Scope:       Scope{Languages: javaLang},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{
						Label:      "string concatenation",
						Regex:      re(`\.(?P<method>executeQuery|executeUpdate|execute|prepareStatement|createQuery|createNativeQuery)\(\s*"[^"]*"\s*\+`),
						Confidence: 90,
					},
					{
						Label:      "String.format",
						Regex:      re(`\.(?P<method>executeQuery|executeUpdate|execute|prepareStatement|createQuery|createNativeQuery)\(\s*String\.format\(`),
						Confidence: 85,
					},
				},
				MatchCode: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 85,
			Message:    "SQL injection risk: {method}() called with {label}",
			Fix:        "Use a PreparedStatement with ? placeholders or named JPA parameters",
		},
		{
			ID:          "java-system-out",
			Group:       GroupQuality,
			Description: "System.out/err printing in production code.",
			Scope:       Scope{Languages: javaLang},
			Matcher: &match.Pattern{
				Exprs:               []match.Expr{{Regex: re(`\bSystem\.(?P<label>out|err)\.print(ln|f)?\(`)}},
				MatchCode:           true,
				AggregateOver:       3,
				AggregateConfidence: 80,
				AggregateMessage:    "{count} System.out/err print statements found in production code",
				AggregateFix:        "Replace with an SLF4J logger",
			},
			Severity:   model.SeverityWarning,
			Confidence: 70,
			Message:    "System.{label} print in production code",
			Fix:        "Use an SLF4J logger instead",
		},
		{
			ID:          "java-print-stack-trace",
			Group:       GroupQuality,
			Description: "printStackTrace() bypasses logging.",
			Scope:       Scope{Languages: javaLang},
			Matcher: &match.Pattern{
				Exprs:     []match.Expr{{Regex: re(`\.printStackTrace\(\s*\)`)}},
				MatchCode: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 70,
			Message:    "printStackTrace() writes to stderr and bypasses logging",
			Fix:        "Log the exception: log.error(\"context\", e)",
		},
	}
}
