package rules

import (
	"regexp"

	"reviewgate/internal/config"
	"reviewgate/internal/lang"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

var (
	allLangs = lang.All()
	jsLangs  = []lang.Language{lang.TypeScript, lang.JavaScript}
	pyLangs  = []lang.Language{lang.Python}
	goLangs  = []lang.Language{lang.Go}
	javaLang = []lang.Language{lang.Java}
)

// nearTestOrExample suppresses window hits next to test or example code.
// Crude, but it matches how the rules were tuned.
var nearTestOrExample = regexp.MustCompile(`(?i)\b(test|tests|example|examples)\b`)

// Builtins returns the shipped rules. Tenancy rules need tenancy enabled, a
// tenant key and a supported ORM; AI rules need the AI-assisted flag. Groups
// whose inputs are missing are left out.
func Builtins(cfg config.Config) []Rule {
	var out []Rule
	out = append(out, universalRules()...)
	out = append(out, pythonRules()...)
	out = append(out, javascriptRules()...)
	out = append(out, goRules()...)
	out = append(out, javaRules()...)
	if cfg.AIAssisted() {
		out = append(out, aiRules()...)
	}
	if cfg.TenancyEnabled() {
		out = append(out, tenancyRules(cfg.TenantKey(), cfg.ORM())...)
	}
	for i := range out {
		out[i].Source = SourceBuiltin
	}
	return out
}

func re(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}

func universalRules() []Rule {
	return []Rule{
		{
			ID:          "secret-hardcoded",
			Group:       GroupSecurity,
			Description: "Credentials, tokens and private keys committed in source.",
			Scope:       Scope{Languages: allLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Label: "Stripe key", Regex: re(`(sk_live_|sk_test_|pk_live_|pk_test_)[A-Za-z0-9]{10,}`)},
					{Label: "Hardcoded secret", Regex: re(`(?i)(api[_-]?key|apikey|secret[_-]?key|auth[_-]?token|access[_-]?token)["']?\s*(:=|=|:)\s*["'][A-Za-z0-9_\-]{8,}["']`)},
					{Label: "Hardcoded Bearer token", Regex: re(`Bearer\s+[A-Za-z0-9_\-\.]{20,}`)},
					{Label: "Private key in source", Regex: re(`-----BEGIN (RSA |EC )?PRIVATE KEY-----`)},
					{Label: "GitHub token", Regex: re(`(ghp_|gho_|ghu_|ghs_|ghr_)[A-Za-z0-9_]{36,}`)},
					{Label: "AWS access key", Regex: re(`AKIA[0-9A-Z]{16}`)},
					{Label: "Slack token", Regex: re(`xox[bporas]-[0-9]{10,}-[A-Za-z0-9]{10,}`)},
				},
				Exclude: []*regexp.Regexp{
					re(`os\.environ|os\.getenv|process\.env|os\.Getenv|System\.getenv|ENV\[`),
					re(`(?i)\b(example|placeholder|dummy|changeme|your[_-]?(api[_-]?)?key)\b`),
				},
				SkipComments: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 90,
			Message:    "Hardcoded secret detected: {label}",
			Fix:        "Move to environment variable or secrets manager",
		},
		{
			ID:          "tls-verification-disabled",
			Group:       GroupSecurity,
			Description: "TLS certificate verification switched off.",
			Scope:       Scope{Languages: allLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Label: "InsecureSkipVerify", Regex: re(`InsecureSkipVerify:\s*true`)},
					{Label: "verify=False", Regex: re(`\bverify\s*=\s*False\b`)},
					{Label: "rejectUnauthorized: false", Regex: re(`rejectUnauthorized\s*:\s*false`)},
					{Label: "NODE_TLS_REJECT_UNAUTHORIZED", Regex: re(`NODE_TLS_REJECT_UNAUTHORIZED\s*=\s*['"]?0`)},
					{Label: "NoopHostnameVerifier", Regex: re(`NoopHostnameVerifier|ALLOW_ALL_HOSTNAME_VERIFIER`)},
				},
				SkipComments: true,
			},
			Severity:   model.SeverityCritical,
			Confidence: 85,
			Message:    "TLS certificate verification disabled ({label})",
			Fix:        "Keep verification on; trust a custom CA bundle instead of disabling checks",
		},
	}
}

func aiRules() []Rule {
	return []Rule{
		{
			ID:          "ai-placeholder-impl",
			Group:       GroupAI,
			Description: "Stub bodies generated code tends to leave behind.",
			Scope:       Scope{Languages: allLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Label: "NotImplementedError", Regex: re(`\braise\s+NotImplementedError\b`)},
					{Label: "not implemented", Regex: re(`(?i)(throw\s+new\s+\w*Error|panic)\(\s*["'` + "`" + `]not (yet )?implemented`)},
					{Label: "UnsupportedOperationException", Regex: re(`throw\s+new\s+UnsupportedOperationException\(\s*\)`)},
					{Label: "placeholder comment", Regex: re(`(?i)(//|#)\s*(TODO:?\s*implement|your (code|logic) here|implementation goes here|add (your )?logic here)`)},
				},
			},
			Severity:   model.SeverityWarning,
			Confidence: 75,
			Message:    "Placeholder implementation left in code ({label})",
			Fix:        "Implement the logic or remove the stub before merging",
		},
		{
			ID:          "ai-ts-any",
			Group:       GroupAI,
			Description: "Explicit any erases type checking.",
			Scope:       Scope{Languages: []lang.Language{lang.TypeScript}},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Regex: re(`(:\s*any\b|\bas\s+any\b|<any>)`)},
				},
				MatchCode:           true,
				AggregateOver:       3,
				AggregateConfidence: 65,
				AggregateMessage:    "{count} uses of 'any' type",
			},
			Severity:   model.SeverityWarning,
			Confidence: 60,
			Message:    "Explicit 'any' type disables type checking",
			Fix:        "Use a concrete type, a generic, or 'unknown' with narrowing",
		},
		{
			ID:          "ai-mock-data",
			Group:       GroupAI,
			Description: "Fabricated sample data in production paths.",
			Scope:       Scope{Languages: allLangs},
			Matcher: &match.Pattern{
				Exprs: []match.Expr{
					{Regex: re(`(?i)(lorem ipsum|john\.doe@|jane\.doe@|foo@bar\.com|123-45-6789|555-0[01]\d\d)`)},
				},
				SkipComments: true,
			},
			Severity:   model.SeverityWarning,
			Confidence: 65,
			Message:    "Mock or placeholder data in production code: {match}",
			Fix:        "Load real data from its source or move samples into fixtures",
		},
	}
}
