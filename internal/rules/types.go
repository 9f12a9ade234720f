package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"reviewgate/internal/lang"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

type Group string

const (
	GroupSecurity Group = "security"
	GroupQuality  Group = "quality"
	GroupTenancy  Group = "tenancy"
	GroupAI       Group = "ai"
)

type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceCustom  Source = "custom"
)

// Scope decides whether a rule applies to a file. Languages is a hard
// filter; Frameworks, when set, require the file's resolved framework to be
// one of them; Paths, when set, require a glob match on the relative path.
type Scope struct {
	Languages  []lang.Language
	Frameworks []string
	Paths      []string
}

func (s Scope) Applies(path string, l lang.Language, framework string) bool {
	if !s.hasLanguage(l) {
		return false
	}
	if len(s.Frameworks) > 0 {
		found := false
		for _, fw := range s.Frameworks {
			if fw == framework {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(s.Paths) > 0 {
		for _, glob := range s.Paths {
			if ok, _ := doublestar.Match(glob, path); ok {
				return true
			}
		}
		return false
	}
	return true
}

func (s Scope) hasLanguage(l lang.Language) bool {
	for _, candidate := range s.Languages {
		if candidate == l {
			return true
		}
	}
	return false
}

// Rule is immutable once a Catalog has been built from it.
type Rule struct {
	ID          string
	Group       Group
	Source      Source
	Description string
	Scope       Scope
	Matcher     match.Matcher
	Severity    model.Severity
	Confidence  int
	// Message and Fix may reference {label}, {match}, {count} and any other
	// variable the matcher sets.
	Message string
	Fix     string
}

// Finding renders a hit into a finding for path.
func (r Rule) Finding(path string, hit match.Hit) model.Finding {
	message, fix := r.Message, r.Fix
	if hit.Message != "" {
		message = hit.Message
	}
	if hit.Fix != "" {
		fix = hit.Fix
	}
	confidence := r.Confidence
	if hit.Confidence > 0 {
		confidence = hit.Confidence
	}
	return model.Finding{
		File:       path,
		Line:       hit.Line,
		Severity:   r.Severity,
		Confidence: confidence,
		RuleID:     r.ID,
		Message:    render(message, hit.Vars),
		Fix:        render(fix, hit.Vars),
	}
}

func render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// ValidationError reports every problem found in one rule.
type ValidationError struct {
	Path     string
	RuleID   string
	Problems []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid rule")
	if e.RuleID != "" {
		fmt.Fprintf(&b, " %q", e.RuleID)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(e.Problems, "; "))
	return b.String()
}
