package suppress

import (
	"strings"

	"reviewgate/internal/lang"
)

// Marker introduces an inline suppression inside a comment:
//
//	password = load()  # reviewgate:ignore secret-hardcoded -- loaded at runtime
//
// It covers its own line and the line directly below it.
const Marker = "reviewgate:ignore"

type Directive struct {
	Rules  []string
	Reason string
	Line   int
}

// Set indexes directives by the line they were written on.
type Set map[int]Directive

// ParseInline collects directives from comment text. Markers inside string
// literals are ignored because only lines carrying a comment are considered.
func ParseInline(lines []lang.Line) Set {
	set := Set{}
	for _, line := range lines {
		if !line.Comment {
			continue
		}
		if d, ok := parseDirective(line.Text); ok {
			d.Line = line.Number
			set[line.Number] = d
		}
	}
	return set
}

// Suppressed reports whether a finding for ruleID at line is covered by a
// directive on that line or the one above.
func (s Set) Suppressed(ruleID string, line int) bool {
	if line <= 0 || len(s) == 0 {
		return false
	}
	for _, at := range []int{line, line - 1} {
		d, ok := s[at]
		if !ok {
			continue
		}
		for _, id := range d.Rules {
			if id == ruleID {
				return true
			}
		}
	}
	return false
}

// parseDirective extracts rule ids and the optional reason from
// "reviewgate:ignore <rule-id>[,<rule-id>...] [-- reason]".
func parseDirective(text string) (Directive, bool) {
	idx := strings.Index(strings.ToLower(text), Marker)
	if idx < 0 {
		return Directive{}, false
	}
	rest := text[idx+len(Marker):]
	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "*/"))
	if rest == "" {
		return Directive{}, false
	}

	var d Directive
	if dash := strings.Index(rest, "--"); dash >= 0 {
		d.Reason = strings.TrimSpace(rest[dash+2:])
		rest = rest[:dash]
	}
	for _, field := range strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		// A bare wildcard would silence every rule; ids must be explicit.
		if field == "*" || field == "all" {
			continue
		}
		d.Rules = append(d.Rules, field)
	}
	if len(d.Rules) == 0 {
		return Directive{}, false
	}
	return d, true
}
