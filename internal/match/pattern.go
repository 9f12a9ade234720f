package match

import (
	"regexp"
	"strconv"
)

type Expr struct {
	Label      string
	Regex      *regexp.Regexp
	Confidence int
}

// Pattern tests each line against Exprs in order; the first match wins so a
// line yields at most one hit.
type Pattern struct {
	Exprs   []Expr
	Exclude []*regexp.Regexp
	// MatchCode tests comment-stripped, string-blanked code instead of raw text.
	MatchCode    bool
	SkipComments bool

	// More than AggregateOver hits collapse into one hit at the first line.
	AggregateOver       int
	AggregateConfidence int
	AggregateMessage    string
	AggregateFix        string
}

func (p *Pattern) Kind() Kind { return KindPattern }

func (p *Pattern) Match(f *File) ([]Hit, error) {
	var hits []Hit
	for _, line := range f.Lines {
		if p.SkipComments && line.CommentOnly() {
			continue
		}
		text := lineText(line, p.MatchCode)
		if hit, ok := p.matchLine(text, line.Text); ok {
			hit.Line = line.Number
			hits = append(hits, hit)
		}
	}
	if p.AggregateOver > 0 && len(hits) > p.AggregateOver {
		first := hits[0]
		vars := make(map[string]string, len(first.Vars)+1)
		for k, v := range first.Vars {
			vars[k] = v
		}
		vars["count"] = strconv.Itoa(len(hits))
		return []Hit{{
			Line:       first.Line,
			Confidence: p.AggregateConfidence,
			Message:    p.AggregateMessage,
			Fix:        p.AggregateFix,
			Vars:       vars,
		}}, nil
	}
	return hits, nil
}

func (p *Pattern) matchLine(text, raw string) (Hit, bool) {
	for _, expr := range p.Exprs {
		loc := expr.Regex.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		for _, ex := range p.Exclude {
			if ex.MatchString(raw) {
				return Hit{}, false
			}
		}
		vars := captures(expr.Regex, text, loc)
		if _, ok := vars["label"]; !ok {
			vars["label"] = expr.Label
		}
		return Hit{Confidence: expr.Confidence, Vars: vars}, true
	}
	return Hit{}, false
}
