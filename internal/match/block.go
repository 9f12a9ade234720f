package match

import (
	"regexp"
	"strings"

	"reviewgate/internal/lang"
)

// DefaultMaxLines is the block ceiling, counted from the trigger line through
// the closing line inclusive.
const DefaultMaxLines = 3

// Block fires on a trigger whose block has no meaningful statement and no
// comment and spans at most MaxLines lines. For brace languages Trigger must
// match up to and including the opening brace; for indented languages up to
// the colon.
type Block struct {
	Label    string
	Trigger  *regexp.Regexp
	MaxLines int
}

func (b *Block) Kind() Kind { return KindBlock }

func (b *Block) Match(f *File) ([]Hit, error) {
	limit := b.MaxLines
	if limit <= 0 {
		limit = DefaultMaxLines
	}
	syn := lang.SyntaxFor(f.Language)

	var hits []Hit
	for i, line := range f.Lines {
		loc := b.Trigger.FindStringIndex(line.Code)
		if loc == nil {
			continue
		}
		var empty bool
		if syn.Indented {
			empty = scanIndented(f.Lines, i, loc[1], syn, limit)
		} else {
			empty = scanBraces(f.Lines, i, loc, syn, limit)
		}
		if empty {
			hits = append(hits, Hit{
				Line: line.Number,
				Vars: map[string]string{"label": b.Label},
			})
		}
	}
	return hits, nil
}

// blockScan is the IN_BLOCK state: it only ever moves toward a verdict.
type blockScan struct {
	syn        lang.Syntax
	meaningful bool
	commented  bool
}

func (s *blockScan) body(code string, commented bool) {
	if commented {
		s.commented = true
	}
	if !s.syn.IsNoop(code) {
		s.meaningful = true
	}
}

func (s *blockScan) settled() bool {
	return s.meaningful || s.commented
}

func scanBraces(lines []lang.Line, start int, loc []int, syn lang.Syntax, limit int) bool {
	open := strings.LastIndexByte(lines[start].Code[loc[0]:loc[1]], '{')
	if open < 0 {
		return false
	}
	s := &blockScan{syn: syn}
	depth := 0
	for i := start; i < len(lines) && i-start < limit; i++ {
		code := lines[i].Code
		// Comments count only strictly after the opening brace and up to
		// the closing one.
		from, to := -1, len(code)
		if i == start {
			from = loc[0] + open
		}
		var inner strings.Builder
		closed := false
		for j := max(from, 0); j < len(code) && !closed; j++ {
			c := code[j]
			switch c {
			case '{':
				depth++
				if depth == 1 {
					continue
				}
			case '}':
				depth--
				if depth == 0 {
					closed = true
					to = j
					continue
				}
			}
			inner.WriteByte(c)
		}
		s.body(inner.String(), commentWithin(lines[i], from, to))
		if s.settled() {
			return false
		}
		if closed {
			return true
		}
	}
	return false
}

// commentWithin reports whether l has a comment at a Code offset in (from, to].
func commentWithin(l lang.Line, from, to int) bool {
	for _, at := range l.CommentAt {
		if at > from && at <= to {
			return true
		}
	}
	return false
}

func scanIndented(lines []lang.Line, start, colon int, syn lang.Syntax, limit int) bool {
	s := &blockScan{syn: syn}
	trigger := lines[start]
	if rest := strings.TrimSpace(trigger.Code[colon:]); rest != "" {
		s.body(rest, trigger.Comment)
		return !s.settled()
	}
	if trigger.Comment {
		return false
	}

	base := trigger.Indent
	for i := start + 1; i < len(lines); i++ {
		l := lines[i]
		if l.Blank() {
			continue
		}
		if l.Indent <= base {
			break
		}
		if i-start+1 > limit {
			return false
		}
		s.body(l.Code, l.Comment)
		if s.settled() {
			return false
		}
	}
	return true
}
