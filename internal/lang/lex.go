package lang

import "strings"

type Line struct {
	Number int
	Text   string
	// Code is Text with comments removed and string contents blanked, so
	// braces and keywords inside literals never count as code.
	Code    string
	Comment bool
	// CommentAt holds the Code offset each comment on the line sits at: a
	// comment at k falls between Code[k-1] and Code[k].
	CommentAt []int
	Indent    int
}

// CommentOnly reports whether the line holds a comment and no code.
func (l Line) CommentOnly() bool {
	return l.Comment && strings.TrimSpace(l.Code) == ""
}

// Blank reports whether the line is empty after trimming.
func (l Line) Blank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// Lex splits content into numbered lines. Block comments carry across lines;
// string literals do not, which misreads multi-line strings but keeps the
// lexer single pass.
func Lex(l Language, content string) []Line {
	syn := SyntaxFor(l)
	raw := splitLines(content)
	out := make([]Line, 0, len(raw))
	inBlock := false
	for i, text := range raw {
		var code string
		var at []int
		code, at, inBlock = stripLine(text, syn, inBlock)
		out = append(out, Line{
			Number:    i + 1,
			Text:      text,
			Code:      code,
			Comment:   len(at) > 0,
			CommentAt: at,
			Indent:    indentOf(text),
		})
	}
	return out
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func stripLine(text string, syn Syntax, inBlock bool) (string, []int, bool) {
	var b strings.Builder
	b.Grow(len(text))
	var at []int
	if inBlock && text != "" {
		at = append(at, 0)
	}
	var quote byte
	open, closeTok := syn.BlockComment[0], syn.BlockComment[1]

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inBlock:
			if strings.HasPrefix(text[i:], closeTok) {
				inBlock = false
				i += len(closeTok) - 1
			}
		case quote != 0:
			if c == '\\' && quote != '`' && i+1 < len(text) {
				b.WriteString("  ")
				i++
				continue
			}
			if c == quote {
				quote = 0
				b.WriteByte(c)
				continue
			}
			b.WriteByte(' ')
		case open != "" && strings.HasPrefix(text[i:], open):
			inBlock = true
			at = append(at, b.Len())
			i += len(open) - 1
		case startsLineComment(text[i:], syn):
			return b.String(), append(at, b.Len()), inBlock
		default:
			if strings.IndexByte(syn.Quotes, c) >= 0 {
				quote = c
			}
			b.WriteByte(c)
		}
	}
	return b.String(), at, inBlock
}

func startsLineComment(rest string, syn Syntax) bool {
	for _, prefix := range syn.LineComments {
		if strings.HasPrefix(rest, prefix) {
			return true
		}
	}
	return false
}

// indentOf counts leading whitespace columns, a tab counting as four.
func indentOf(text string) int {
	n := 0
	for _, r := range text {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}
