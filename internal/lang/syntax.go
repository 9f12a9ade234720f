// Package lang holds the per-language syntax table and a line lexer that
// separates code from comments and string contents. It is deliberately not a
// parser: everything downstream is line-based.
package lang

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

type Language string

const (
	Python     Language = "python"
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Go         Language = "go"
	Java       Language = "java"
)

var extensions = map[string]Language{
	".py":   Python,
	".ts":   TypeScript,
	".tsx":  TypeScript,
	".js":   JavaScript,
	".jsx":  JavaScript,
	".mjs":  JavaScript,
	".cjs":  JavaScript,
	".go":   Go,
	".java": Java,
}

// All returns every supported language in a stable order.
func All() []Language {
	return []Language{Python, TypeScript, JavaScript, Go, Java}
}

// Detect maps a file path to its language by extension. The second return is
// false for unsupported files.
func Detect(path string) (Language, bool) {
	l, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// Parse accepts a language id as used in config and on the command line.
func Parse(raw string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "python", "py":
		return Python, nil
	case "typescript", "ts":
		return TypeScript, nil
	case "javascript", "js":
		return JavaScript, nil
	case "go", "golang":
		return Go, nil
	case "java":
		return Java, nil
	}
	return "", fmt.Errorf("unsupported language %q", raw)
}

// ParseList parses a list of language ids, dropping duplicates.
func ParseList(raw []string) ([]Language, error) {
	seen := map[Language]bool{}
	out := make([]Language, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			l, err := Parse(part)
			if err != nil {
				return nil, err
			}
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Syntax is the data table that lets one engine serve every language.
type Syntax struct {
	LineComments []string
	// BlockComment is the open/close pair, empty when the language has none.
	BlockComment [2]string
	Quotes       string
	// Indented marks languages whose blocks are delimited by indentation.
	Indented bool
	// Delimiters are characters that never make a block body meaningful.
	Delimiters string
	Noops      []string
}

var syntaxes = map[Language]Syntax{
	Python: {
		LineComments: []string{"#"},
		Quotes:       `"'`,
		Indented:     true,
		Noops:        []string{"pass", "..."},
	},
	TypeScript: cStyle("\"'`"),
	JavaScript: cStyle("\"'`"),
	Go:         cStyle("\"'`"),
	Java:       cStyle(`"'`),
}

func cStyle(quotes string) Syntax {
	return Syntax{
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       quotes,
		Delimiters:   "{}();,",
	}
}

func SyntaxFor(l Language) Syntax {
	return syntaxes[l]
}

// IsNoop reports whether a stripped statement carries no behavior: empty,
// made only of delimiters, or a language no-op such as pass.
func (s Syntax) IsNoop(code string) bool {
	trimmed := strings.TrimSpace(code)
	if s.Delimiters != "" {
		trimmed = strings.TrimSpace(strings.Map(func(r rune) rune {
			if strings.ContainsRune(s.Delimiters, r) {
				return ' '
			}
			return r
		}, trimmed))
	}
	if trimmed == "" {
		return true
	}
	for _, noop := range s.Noops {
		if trimmed == noop {
			return true
		}
	}
	return false
}
