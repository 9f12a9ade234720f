// Package match implements the three matcher strategies rules are built from:
// per-line patterns, proximity windows and empty-block detection.
package match

import (
	"regexp"

	"reviewgate/internal/lang"
)

type Kind string

const (
	KindPattern Kind = "pattern"
	KindWindow  Kind = "window"
	KindBlock   Kind = "block"
)

// File is one lexed source file as seen by matchers.
type File struct {
	Path     string
	Language lang.Language
	Lines    []lang.Line
}

func NewFile(path string, l lang.Language, content string) *File {
	return &File{Path: path, Language: l, Lines: lang.Lex(l, content)}
}

// Hit is a raw match before it becomes a finding. Zero Confidence means the
// rule's base confidence; empty Message or Fix means the rule's templates.
type Hit struct {
	Line       int
	Confidence int
	Message    string
	Fix        string
	Vars       map[string]string
}

type Matcher interface {
	Kind() Kind
	Match(f *File) ([]Hit, error)
}

func lineText(l lang.Line, code bool) string {
	if code {
		return l.Code
	}
	return l.Text
}

// captures returns the whole match as "match" plus every named group that
// participated in it.
func captures(re *regexp.Regexp, text string, loc []int) map[string]string {
	vars := map[string]string{"match": text[loc[0]:loc[1]]}
	for i, name := range re.SubexpNames() {
		if name == "" || 2*i+1 >= len(loc) || loc[2*i] < 0 {
			continue
		}
		vars[name] = text[loc[2*i]:loc[2*i+1]]
	}
	return vars
}
