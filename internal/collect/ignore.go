package collect

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName is read from the scan root when present.
const IgnoreFileName = ".reviewgateignore"

// IgnoreRules holds gitignore-style patterns. The last matching pattern wins,
// so a later "!pattern" re-includes what an earlier one excluded.
type IgnoreRules struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	negated bool
	dirOnly bool
	glob    string
}

// LoadIgnoreFile returns nil rules (not an error) if the file does not exist.
func LoadIgnoreFile(path string) (*IgnoreRules, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ParseIgnorePatterns(lines), nil
}

// ParseIgnorePatterns translates each line into a doublestar glob. Patterns
// without a slash match at any depth; patterns with one are anchored to the
// root. Invalid globs are dropped.
func ParseIgnorePatterns(lines []string) *IgnoreRules {
	rules := &IgnoreRules{}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var p ignorePattern
		if strings.HasPrefix(line, "!") {
			p.negated = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			p.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.Contains(line, "/") {
			line = strings.TrimPrefix(line, "/")
		} else {
			line = "**/" + line
		}
		if line == "" || !doublestar.ValidatePattern(line) {
			continue
		}
		p.glob = line
		rules.patterns = append(rules.patterns, p)
	}
	return rules
}

// ShouldIgnore reports whether rel (slash-separated, relative to the root)
// is excluded. A nil receiver ignores nothing.
func (r *IgnoreRules) ShouldIgnore(rel string, isDir bool) bool {
	if r == nil {
		return false
	}
	rel = path.Clean(rel)
	ignored := false
	for _, p := range r.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(p.glob, rel); ok {
			ignored = !p.negated
		}
	}
	return ignored
}
