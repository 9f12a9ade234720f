package suppress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Rule is one entry of the centralized suppressions file.
type Rule struct {
	Rule    string `yaml:"rule"`
	Files   string `yaml:"files,omitempty"`
	Reason  string `yaml:"reason"`
	Expires string `yaml:"expires,omitempty"`
}

type suppressionsFile struct {
	Suppressions []Rule `yaml:"suppressions"`
}

func DefaultPath(root string) string {
	return filepath.Join(root, ".reviewgate", "suppressions.yaml")
}

// IsExpired returns true if the rule has an expiration date that has passed.
func (r Rule) IsExpired(now time.Time) bool {
	if r.Expires == "" {
		return false
	}
	t, err := time.Parse(time.DateOnly, r.Expires)
	if err != nil {
		return false
	}
	return now.After(t)
}

// Load reads suppression rules. A missing file yields nil rules and nil error.
func Load(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, nil
	}
	var sf suppressionsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, rule := range sf.Suppressions {
		switch {
		case strings.TrimSpace(rule.Rule) == "":
			return nil, fmt.Errorf("%s: suppression %d: rule is required", path, i+1)
		case strings.TrimSpace(rule.Reason) == "":
			return nil, fmt.Errorf("%s: suppression %d: reason is required", path, i+1)
		case rule.Files != "" && !doublestar.ValidatePattern(rule.Files):
			return nil, fmt.Errorf("%s: suppression %d: invalid files glob %q", path, i+1, rule.Files)
		}
		if rule.Expires != "" {
			if _, err := time.Parse(time.DateOnly, rule.Expires); err != nil {
				return nil, fmt.Errorf("%s: suppression %d: expires must be YYYY-MM-DD", path, i+1)
			}
		}
	}
	return Rules(sf.Suppressions), nil
}

type Rules []Rule

// Suppressed reports whether an unexpired entry covers ruleID for path.
func (rs Rules) Suppressed(ruleID, path string, now time.Time) bool {
	for _, r := range rs {
		if r.Rule != ruleID || r.IsExpired(now) {
			continue
		}
		if r.Files == "" {
			return true
		}
		if ok, _ := doublestar.Match(r.Files, path); ok {
			return true
		}
	}
	return false
}
