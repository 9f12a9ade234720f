package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"reviewgate/internal/config"
	"reviewgate/internal/lang"
	"reviewgate/internal/model"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// Catalog is the immutable, language-partitioned rule set for one scan.
type Catalog struct {
	rules  []Rule
	byLang map[lang.Language][]Rule
}

// Build assembles the builtin rules gated by cfg plus any custom rules found
// in customDir.
func Build(cfg config.Config, customDir string) (*Catalog, error) {
	all := Builtins(cfg)
	if customDir != "" {
		custom, err := LoadCustom(customDir)
		if err != nil {
			return nil, err
		}
		all = append(all, custom...)
	}
	return NewCatalog(all)
}

func NewCatalog(rules []Rule) (*Catalog, error) {
	c := &Catalog{byLang: map[lang.Language][]Rule{}}
	seen := map[string]bool{}
	var errs []error
	for _, r := range rules {
		if err := Validate(r); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[r.ID] {
			errs = append(errs, &ValidationError{RuleID: r.ID, Problems: []string{"duplicate rule id"}})
			continue
		}
		seen[r.ID] = true
		c.rules = append(c.rules, r)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(c.rules, func(i, j int) bool { return c.rules[i].ID < c.rules[j].ID })
	for _, r := range c.rules {
		for _, l := range r.Scope.Languages {
			c.byLang[l] = append(c.byLang[l], r)
		}
	}
	return c, nil
}

// Validate checks the invariants every rule must satisfy before it can run.
func Validate(r Rule) error {
	var problems []string
	if !idPattern.MatchString(r.ID) {
		problems = append(problems, "id must match "+idPattern.String())
	}
	if len(r.Scope.Languages) == 0 {
		problems = append(problems, "at least one language is required")
	}
	if r.Matcher == nil {
		problems = append(problems, "matcher is required")
	}
	if r.Severity != model.SeverityCritical && r.Severity != model.SeverityWarning {
		problems = append(problems, fmt.Sprintf("severity %q must be CRITICAL or WARNING", r.Severity))
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		problems = append(problems, fmt.Sprintf("confidence %d out of range 0-100", r.Confidence))
	}
	if r.Message == "" {
		problems = append(problems, "message is required")
	}
	if len(problems) > 0 {
		return &ValidationError{RuleID: r.ID, Problems: problems}
	}
	return nil
}

// Applicable returns the rules for a file in catalog order.
func (c *Catalog) Applicable(path string, l lang.Language, framework string) []Rule {
	candidates := c.byLang[l]
	out := make([]Rule, 0, len(candidates))
	for _, r := range candidates {
		if r.Scope.Applies(path, l, framework) {
			out = append(out, r)
		}
	}
	return out
}

// Rules returns every rule sorted by id.
func (c *Catalog) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

func (c *Catalog) Len() int { return len(c.rules) }
