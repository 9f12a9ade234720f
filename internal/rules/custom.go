package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"reviewgate/internal/lang"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

// DefaultCustomDir is where custom rules live, relative to the scan root.
const DefaultCustomDir = ".reviewgate/rules"

const maxWindow = 50

// Definition is the on-disk form of a custom rule.
type Definition struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description,omitempty"`
	Status      string   `yaml:"status,omitempty"`
	Group       string   `yaml:"group,omitempty"`
	Languages   []string `yaml:"languages"`
	Frameworks  []string `yaml:"frameworks,omitempty"`
	Paths       []string `yaml:"paths,omitempty"`
	Severity    string   `yaml:"severity"`
	Confidence  int      `yaml:"confidence"`
	Message     string   `yaml:"message"`
	Fix         string   `yaml:"fix,omitempty"`
	Match       MatchDef `yaml:"match"`
}

type MatchDef struct {
	Kind          string   `yaml:"kind"`
	Patterns      []string `yaml:"patterns,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty"`
	SkipComments  bool     `yaml:"skip_comments,omitempty"`
	MatchCode     bool     `yaml:"match_code,omitempty"`
	Trigger       string   `yaml:"trigger,omitempty"`
	Corroborate   string   `yaml:"corroborate,omitempty"`
	Before        int      `yaml:"before,omitempty"`
	After         int      `yaml:"after,omitempty"`

	// More than AggregateOver hits in a file collapse into one finding.
	// AggregateMessage defaults to "{count} matches: " plus the rule message.
	AggregateOver       int    `yaml:"aggregate_over,omitempty"`
	AggregateMessage    string `yaml:"aggregate_message,omitempty"`
	AggregateConfidence int    `yaml:"aggregate_confidence,omitempty"`
}

// LoadCustom reads every *.yaml and *.yml file in dir as one rule. A missing
// directory yields no rules. Disabled rules are skipped after validation.
func LoadCustom(dir string) ([]Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read custom rules %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var out []Rule
	var errs []error
	for _, name := range names {
		r, enabled, err := readCustom(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if enabled {
			out = append(out, r)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func readCustom(path string) (Rule, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Rule{}, false, fmt.Errorf("read rule %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Rule{}, false, fmt.Errorf("refusing symlinked rule file: %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rule{}, false, fmt.Errorf("read rule %s: %w", path, err)
	}
	var def Definition
	if err := yaml.Unmarshal(b, &def); err != nil {
		return Rule{}, false, &ValidationError{Path: path, Problems: []string{"parse yaml: " + err.Error()}}
	}
	r, enabled, problems := def.compile()
	if len(problems) == 0 {
		if err := Validate(r); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				problems = ve.Problems
			}
		}
	}
	if len(problems) > 0 {
		return Rule{}, false, &ValidationError{Path: path, RuleID: def.ID, Problems: problems}
	}
	return r, enabled, nil
}

// compile turns a definition into a rule, collecting every problem rather
// than stopping at the first.
func (def Definition) compile() (Rule, bool, []string) {
	var problems []string

	enabled := true
	switch strings.ToLower(strings.TrimSpace(def.Status)) {
	case "", "enabled":
	case "disabled":
		enabled = false
	default:
		problems = append(problems, "status must be enabled|disabled")
	}

	group := GroupQuality
	switch g := Group(strings.ToLower(strings.TrimSpace(def.Group))); g {
	case "":
	case GroupSecurity, GroupQuality, GroupTenancy, GroupAI:
		group = g
	default:
		problems = append(problems, "group must be security|quality|tenancy|ai")
	}

	langs, err := lang.ParseList(def.Languages)
	if err != nil {
		problems = append(problems, "languages: "+err.Error())
	}

	severity, err := model.ParseSeverity(def.Severity)
	if err != nil {
		problems = append(problems, "severity must be CRITICAL|WARNING")
	}

	matcher, mp := def.Match.compile()
	problems = append(problems, mp...)
	message := strings.TrimSpace(def.Message)
	if p, ok := matcher.(*match.Pattern); ok && p.AggregateOver > 0 && p.AggregateMessage == "" {
		p.AggregateMessage = "{count} matches: " + message
	}

	frameworks := make([]string, 0, len(def.Frameworks))
	for _, fw := range def.Frameworks {
		frameworks = append(frameworks, strings.ToLower(strings.TrimSpace(fw)))
	}

	return Rule{
		ID:          strings.TrimSpace(def.ID),
		Group:       group,
		Source:      SourceCustom,
		Description: strings.TrimSpace(def.Description),
		Scope:       Scope{Languages: langs, Frameworks: frameworks, Paths: def.Paths},
		Matcher:     matcher,
		Severity:    severity,
		Confidence:  def.Confidence,
		Message:     message,
		Fix:         strings.TrimSpace(def.Fix),
	}, enabled, problems
}

func (m MatchDef) compile() (match.Matcher, []string) {
	var problems []string
	compile := func(field, expr string) *regexp.Regexp {
		re, err := regexp.Compile(expr)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must compile as regex: %v", field, err))
			return nil
		}
		return re
	}

	switch match.Kind(strings.ToLower(strings.TrimSpace(m.Kind))) {
	case match.KindPattern:
		if len(m.Patterns) == 0 {
			return nil, []string{"match.patterns must contain at least one pattern"}
		}
		p := &match.Pattern{
			SkipComments:  m.SkipComments,
			MatchCode:     m.MatchCode,
			AggregateOver:       m.AggregateOver,
			AggregateMessage:    strings.TrimSpace(m.AggregateMessage),
			AggregateConfidence: m.AggregateConfidence,
		}
		for i, expr := range m.Patterns {
			if re := compile(fmt.Sprintf("match.patterns[%d]", i), expr); re != nil {
				p.Exprs = append(p.Exprs, match.Expr{Regex: re})
			}
		}
		for i, expr := range m.Exclude {
			if re := compile(fmt.Sprintf("match.exclude[%d]", i), expr); re != nil {
				p.Exclude = append(p.Exclude, re)
			}
		}
		if m.AggregateOver < 0 {
			problems = append(problems, "match.aggregate_over must be >= 0")
		}
		if m.AggregateConfidence < 0 || m.AggregateConfidence > 100 {
			problems = append(problems, "match.aggregate_confidence must be between 0 and 100")
		}
		if len(problems) > 0 {
			return nil, problems
		}
		return p, nil

	case match.KindWindow:
		if strings.TrimSpace(m.Trigger) == "" {
			problems = append(problems, "match.trigger is required for kind=window")
		}
		if strings.TrimSpace(m.Corroborate) == "" {
			problems = append(problems, "match.corroborate is required for kind=window")
		}
		if m.Before < 0 || m.Before > maxWindow || m.After < 0 || m.After > maxWindow {
			problems = append(problems, fmt.Sprintf("match.before and match.after must be between 0 and %d", maxWindow))
		}
		if len(problems) > 0 {
			return nil, problems
		}
		w := &match.Window{
			Trigger:     compile("match.trigger", m.Trigger),
			Corroborate: compile("match.corroborate", m.Corroborate),
			Before:      m.Before,
			After:       m.After,
		}
		if len(problems) > 0 {
			return nil, problems
		}
		return w, nil

	default:
		return nil, []string{"match.kind must be pattern|window"}
	}
}
