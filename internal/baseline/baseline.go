// Package baseline compares a scan against an earlier JSON report so a gate
// can fail only on findings introduced since then.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"reviewgate/internal/model"
	"reviewgate/internal/report"
)

// Summary holds aggregate counts for a baseline comparison.
type Summary struct {
	New       int `json:"new"`
	Fixed     int `json:"fixed"`
	Unchanged int `json:"unchanged"`
}

// Diff is the result of comparing current findings against a baseline.
type Diff struct {
	New       []model.Finding
	Fixed     []model.Finding
	Unchanged []model.Finding
	Summary   Summary
}

type reportFile struct {
	Version  string          `json:"version"`
	Findings []model.Finding `json:"findings"`
}

// Load reads the findings of a report written by `scan --format json`.
func Load(path string) ([]model.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	var rf reportFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if rf.Version != "1" {
		return nil, fmt.Errorf("baseline %s: unsupported report version %q", path, rf.Version)
	}
	return rf.Findings, nil
}

// Compare matches findings by rule, file and message. Line numbers are left
// out of the key so edits above a finding do not make it new. Identical keys
// are matched one to one.
func Compare(baseline, current []model.Finding) Diff {
	remaining := make(map[string]int, len(baseline))
	for _, f := range baseline {
		remaining[findingKey(f)]++
	}

	var d Diff
	for _, f := range current {
		key := findingKey(f)
		if remaining[key] > 0 {
			remaining[key]--
			d.Unchanged = append(d.Unchanged, f)
			continue
		}
		d.New = append(d.New, f)
	}

	unmatched := make(map[string]int, len(baseline))
	for _, f := range current {
		unmatched[findingKey(f)]++
	}
	for _, f := range baseline {
		key := findingKey(f)
		if unmatched[key] > 0 {
			unmatched[key]--
			continue
		}
		d.Fixed = append(d.Fixed, f)
	}

	sortFindings(d.New)
	sortFindings(d.Fixed)
	sortFindings(d.Unchanged)
	d.Summary = Summary{New: len(d.New), Fixed: len(d.Fixed), Unchanged: len(d.Unchanged)}
	return d
}

// Apply drops baselined findings from r and recomputes totals, clean files
// and the verdict. Dropped findings count as suppressed.
func Apply(r model.Report, baseline []model.Finding) (model.Report, Diff) {
	d := Compare(baseline, r.Findings)

	scanned := append([]string(nil), r.CleanFiles...)
	for _, f := range r.Findings {
		scanned = append(scanned, f.File)
	}
	out := report.Build(report.Input{
		Findings:   d.New,
		Scanned:    scanned,
		Skipped:    r.Skipped,
		Errors:     r.Errors,
		Suppressed: r.Summary.Suppressed + len(d.Unchanged),
		Unscanned:  r.Summary.Unscanned,
		Partial:    r.Partial,
	})
	return out, d
}

func findingKey(f model.Finding) string {
	return f.RuleID + "|" + f.File + "|" + strings.TrimSpace(f.Message)
}

func sortFindings(findings []model.Finding) {
	sort.SliceStable(findings, func(i, j int) bool { return model.Less(findings[i], findings[j]) })
}
