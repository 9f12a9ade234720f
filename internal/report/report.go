// Package report aggregates per-file scan results into the final report and
// decides its verdict.
package report

import (
	"sort"

	"reviewgate/internal/model"
)

// Exit codes shared by every command.
const (
	ExitOK       = 0
	ExitFindings = 1
	ExitError    = 2
)

// Input is everything the scan produced, in any order.
type Input struct {
	Findings   []model.Finding
	Scanned    []string
	Skipped    []model.SkippedFile
	Errors     []model.RuleError
	Suppressed int
	Unscanned  int
	Partial    bool
}

// Build merges scan output into a report. The result does not depend on the
// order of anything in in.
func Build(in Input) model.Report {
	findings := append([]model.Finding(nil), in.Findings...)
	sort.SliceStable(findings, func(i, j int) bool { return model.Less(findings[i], findings[j]) })

	summary := model.Summary{
		Scanned:    len(uniq(in.Scanned)),
		Suppressed: in.Suppressed,
		Unscanned:  in.Unscanned,
	}
	withFindings := map[string]bool{}
	for _, f := range findings {
		withFindings[f.File] = true
		switch f.Severity {
		case model.SeverityCritical:
			summary.Critical++
		case model.SeverityWarning:
			summary.Warning++
		}
	}

	clean := []string{}
	for _, path := range uniq(in.Scanned) {
		if !withFindings[path] {
			clean = append(clean, path)
		}
	}

	skipped := append([]model.SkippedFile{}, in.Skipped...)
	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].File != skipped[j].File {
			return skipped[i].File < skipped[j].File
		}
		return skipped[i].Reason < skipped[j].Reason
	})
	errs := append([]model.RuleError{}, in.Errors...)
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].File != errs[j].File {
			return errs[i].File < errs[j].File
		}
		if errs[i].Rule != errs[j].Rule {
			return errs[i].Rule < errs[j].Rule
		}
		return errs[i].Error < errs[j].Error
	})

	if findings == nil {
		findings = []model.Finding{}
	}
	return model.Report{
		Findings:   findings,
		Summary:    summary,
		Verdict:    VerdictFor(summary),
		CleanFiles: clean,
		Skipped:    skipped,
		Errors:     errs,
		Partial:    in.Partial,
	}
}

func VerdictFor(s model.Summary) model.Verdict {
	switch {
	case s.Critical > 0:
		return model.VerdictRequestChanges
	case s.Warning > 0:
		return model.VerdictComment
	default:
		return model.VerdictApprove
	}
}

// ExitCode maps a finished report to the process exit status. An interrupted
// scan is an error regardless of its findings; with strict, so is any
// skipped file.
func ExitCode(r model.Report, strict bool) int {
	if r.Partial {
		return ExitError
	}
	if strict && len(r.Skipped) > 0 {
		return ExitError
	}
	if r.Verdict == model.VerdictRequestChanges {
		return ExitFindings
	}
	return ExitOK
}

func uniq(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	n := 0
	for i, p := range out {
		if i > 0 && p == out[n-1] {
			continue
		}
		out[n] = p
		n++
	}
	return out[:n]
}
