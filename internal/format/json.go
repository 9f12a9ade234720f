package format

import (
	"encoding/json"
	"fmt"

	"reviewgate/internal/model"
)

// SchemaVersion is bumped whenever a field is renamed or removed.
const SchemaVersion = "1"

type jsonReport struct {
	Version    string              `json:"version"`
	Verdict    model.Verdict       `json:"verdict"`
	Partial    bool                `json:"partial"`
	Summary    model.Summary       `json:"summary"`
	Findings   []jsonFinding       `json:"findings"`
	CleanFiles []string            `json:"clean_files"`
	Skipped    []model.SkippedFile `json:"skipped"`
	Errors     []model.RuleError   `json:"errors"`
}

type jsonFinding struct {
	Index int `json:"index"`
	model.Finding
}

// RenderJSON emits the machine-readable report. It carries no timestamps or
// durations so reruns over the same tree are byte-identical.
func RenderJSON(r model.Report) ([]byte, error) {
	out := jsonReport{
		Version:    SchemaVersion,
		Verdict:    r.Verdict,
		Partial:    r.Partial,
		Summary:    r.Summary,
		Findings:   make([]jsonFinding, 0, len(r.Findings)),
		CleanFiles: nonNil(r.CleanFiles),
		Skipped:    nonNil(r.Skipped),
		Errors:     nonNil(r.Errors),
	}
	for i, f := range r.Findings {
		out.Findings = append(out.Findings, jsonFinding{Index: i + 1, Finding: f})
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(b, '\n'), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
