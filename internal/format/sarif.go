package format

import (
	"encoding/json"
	"fmt"
	"sort"

	"reviewgate/internal/model"
)

// SARIF v2.1.0 types, the subset GitHub code scanning and most CI annotators read.

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Version        string      `json:"version,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    *sarifDefaultConfig `json:"defaultConfiguration,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string           `json:"ruleId"`
	RuleIndex  int              `json:"ruleIndex"`
	Level      string           `json:"level"`
	Message    sarifMessage     `json:"message"`
	Locations  []sarifLocation  `json:"locations"`
	Properties *sarifProperties `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

type sarifProperties struct {
	Confidence int    `json:"confidence"`
	Fix        string `json:"fix,omitempty"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level   string       `json:"level"`
	Message sarifMessage `json:"message"`
}

func RenderSARIF(r model.Report, opts Options) ([]byte, error) {
	b, err := json.MarshalIndent(buildSARIF(r, opts), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sarif report: %w", err)
	}
	return append(b, '\n'), nil
}

func buildSARIF(r model.Report, opts Options) sarifLog {
	ruleIDs := make([]string, 0)
	seen := map[string]bool{}
	for _, f := range r.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			ruleIDs = append(ruleIDs, f.RuleID)
		}
	}
	sort.Strings(ruleIDs)

	ruleIndex := make(map[string]int, len(ruleIDs))
	rules := make([]sarifRule, 0, len(ruleIDs))
	for i, id := range ruleIDs {
		ruleIndex[id] = i
		info := opts.Rules[id]
		desc := info.Description
		if desc == "" {
			desc = id
		}
		rule := sarifRule{ID: id, ShortDescription: sarifMessage{Text: desc}}
		if info.Severity != "" {
			rule.DefaultConfig = &sarifDefaultConfig{Level: sarifLevel(info.Severity)}
		}
		rules = append(rules, rule)
	}

	results := make([]sarifResult, 0, len(r.Findings))
	for _, f := range r.Findings {
		loc := sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: f.File, URIBaseID: "%SRCROOT%"},
		}
		if f.Line > 0 {
			loc.Region = &sarifRegion{StartLine: f.Line}
		}
		results = append(results, sarifResult{
			RuleID:     f.RuleID,
			RuleIndex:  ruleIndex[f.RuleID],
			Level:      sarifLevel(f.Severity),
			Message:    sarifMessage{Text: f.Message},
			Locations:  []sarifLocation{{PhysicalLocation: loc}},
			Properties: &sarifProperties{Confidence: f.Confidence, Fix: f.Fix},
		})
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    "reviewgate",
			Version: opts.Version,
			Rules:   rules,
		}},
		Results: results,
	}
	if len(r.Errors) > 0 || len(r.Skipped) > 0 || r.Partial {
		inv := sarifInvocation{ExecutionSuccessful: !r.Partial}
		for _, e := range r.Errors {
			inv.Notifications = append(inv.Notifications, sarifNotification{
				Level:   "error",
				Message: sarifMessage{Text: fmt.Sprintf("rule %s failed on %s: %s", e.Rule, e.File, e.Error)},
			})
		}
		for _, s := range r.Skipped {
			inv.Notifications = append(inv.Notifications, sarifNotification{
				Level:   "warning",
				Message: sarifMessage{Text: fmt.Sprintf("skipped %s: %s", s.File, s.Reason)},
			})
		}
		run.Invocations = []sarifInvocation{inv}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
}

func sarifLevel(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical:
		return "error"
	case model.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
