package model

import (
	"fmt"
	"strconv"
	"strings"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Rank orders severities for sorting; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

func ParseSeverity(raw string) (Severity, error) {
	switch Severity(strings.ToUpper(strings.TrimSpace(raw))) {
	case SeverityCritical:
		return SeverityCritical, nil
	case SeverityWarning:
		return SeverityWarning, nil
	default:
		return "", fmt.Errorf("unknown severity %q (want CRITICAL or WARNING)", raw)
	}
}

type Verdict string

const (
	VerdictApprove        Verdict = "APPROVE"
	VerdictComment        Verdict = "COMMENT"
	VerdictRequestChanges Verdict = "REQUEST_CHANGES"
)

type Finding struct {
	File       string   `json:"file"`
	Line       int      `json:"line,omitempty"`
	Severity   Severity `json:"severity"`
	Confidence int      `json:"confidence"`
	RuleID     string   `json:"rule"`
	Message    string   `json:"message"`
	Fix        string   `json:"fix"`
}

// Location renders "file:line", or just the file when the line is unknown.
func (f Finding) Location() string {
	if f.Line <= 0 {
		return f.File
	}
	return f.File + ":" + strconv.Itoa(f.Line)
}

// Less is the total order used for every report: severity desc, confidence
// desc, file, line, rule id, message.
func Less(a, b Finding) bool {
	if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
		return ra > rb
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.File != b.File {
		return a.File < b.File
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	return a.Message < b.Message
}

type Summary struct {
	Scanned    int `json:"scanned"`
	Critical   int `json:"critical"`
	Warning    int `json:"warning"`
	Suppressed int `json:"suppressed"`
	Unscanned  int `json:"unscanned,omitempty"`
}

type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

type RuleError struct {
	Rule  string `json:"rule"`
	File  string `json:"file"`
	Error string `json:"error"`
}

type Report struct {
	Findings   []Finding
	Summary    Summary
	Verdict    Verdict
	CleanFiles []string
	Skipped    []SkippedFile
	Errors     []RuleError
	Partial    bool
}
