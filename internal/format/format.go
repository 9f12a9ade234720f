// Package format renders a finished report. Every renderer is a pure
// function of the report and its options, so identical scans produce
// identical bytes.
package format

import (
	"fmt"
	"io"
	"strings"

	"reviewgate/internal/model"
)

type Format string

const (
	Table    Format = "table"
	JSON     Format = "json"
	SARIF    Format = "sarif"
	GitHub   Format = "github"
	Markdown Format = "markdown"
)

// Names lists the accepted --format values, aliases included.
var Names = []string{"table", "json", "sarif", "ci-annotation", "github", "markdown"}

func Parse(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "table":
		return Table, nil
	case "json":
		return JSON, nil
	case "sarif", "ci-annotation":
		return SARIF, nil
	case "github":
		return GitHub, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want %s)", raw, strings.Join(Names, "|"))
	}
}

// RuleInfo is the catalog metadata renderers may show next to findings.
type RuleInfo struct {
	Description string
	Severity    model.Severity
}

type Options struct {
	Color   bool
	Version string
	// Rules is keyed by rule id.
	Rules map[string]RuleInfo
}

func Write(w io.Writer, f Format, r model.Report, opts Options) error {
	switch f {
	case Table:
		_, err := io.WriteString(w, RenderTable(r, opts.Color))
		return err
	case JSON:
		b, err := RenderJSON(r)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case SARIF:
		b, err := RenderSARIF(r, opts)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case GitHub:
		_, err := io.WriteString(w, RenderGitHub(r))
		return err
	case Markdown:
		_, err := io.WriteString(w, RenderMarkdown(r))
		return err
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Render is Write into a byte slice, for callers that write files atomically.
func Render(f Format, r model.Report, opts Options) ([]byte, error) {
	var b strings.Builder
	if err := Write(&b, f, r, opts); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
