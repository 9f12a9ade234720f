package format

import (
	"fmt"
	"strings"

	"reviewgate/internal/model"
)

// RenderMarkdown produces a pull request comment body.
func RenderMarkdown(r model.Report) string {
	var b strings.Builder

	b.WriteString("## reviewgate\n\n")
	fmt.Fprintf(&b, "**Verdict:** `%s`\n\n", r.Verdict)
	fmt.Fprintf(&b, "- Files scanned: %d\n", r.Summary.Scanned)
	fmt.Fprintf(&b, "- Findings: critical=%d, warning=%d\n", r.Summary.Critical, r.Summary.Warning)
	if r.Summary.Suppressed > 0 {
		fmt.Fprintf(&b, "- Suppressed: %d\n", r.Summary.Suppressed)
	}
	if r.Partial {
		fmt.Fprintf(&b, "- Interrupted: %d files not scanned\n", r.Summary.Unscanned)
	}
	b.WriteString("\n")

	if len(r.Errors) > 0 || len(r.Skipped) > 0 {
		b.WriteString("### Warnings\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- rule `%s` failed on `%s`: %s\n", e.Rule, e.File, sanitizeInline(e.Error))
		}
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "- skipped `%s`: %s\n", s.File, sanitizeInline(s.Reason))
		}
		b.WriteString("\n")
	}

	if len(r.Findings) == 0 {
		b.WriteString("### Findings\n\nNo issues detected.\n")
		return b.String()
	}

	b.WriteString("### Findings\n\n")
	b.WriteString("| # | Location | Severity | Confidence | Issue | Fix |\n")
	b.WriteString("|---:|---|---|---:|---|---|\n")
	for i, f := range r.Findings {
		fmt.Fprintf(&b, "| %d | `%s` | %s | %d%% | %s | %s |\n",
			i+1, f.Location(), f.Severity, f.Confidence, cell(f.Message), cell(f.Fix))
	}
	return b.String()
}

func sanitizeInline(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
