package format

import (
	"fmt"
	"strings"

	"reviewgate/internal/model"
)

// RenderGitHub emits GitHub Actions workflow commands, one per finding, so
// findings show up as annotations on the pull request diff.
func RenderGitHub(r model.Report) string {
	var b strings.Builder
	for _, f := range r.Findings {
		level := "warning"
		if f.Severity == model.SeverityCritical {
			level = "error"
		}
		props := []string{"file=" + escapeProperty(f.File)}
		if f.Line > 0 {
			props = append(props, fmt.Sprintf("line=%d", f.Line))
		}
		props = append(props, "title="+escapeProperty(fmt.Sprintf("%s (%d%%)", f.RuleID, f.Confidence)))

		msg := f.Message
		if f.Fix != "" {
			msg += "\nFix: " + f.Fix
		}
		fmt.Fprintf(&b, "::%s %s::%s\n", level, strings.Join(props, ","), escapeData(msg))
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(&b, "::notice file=%s::%s\n", escapeProperty(s.File), escapeData("skipped: "+s.Reason))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "::warning file=%s,title=%s::%s\n", escapeProperty(e.File), escapeProperty("rule error "+e.Rule), escapeData(e.Error))
	}
	fmt.Fprintf(&b, "::notice title=reviewgate::%s\n", escapeData(fmt.Sprintf(
		"%s: %d critical, %d warnings in %d files", r.Verdict, r.Summary.Critical, r.Summary.Warning, r.Summary.Scanned)))
	return b.String()
}

// Escaping follows the actions/toolkit command encoding.
func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

func escapeProperty(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C").Replace(s)
}
