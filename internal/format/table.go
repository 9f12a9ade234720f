package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reviewgate/internal/model"
)

const (
	maxCleanFiles = 20
	maxCellWidth  = 80
)

var (
	styleCritical = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleWarning  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	styleClean    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleBold     = lipgloss.NewStyle().Bold(true)
	styleFaint    = lipgloss.NewStyle().Faint(true)
)

type painter bool

func (p painter) paint(s lipgloss.Style, text string) string {
	if !p {
		return text
	}
	return s.Render(text)
}

func (p painter) severity(sev model.Severity, text string) string {
	switch sev {
	case model.SeverityCritical:
		return p.paint(styleCritical, text)
	case model.SeverityWarning:
		return p.paint(styleWarning, text)
	default:
		return text
	}
}

// RenderTable is the human report: findings table, totals, clean files and
// the verdict line. Columns are padded before styling so alignment survives
// colour codes.
func RenderTable(r model.Report, color bool) string {
	p := painter(color)
	var b strings.Builder

	if len(r.Findings) > 0 {
		writeFindingsTable(&b, r.Findings, p)
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&b, "  Files scanned:  %d\n", r.Summary.Scanned)
	fmt.Fprintf(&b, "  Findings:       %s, %s\n",
		p.paint(styleCritical, fmt.Sprintf("%d critical", r.Summary.Critical)),
		p.paint(styleWarning, fmt.Sprintf("%d warnings", r.Summary.Warning)),
	)
	if r.Summary.Suppressed > 0 {
		fmt.Fprintf(&b, "  Suppressed:     %d\n", r.Summary.Suppressed)
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "  Skipped:        %d\n", len(r.Skipped))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "  Rule errors:    %d\n", len(r.Errors))
	}
	if r.Partial {
		fmt.Fprintf(&b, "  %s\n", p.paint(styleWarning, fmt.Sprintf("Interrupted: %d files not scanned", r.Summary.Unscanned)))
	}
	b.WriteString("\n")

	if len(r.CleanFiles) > 0 {
		b.WriteString("Clean files (no issues):\n")
		for i, path := range r.CleanFiles {
			if i == maxCleanFiles {
				fmt.Fprintf(&b, "  ... and %d more\n", len(r.CleanFiles)-maxCleanFiles)
				break
			}
			fmt.Fprintf(&b, "  %s %s\n", p.paint(styleClean, "✓"), path)
		}
		b.WriteString("\n")
	}

	if len(r.Skipped) > 0 {
		b.WriteString("Skipped files:\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "  %s %s (%s)\n", p.paint(styleFaint, "-"), s.File, s.Reason)
		}
		b.WriteString("\n")
	}

	b.WriteString(p.paint(styleBold, "VERDICT:") + " " + verdictLine(r, p) + "\n")
	return b.String()
}

func writeFindingsTable(b *strings.Builder, findings []model.Finding, p painter) {
	header := []string{"#", "File:Line", "Severity", "Confidence", "Issue", "Fix"}
	rows := make([][]string, 0, len(findings))
	for i, f := range findings {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			escapeCell(f.Location()),
			string(f.Severity),
			strconv.Itoa(f.Confidence) + "%",
			cell(f.Message),
			cell(f.Fix),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	line := func(cells []string, style func(col int, padded string) string) {
		b.WriteString("|")
		for i, c := range cells {
			var padded string
			if i == 0 || i == 3 {
				padded = strings.Repeat(" ", widths[i]-lipgloss.Width(c)) + c
			} else {
				padded = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
			}
			b.WriteString(" " + style(i, padded) + " |")
		}
		b.WriteString("\n")
	}

	line(header, func(_ int, s string) string { return s })
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2) + "|")
	}
	b.WriteString("\n")
	for r, row := range rows {
		sev := findings[r].Severity
		line(row, func(col int, s string) string {
			if col == 2 {
				return p.severity(sev, s)
			}
			return s
		})
	}
}

// cell flattens text onto one line and caps its width.
func cell(s string) string {
	s = escapeCell(s)
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-3]) + "..."
	}
	return s
}

// escapeCell keeps s on one line and its pipes out of the column layout.
// Locations use it directly so long paths keep their line number.
func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func verdictLine(r model.Report, p painter) string {
	switch r.Verdict {
	case model.VerdictRequestChanges:
		return p.paint(styleCritical, "REQUEST CHANGES") + fmt.Sprintf(" - %d critical issues found", r.Summary.Critical)
	case model.VerdictComment:
		return p.paint(styleWarning, "COMMENT") + fmt.Sprintf(" - %d warnings to consider", r.Summary.Warning)
	default:
		if r.Summary.Scanned == 0 {
			return p.paint(styleClean, "APPROVE") + " - No files to review"
		}
		return p.paint(styleClean, "APPROVE") + " - No issues detected"
	}
}
