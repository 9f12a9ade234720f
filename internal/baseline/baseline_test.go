package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"reviewgate/internal/model"
	"reviewgate/internal/report"
)

func finding(rule, file string, line int, sev model.Severity) model.Finding {
	return model.Finding{RuleID: rule, File: file, Line: line, Severity: sev, Confidence: 90, Message: rule + " in " + file}
}

func TestCompare_AllNew(t *testing.T) {
	current := []model.Finding{
		finding("py-eval-exec", "a.py", 1, model.SeverityCritical),
		finding("py-print", "b.py", 3, model.SeverityWarning),
	}
	d := Compare(nil, current)
	if d.Summary.New != 2 || d.Summary.Fixed != 0 || d.Summary.Unchanged != 0 {
		t.Fatalf("unexpected summary: %+v", d.Summary)
	}
}

func TestCompare_AllFixed(t *testing.T) {
	d := Compare([]model.Finding{finding("py-eval-exec", "a.py", 1, model.SeverityCritical)}, nil)
	if d.Summary.New != 0 || d.Summary.Fixed != 1 {
		t.Fatalf("unexpected summary: %+v", d.Summary)
	}
}

func TestCompare_IgnoresLineShifts(t *testing.T) {
	base := []model.Finding{
		finding("secret-hardcoded", "cfg.py", 3, model.SeverityCritical),
		finding("py-bare-except", "old.py", 9, model.SeverityWarning),
	}
	current := []model.Finding{
		finding("secret-hardcoded", "cfg.py", 12, model.SeverityCritical),
		finding("py-sql-injection", "db.py", 4, model.SeverityCritical),
	}

	d := Compare(base, current)
	if d.Summary.New != 1 || d.Summary.Fixed != 1 || d.Summary.Unchanged != 1 {
		t.Fatalf("unexpected summary: %+v", d.Summary)
	}
	if d.New[0].RuleID != "py-sql-injection" {
		t.Fatalf("expected new py-sql-injection, got %q", d.New[0].RuleID)
	}
	if d.Fixed[0].RuleID != "py-bare-except" {
		t.Fatalf("expected fixed py-bare-except, got %q", d.Fixed[0].RuleID)
	}
	if d.Unchanged[0].Line != 12 {
		t.Fatalf("unchanged findings keep their current line, got %d", d.Unchanged[0].Line)
	}
}

func TestCompare_DuplicatesMatchOneToOne(t *testing.T) {
	f := finding("js-console-log", "app.js", 1, model.SeverityWarning)
	d := Compare([]model.Finding{f}, []model.Finding{f, f})
	if d.Summary.New != 1 || d.Summary.Unchanged != 1 || d.Summary.Fixed != 0 {
		t.Fatalf("unexpected summary: %+v", d.Summary)
	}
}

func TestApply_RecomputesVerdict(t *testing.T) {
	secret := finding("secret-hardcoded", "cfg.py", 3, model.SeverityCritical)
	warn := finding("py-print", "jobs.py", 2, model.SeverityWarning)
	rep := report.Build(report.Input{
		Findings:   []model.Finding{secret, warn},
		Scanned:    []string{"cfg.py", "jobs.py", "ok.py"},
		Suppressed: 1,
	})

	out, d := Apply(rep, []model.Finding{secret})
	if d.Summary.Unchanged != 1 {
		t.Fatalf("expected 1 unchanged, got %+v", d.Summary)
	}
	if out.Verdict != model.VerdictComment {
		t.Fatalf("expected COMMENT after baselining the critical, got %s", out.Verdict)
	}
	if out.Summary.Critical != 0 || out.Summary.Warning != 1 || out.Summary.Suppressed != 2 || out.Summary.Scanned != 3 {
		t.Fatalf("unexpected summary: %+v", out.Summary)
	}
	want := []string{"cfg.py", "ok.py"}
	if len(out.CleanFiles) != 2 || out.CleanFiles[0] != want[0] || out.CleanFiles[1] != want[1] {
		t.Fatalf("unexpected clean files: %v", out.CleanFiles)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "base.json")
	if err := os.WriteFile(good, []byte(`{"version":"1","findings":[{"index":1,"file":"a.py","line":2,"severity":"CRITICAL","confidence":95,"rule":"py-eval-exec","message":"eval","fix":""}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	fs, err := Load(good)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(fs) != 1 || fs[0].RuleID != "py-eval-exec" || fs[0].Line != 2 {
		t.Fatalf("unexpected findings: %+v", fs)
	}

	old := filepath.Join(dir, "old.json")
	if err := os.WriteFile(old, []byte(`{"version":"0","findings":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(old); err == nil {
		t.Fatal("expected version error")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected read error")
	}
}
