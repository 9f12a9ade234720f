package safefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic_RejectsSymlinkTarget(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target.txt")
	link := filepath.Join(root, "link.txt")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	err := WriteFileAtomic(link, []byte("new"), 0o600)
	if err == nil {
		t.Fatal("expected symlink target to be rejected")
	}
	if !strings.Contains(err.Error(), "symlinked file target") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteFileAtomic_OverwritesRegularFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "report.json")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := WriteFileAtomic(target, []byte("new"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("unexpected content: %s", string(got))
	}
}

func TestWriteFileAtomic_CreatesParentsAndLeavesNoTemp(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "reports", "ci", "reviewgate.sarif")

	if err := WriteFileAtomic(target, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "reviewgate.sarif" {
		t.Fatalf("expected only the target file, got %v", entries)
	}
}

func TestWriteFileAtomic_RejectsDirectoryTarget(t *testing.T) {
	root := t.TempDir()
	err := WriteFileAtomic(root, []byte("x"), 0o600)
	if err == nil || !strings.Contains(err.Error(), "directory write target") {
		t.Fatalf("expected directory target to be rejected, got %v", err)
	}
}

func TestWriteFileAtomic_RejectsSymlinkedParent(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(root, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "out")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	err := WriteFileAtomic(filepath.Join(link, "report.json"), []byte("{}"), 0o600)
	if err == nil || !strings.Contains(err.Error(), "symlinked directory") {
		t.Fatalf("expected symlinked parent to be rejected, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(real, "report.json")); !os.IsNotExist(statErr) {
		t.Fatalf("nothing should be written through the link, stat err=%v", statErr)
	}
}

func TestWriteFileAtomic_RequiresPath(t *testing.T) {
	if err := WriteFileAtomic("  ", []byte("x"), 0o600); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
}
