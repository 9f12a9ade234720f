package git

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// RepoRoot returns the git repository root for the given path,
// or an error if the path is not inside a git repository.
func RepoRoot(ctx context.Context, path string) (string, error) {
	out, err := run(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository (or git not installed): %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles returns file paths changed between ref and the working tree.
// If ref is empty, defaults to HEAD. Only existing (non-deleted) files are
// returned. Paths are relative to the repository root.
func ChangedFiles(ctx context.Context, repoRoot, ref string) ([]string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	out, err := run(ctx, repoRoot, "diff", "--name-only", "--diff-filter=d", ref)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-only %s: %w", ref, err)
	}
	return parseLines(out), nil
}

// StagedFiles returns non-deleted file paths staged in the git index,
// relative to the repository root.
func StagedFiles(ctx context.Context, repoRoot string) ([]string, error) {
	out, err := run(ctx, repoRoot, "diff", "--cached", "--name-only", "--diff-filter=d")
	if err != nil {
		return nil, fmt.Errorf("git diff --cached --name-only: %w", err)
	}
	return parseLines(out), nil
}

// UntrackedFiles returns new files git does not know about yet, honoring
// .gitignore.
func UntrackedFiles(ctx context.Context, repoRoot string) ([]string, error) {
	out, err := run(ctx, repoRoot, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("git ls-files --others: %w", err)
	}
	return parseLines(out), nil
}

// LineRange is an inclusive range of 1-based line numbers in the new file.
type LineRange struct {
	Start int
	End   int
}

// WholeFile covers every line; used for files with no base version.
var WholeFile = LineRange{Start: 1, End: math.MaxInt}

type LineRanges []LineRange

func (rs LineRanges) Contains(line int) bool {
	for _, r := range rs {
		if line >= r.Start && line <= r.End {
			return true
		}
	}
	return false
}

// ChangedLines returns, per file relative to the repository root, the line
// ranges added or modified since ref. staged diffs the index instead of the
// working tree. Deleted files and pure deletions contribute nothing.
func ChangedLines(ctx context.Context, repoRoot, ref string, staged bool) (map[string]LineRanges, error) {
	if ref == "" {
		ref = "HEAD"
	}
	args := []string{"diff", "--no-color", "--no-ext-diff", "--unified=0", "--diff-filter=d"}
	if staged {
		args = append(args, "--cached")
	}
	args = append(args, ref)
	out, err := run(ctx, repoRoot, args...)
	if err != nil {
		return nil, fmt.Errorf("git diff --unified=0 %s: %w", ref, err)
	}
	return parseChangedLines([]byte(out))
}

func parseChangedLines(patch []byte) (map[string]LineRanges, error) {
	result := map[string]LineRanges{}
	if len(strings.TrimSpace(string(patch))) == 0 {
		return result, nil
	}
	fileDiffs, err := diff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	for _, fd := range fileDiffs {
		if fd.NewName == "/dev/null" {
			continue
		}
		name := strings.TrimPrefix(fd.NewName, "b/")
		for _, h := range fd.Hunks {
			if h.NewLines <= 0 {
				continue
			}
			start := int(h.NewStartLine)
			result[name] = append(result[name], LineRange{Start: start, End: start + int(h.NewLines) - 1})
		}
	}
	return result, nil
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseLines(s string) []string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
