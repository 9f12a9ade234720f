package collect

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"reviewgate/internal/git"
)

// GitChanges reports files changed in the git repository containing Root.
// Staged limits the set to the index, for pre-commit use.
type GitChanges struct {
	Root   string
	Ref    string
	Staged bool
}

func (g GitChanges) Changed(ctx context.Context) ([]string, error) {
	repo, root, err := g.roots(ctx)
	if err != nil {
		return nil, err
	}
	var paths []string
	if g.Staged {
		paths, err = git.StagedFiles(ctx, repo)
		if err != nil {
			return nil, err
		}
	} else {
		paths, err = git.ChangedFiles(ctx, repo, g.Ref)
		if err != nil {
			return nil, err
		}
		untracked, err := git.UntrackedFiles(ctx, repo)
		if err != nil {
			return nil, err
		}
		paths = append(paths, untracked...)
	}
	return rebase(repo, root, paths), nil
}

// ChangedLines maps scan-root-relative paths to their added line ranges.
// Untracked files count as entirely changed.
func (g GitChanges) ChangedLines(ctx context.Context) (map[string]git.LineRanges, error) {
	repo, root, err := g.roots(ctx)
	if err != nil {
		return nil, err
	}
	byRepoPath, err := git.ChangedLines(ctx, repo, g.Ref, g.Staged)
	if err != nil {
		return nil, err
	}
	if !g.Staged {
		untracked, err := git.UntrackedFiles(ctx, repo)
		if err != nil {
			return nil, err
		}
		for _, p := range untracked {
			byRepoPath[p] = git.LineRanges{git.WholeFile}
		}
	}

	out := make(map[string]git.LineRanges, len(byRepoPath))
	for p, ranges := range byRepoPath {
		if rel, ok := relativeTo(repo, root, p); ok {
			out[rel] = ranges
		}
	}
	return out, nil
}

func (g GitChanges) roots(ctx context.Context) (string, string, error) {
	repo, err := git.RepoRoot(ctx, g.Root)
	if err != nil {
		return "", "", err
	}
	repo, err = filepath.EvalSymlinks(repo)
	if err != nil {
		return "", "", fmt.Errorf("resolve repo root: %w", err)
	}
	root, err := filepath.Abs(g.Root)
	if err != nil {
		return "", "", fmt.Errorf("resolve root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return repo, root, nil
}

func rebase(repo, root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, ok := relativeTo(repo, root, p); ok {
			out = append(out, rel)
		}
	}
	return out
}

// relativeTo converts a repo-relative git path into a root-relative one.
// Paths outside root are dropped.
func relativeTo(repo, root, p string) (string, bool) {
	rel, err := filepath.Rel(root, filepath.Join(repo, filepath.FromSlash(p)))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
