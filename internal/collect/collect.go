// Package collect builds the list of source files a scan covers.
package collect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"reviewgate/internal/lang"
)

var skipDirNames = map[string]struct{}{
	".git": {}, ".reviewgate": {}, "bin": {}, "node_modules": {}, "vendor": {}, "dist": {}, "build": {},
	".next": {}, "target": {}, "coverage": {}, "__pycache__": {}, "venv": {}, ".venv": {}, "env": {},
	".tox": {}, ".mypy_cache": {}, ".pytest_cache": {}, "migrations": {}, "site-packages": {}, ".eggs": {},
}

// SkipDir reports whether a directory of this name is never scanned.
func SkipDir(name string) bool {
	_, ok := skipDirNames[name]
	return ok
}

// DefaultExcludes keeps tests and generated code out of the scan.
var DefaultExcludes = []string{
	"**/test_*.py",
	"**/*_test.py",
	"**/conftest.py",
	"**/*_test.go",
	"**/*.{test,spec}.{ts,tsx,js,jsx,mjs,cjs}",
	"**/__tests__/**",
	"**/src/test/**",
	"**/*.min.js",
	"**/*.d.ts",
	"**/*.pb.go",
	"**/*_generated.go",
	"**/*.gen.go",
}

type File struct {
	// Path is slash-separated and relative to the scan root.
	Path     string
	Abs      string
	Language lang.Language
}

// ChangeSource lists paths changed relative to some base, relative to the
// scan root.
type ChangeSource interface {
	Changed(ctx context.Context) ([]string, error)
}

type Options struct {
	Root string
	// Roots are sub-directories of Root to walk instead of Root itself.
	// Entries that do not exist are ignored; if none exist Root is walked.
	Roots     []string
	Languages []lang.Language
	Exclude   []string
	// IgnoreFile defaults to Root/.reviewgateignore.
	IgnoreFile string

	ChangedOnly bool
	Changes     ChangeSource

	Logger *zap.Logger
}

// Collect returns a sorted, de-duplicated file list. A missing root yields an
// empty list and no error.
func Collect(ctx context.Context, opts Options) ([]File, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	for _, glob := range opts.Exclude {
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("invalid exclude glob %q", glob)
		}
	}
	ignoreFile := opts.IgnoreFile
	if ignoreFile == "" {
		ignoreFile = filepath.Join(root, IgnoreFileName)
	}
	ignore, err := LoadIgnoreFile(ignoreFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ignoreFile, err)
	}

	w := &walker{
		root:     root,
		langs:    languageSet(opts.Languages),
		excludes: append(append([]string(nil), DefaultExcludes...), opts.Exclude...),
		ignore:   ignore,
		log:      log,
		seen:     map[string]struct{}{},
	}
	for _, start := range startDirs(root, opts.Roots) {
		if err := w.walk(ctx, start); err != nil {
			return nil, err
		}
	}
	files := w.files

	if opts.ChangedOnly && opts.Changes != nil {
		changed, err := opts.Changes.Changed(ctx)
		if err != nil {
			// Fall back to the full file set rather than reporting nothing.
			log.Warn("changed-only unavailable, scanning all files", zap.Error(err))
		} else {
			files = intersect(files, changed)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

type walker struct {
	root     string
	langs    map[lang.Language]bool
	excludes []string
	ignore   *IgnoreRules
	log      *zap.Logger
	seen     map[string]struct{}
	files    []File
}

func (w *walker) walk(ctx context.Context, start string) error {
	return filepath.WalkDir(start, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if d != nil && d.IsDir() && path != start {
				w.log.Debug("skipping unreadable directory", zap.String("dir", path), zap.Error(walkErr))
				return filepath.SkipDir
			}
			w.log.Debug("walk error", zap.String("path", path), zap.Error(walkErr))
			return nil
		}
		if path == start {
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if _, skip := skipDirNames[d.Name()]; skip || w.ignore.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		l, ok := lang.Detect(rel)
		if !ok || (len(w.langs) > 0 && !w.langs[l]) {
			return nil
		}
		if w.excluded(rel) {
			return nil
		}
		if _, dup := w.seen[rel]; dup {
			return nil
		}
		w.seen[rel] = struct{}{}
		w.files = append(w.files, File{Path: rel, Abs: path, Language: l})
		return nil
	})
}

func (w *walker) excluded(rel string) bool {
	for _, glob := range w.excludes {
		if ok, _ := doublestar.Match(glob, rel); ok {
			return true
		}
	}
	return w.ignore.ShouldIgnore(rel, false)
}

// startDirs resolves configured sub-roots. Roots escaping the scan root are
// dropped.
func startDirs(root string, roots []string) []string {
	var out []string
	for _, r := range roots {
		dir := filepath.Join(root, r)
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, dir)
		}
	}
	if len(out) == 0 {
		return []string{root}
	}
	return out
}

func languageSet(langs []lang.Language) map[lang.Language]bool {
	if len(langs) == 0 {
		return nil
	}
	set := make(map[lang.Language]bool, len(langs))
	for _, l := range langs {
		set[l] = true
	}
	return set
}

// intersect keeps files named in changed. Changed paths that were deleted or
// excluded simply have no counterpart.
func intersect(files []File, changed []string) []File {
	want := make(map[string]struct{}, len(changed))
	for _, p := range changed {
		want[filepath.ToSlash(filepath.Clean(p))] = struct{}{}
	}
	out := files[:0:0]
	for _, f := range files {
		if _, ok := want[f.Path]; ok {
			out = append(out, f)
		}
	}
	return out
}
