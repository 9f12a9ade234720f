package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"reviewgate/internal/collect"
	"reviewgate/internal/config"
	"reviewgate/internal/lang"
	"reviewgate/internal/rules"
)

const (
	watchDebounce = 300 * time.Millisecond
	toolDir       = ".reviewgate"
)

func newWatchCmd() *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Rescan whenever a source file is saved",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, root, &flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	flags.register(cmd)
	return cmd
}

func runWatch(ctx context.Context, root string, flags *scanFlags, stdout, stderr io.Writer) error {
	resolver := config.NewResolver(nil)
	rescan := func() error {
		_, err := runScan(ctx, root, flags, resolver, stdout, stderr)
		return err
	}
	// A broken config or rule file stops the watch before it starts; later
	// edits that break them are reported and the watch carries on.
	if err := rescan(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "watching %s (ctrl-c to stop)\n", root)

	return watchTree(ctx, root, watchDebounce, func(configChanged bool) {
		fmt.Fprintf(stderr, "\n[%s] change detected, rescanning\n", time.Now().Format("15:04:05"))
		if configChanged {
			resolver.Invalidate(root)
		}
		if err := rescan(); err != nil {
			fmt.Fprintln(stderr, "error:", err)
		}
	}, func(err error) {
		fmt.Fprintln(stderr, "watch error:", err)
	})
}

// watchTree calls onChange once per burst of relevant events, after the
// tree has been quiet for debounce. configChanged is set when the burst
// touched a YAML file. onChange runs on the watching goroutine, so rescans
// never overlap. Watcher errors go to onError and the watch continues. It
// returns when ctx is done.
func watchTree(ctx context.Context, root string, debounce time.Duration, onChange func(configChanged bool), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	// The tool's own directory is skipped by the walk but holds the config,
	// suppressions and custom rules.
	for _, dir := range []string{filepath.Join(root, toolDir), filepath.Join(root, rules.DefaultCustomDir)} {
		if isDir(dir) {
			_ = watcher.Add(dir)
		}
	}

	// Timers reset without draining; stale ticks are never delivered since Go 1.23.
	timer := time.NewTimer(debounce)
	timer.Stop()
	configChanged := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) && !collect.SkipDir(filepath.Base(ev.Name)) {
				_ = addWatchRecursive(watcher, ev.Name)
				continue
			}
			if !relevant(ev) {
				continue
			}
			if isConfigFile(ev.Name) {
				configChanged = true
			}
			timer.Reset(debounce)
		case <-timer.C:
			changed := configChanged
			configChanged = false
			onChange(changed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if _, ok := lang.Detect(ev.Name); ok {
		return true
	}
	return isConfigFile(ev.Name) || filepath.Base(ev.Name) == collect.IgnoreFileName
}

func isConfigFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && collect.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
