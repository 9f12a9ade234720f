package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reviewgate/internal/baseline"
	"reviewgate/internal/collect"
	"reviewgate/internal/config"
	"reviewgate/internal/detect"
	"reviewgate/internal/engine"
	"reviewgate/internal/format"
	"reviewgate/internal/lang"
	"reviewgate/internal/logging"
	"reviewgate/internal/model"
	"reviewgate/internal/progress"
	"reviewgate/internal/report"
	"reviewgate/internal/rules"
	"reviewgate/internal/safefile"
	"reviewgate/internal/suppress"
	"reviewgate/internal/version"
)

type scanFlags struct {
	format       string
	out          string
	workers      int
	langs        listFlag
	exclude      listFlag
	changedOnly  bool
	changedLines bool
	staged       bool
	ref          string
	strict       bool
	configFile   string
	rulesDir     string
	metricsFile  string
	baseline     string
	verbose      bool
	noColor      bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "table", "Output format: "+strings.Join(format.Names, "|"))
	fl.StringVarP(&f.out, "out", "o", "", "Write the report to this file instead of stdout")
	fl.IntVar(&f.workers, "workers", 0, "Concurrent file workers (default scan.workers or CPU count)")
	fl.Var(&f.langs, "lang", "Only scan these languages (repeatable or comma-separated)")
	fl.Var(&f.exclude, "exclude", "Exclude paths matching this glob (repeatable)")
	fl.BoolVar(&f.changedOnly, "changed-only", false, "Only scan files changed since --ref")
	fl.BoolVar(&f.changedLines, "changed-lines", false, "Only report findings on lines changed since --ref")
	fl.BoolVar(&f.staged, "staged", false, "Only scan files staged in the git index")
	fl.StringVar(&f.ref, "ref", "HEAD", "Git ref to diff against")
	fl.StringVar(&f.ref, "base", "HEAD", "Alias for --ref")
	fl.BoolVar(&f.strict, "strict", false, "Exit 2 when any file could not be scanned")
	fl.StringVar(&f.configFile, "config", "", "Config file (default: first manifest found under root)")
	fl.StringVar(&f.rulesDir, "rules-dir", "", "Custom rules directory (default <root>/"+rules.DefaultCustomDir+")")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics here after the scan")
	fl.StringVar(&f.baseline, "baseline", "", "Earlier JSON report; only findings not in it count")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Debug logs and per-file progress on stderr")
	fl.BoolVar(&f.noColor, "no-color", false, "Disable colored table output")
	_ = fl.MarkHidden("base")
}

func newScanCmd() *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a source tree and print the review report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code, err := runScan(ctx, root, &flags, config.NewResolver(nil), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if code != report.ExitOK {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// runScan performs one full scan and writes the report. Setup problems come
// back as errors; otherwise the result is the verdict exit code.
func runScan(ctx context.Context, root string, flags *scanFlags, resolver *config.Resolver, stdout, stderr io.Writer) (int, error) {
	log := logging.New(stderr, flags.verbose)
	defer func() { _ = log.Sync() }()

	info, err := os.Stat(root)
	if err != nil {
		return report.ExitError, setupError("scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return report.ExitError, setupError("scan root %s is not a directory", root)
	}
	outFormat, err := format.Parse(flags.format)
	if err != nil {
		return report.ExitError, setupError("%w", err)
	}

	cfg, err := loadConfig(ctx, root, flags.configFile, resolver)
	if err != nil {
		return report.ExitError, setupError("%w", err)
	}
	log.Debug("config resolved", zap.String("source", cfg.Source))

	langs, err := lang.ParseList(flags.langs.Values())
	if err != nil {
		return report.ExitError, setupError("%w", err)
	}

	rulesDir := flags.rulesDir
	if rulesDir == "" {
		rulesDir = filepath.Join(root, rules.DefaultCustomDir)
	}
	catalog, err := rules.Build(cfg, rulesDir)
	if err != nil {
		return report.ExitError, setupError("load rules: %w", err)
	}

	suppressions, err := suppress.Load(suppress.DefaultPath(root))
	if err != nil {
		return report.ExitError, setupError("load suppressions: %w", err)
	}

	changes := collect.GitChanges{Root: root, Ref: flags.ref, Staged: flags.staged}
	files, err := collect.Collect(ctx, collect.Options{
		Root:        root,
		Roots:       cfg.Roots(),
		Languages:   langs,
		Exclude:     append(append([]string(nil), cfg.Scan.Exclude...), flags.exclude.Values()...),
		ChangedOnly: flags.changedOnly || flags.staged || flags.changedLines,
		Changes:     changes,
		Logger:      log,
	})
	if err != nil {
		return report.ExitError, setupError("collect files: %w", err)
	}

	var lineFilter func(string, int) bool
	if flags.changedLines {
		lineFilter = changedLineFilter(ctx, changes, log)
	}

	var metrics *engine.Metrics
	if flags.metricsFile != "" {
		metrics = engine.NewMetrics()
	}
	var sink progress.Sink = progress.NoopSink{}
	if flags.verbose {
		sink = progress.NewPlainSink(stderr)
	}

	rep, err := engine.Scan(ctx, engine.Options{
		Files:        files,
		Catalog:      catalog,
		Frameworks:   detect.NewMemo(detect.Project(root), detect.Declared(cfg.BackendFramework(), cfg.FrontendFramework())),
		Workers:      workerCount(flags.workers, cfg),
		LineFilter:   lineFilter,
		Suppressions: suppressions,
		Logger:       log,
		Sink:         sink,
		Metrics:      metrics,
	})
	if err != nil {
		return report.ExitError, setupError("scan: %w", err)
	}
	if flags.baseline != "" {
		base, err := baseline.Load(flags.baseline)
		if err != nil {
			return report.ExitError, setupError("%w", err)
		}
		var d baseline.Diff
		rep, d = baseline.Apply(rep, base)
		log.Debug("baseline applied",
			zap.Int("new", d.Summary.New), zap.Int("unchanged", d.Summary.Unchanged), zap.Int("fixed", d.Summary.Fixed))
	}

	opts := format.Options{
		Color:   flags.out == "" && !flags.noColor && colorEnabled(stdout),
		Version: version.Version,
		Rules:   ruleInfo(catalog),
	}
	if err := writeReport(outFormat, rep, opts, flags.out, stdout); err != nil {
		return report.ExitError, setupError("%w", err)
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(flags.metricsFile); err != nil {
			log.Warn("metrics textfile not written", zap.String("path", flags.metricsFile), zap.Error(err))
		}
	}
	return report.ExitCode(rep, flags.strict), nil
}

func loadConfig(ctx context.Context, root, file string, resolver *config.Resolver) (config.Config, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return config.Config{}, &config.Error{Path: file, Err: err}
		}
		cfg, err := config.LoadFile(file)
		if err != nil {
			return config.Config{}, err
		}
		return cfg, cfg.Validate()
	}
	if resolver == nil {
		return config.Load(root)
	}
	return resolver.Resolve(ctx, root)
}

func workerCount(flag int, cfg config.Config) int {
	switch {
	case flag > 0:
		return flag
	case cfg.Workers() > 0:
		return cfg.Workers()
	default:
		return runtime.NumCPU()
	}
}

// changedLineFilter keeps findings on added lines of changed files. Findings
// without a line are kept when their file changed. When git cannot answer the
// filter is dropped and every finding is reported.
func changedLineFilter(ctx context.Context, changes collect.GitChanges, log *zap.Logger) func(string, int) bool {
	ranges, err := changes.ChangedLines(ctx)
	if err != nil {
		log.Warn("changed-lines unavailable, reporting all findings", zap.Error(err))
		return nil
	}
	return func(path string, line int) bool {
		rs, ok := ranges[path]
		if !ok {
			return false
		}
		return line <= 0 || rs.Contains(line)
	}
}

func ruleInfo(c *rules.Catalog) map[string]format.RuleInfo {
	out := make(map[string]format.RuleInfo, c.Len())
	for _, r := range c.Rules() {
		out[r.ID] = format.RuleInfo{Description: r.Description, Severity: r.Severity}
	}
	return out
}

func writeReport(f format.Format, rep model.Report, opts format.Options, out string, stdout io.Writer) error {
	if out == "" {
		return format.Write(stdout, f, rep, opts)
	}
	b, err := format.Render(f, rep, opts)
	if err != nil {
		return err
	}
	if err := safefile.WriteFileAtomic(out, b, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", out, err)
	}
	return nil
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
