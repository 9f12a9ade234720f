// Package engine runs a rule catalog over collected files with a bounded
// worker pool and assembles the report.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reviewgate/internal/collect"
	"reviewgate/internal/detect"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
	"reviewgate/internal/progress"
	"reviewgate/internal/redact"
	"reviewgate/internal/report"
	"reviewgate/internal/rules"
	"reviewgate/internal/suppress"
)

const (
	DefaultMaxFileBytes = 2 * 1024 * 1024
	binarySniffBytes    = 8000
)

var tracer = otel.Tracer("reviewgate/engine")

type Options struct {
	Files      []collect.File
	Catalog    *rules.Catalog
	Frameworks *detect.Memo
	Workers    int

	// LineFilter, when set, keeps only findings on lines it accepts.
	LineFilter   func(path string, line int) bool
	Suppressions suppress.Rules

	MaxFileBytes int64
	Now          func() time.Time
	Logger       *zap.Logger
	Sink         progress.Sink
	Metrics      *Metrics
}

type fileResult struct {
	done       bool
	findings   []model.Finding
	suppressed int
	skipped    *model.SkippedFile
	errors     []model.RuleError
}

// Scan checks every file and returns the report. Cancelling ctx stops
// dispatching new files; files already finished are kept and the report is
// marked partial. The returned error is non-nil only for setup problems.
func Scan(ctx context.Context, opts Options) (model.Report, error) {
	if opts.Catalog == nil {
		return model.Report{}, errors.New("engine: catalog is required")
	}
	opts = withDefaults(opts)
	log := opts.Logger

	ctx, span := tracer.Start(ctx, "engine.Scan", trace.WithAttributes(
		attribute.Int("scan.files", len(opts.Files)),
		attribute.Int("scan.rules", opts.Catalog.Len()),
		attribute.Int("scan.workers", opts.Workers),
	))
	defer span.End()

	start := time.Now()
	opts.Sink.Emit(progress.Event{Type: progress.EventScanStarted, FileCount: len(opts.Files)})
	log.Debug("scan started", zap.Int("files", len(opts.Files)), zap.Int("rules", opts.Catalog.Len()), zap.Int("workers", opts.Workers))

	results := make([]fileResult, len(opts.Files))
	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)
	for i, file := range opts.Files {
		if ctx.Err() != nil {
			break
		}
		i, file := i, file
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = scanFile(ctx, opts, file)
			return nil
		})
	}
	_ = g.Wait()

	in := report.Input{}
	for i, res := range results {
		if !res.done {
			in.Unscanned++
			continue
		}
		if res.skipped != nil {
			in.Skipped = append(in.Skipped, *res.skipped)
			continue
		}
		in.Scanned = append(in.Scanned, opts.Files[i].Path)
		in.Findings = append(in.Findings, res.findings...)
		in.Errors = append(in.Errors, res.errors...)
		in.Suppressed += res.suppressed
	}
	in.Partial = in.Unscanned > 0

	rep := report.Build(in)
	elapsed := time.Since(start)
	opts.Metrics.observeScan(rep, elapsed)

	status := "completed"
	if rep.Partial {
		status = "partial"
		span.SetStatus(codes.Error, "scan interrupted")
		log.Warn("scan interrupted", zap.Int("unscanned", in.Unscanned))
	}
	span.SetAttributes(
		attribute.Int("scan.findings", len(rep.Findings)),
		attribute.String("scan.verdict", string(rep.Verdict)),
	)
	opts.Sink.Emit(progress.Event{
		Type:         progress.EventScanFinished,
		Status:       status,
		FileCount:    rep.Summary.Scanned,
		FindingCount: len(rep.Findings),
		DurationMS:   elapsed.Milliseconds(),
	})
	return rep, nil
}

func withDefaults(opts Options) Options {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sink == nil {
		opts.Sink = progress.NoopSink{}
	}
	if opts.Frameworks == nil {
		opts.Frameworks = detect.NewMemo(nil, nil)
	}
	return opts
}

func scanFile(ctx context.Context, opts Options, file collect.File) fileResult {
	_, span := tracer.Start(ctx, "engine.scanFile", trace.WithAttributes(
		attribute.String("file.path", file.Path),
		attribute.String("file.language", string(file.Language)),
	))
	defer span.End()

	start := time.Now()
	res := fileResult{done: true}

	content, reason := readFile(file.Abs, opts.MaxFileBytes)
	if reason != "" {
		res.skipped = &model.SkippedFile{File: file.Path, Reason: reason}
		opts.Logger.Debug("file skipped", zap.String("file", file.Path), zap.String("reason", reason))
		opts.Sink.Emit(progress.Event{Type: progress.EventFileSkipped, File: file.Path, Message: reason})
		opts.Metrics.fileSkipped()
		return res
	}

	f := match.NewFile(file.Path, file.Language, content)
	framework := opts.Frameworks.Resolve(file.Path, file.Language, content)
	inline := suppress.ParseInline(f.Lines)
	now := opts.Now()

	for _, rule := range opts.Catalog.Applicable(file.Path, file.Language, framework) {
		hits, err := runRule(rule, f)
		if err != nil {
			res.errors = append(res.errors, model.RuleError{Rule: rule.ID, File: file.Path, Error: err.Error()})
			opts.Logger.Warn("rule failed", zap.String("rule", rule.ID), zap.String("file", file.Path), zap.Error(err))
			opts.Sink.Emit(progress.Event{Type: progress.EventRuleError, File: file.Path, Rule: rule.ID, Error: err.Error()})
			opts.Metrics.ruleError(rule.ID)
			continue
		}
		for _, hit := range hits {
			if opts.LineFilter != nil && !opts.LineFilter(file.Path, hit.Line) {
				continue
			}
			if inline.Suppressed(rule.ID, hit.Line) || opts.Suppressions.Suppressed(rule.ID, file.Path, now) {
				res.suppressed++
				continue
			}
			res.findings = append(res.findings, redact.Finding(rule.Finding(file.Path, hit)))
		}
	}

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("file.findings", len(res.findings)))
	opts.Metrics.fileScanned(file.Language, res.findings, elapsed)
	opts.Sink.Emit(progress.Event{
		Type:         progress.EventFileScanned,
		File:         file.Path,
		FindingCount: len(res.findings),
		DurationMS:   elapsed.Milliseconds(),
	})
	return res
}

// runRule isolates one rule so a panicking matcher costs only its own
// findings for this file.
func runRule(rule rules.Rule, f *match.File) (hits []match.Hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return rule.Matcher.Match(f)
}

// readFile returns the content or a skip reason.
func readFile(path string, limit int64) (string, string) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "unreadable: " + err.Error()
	}
	if info.Size() > limit {
		return "", fmt.Sprintf("too large (%d bytes > %d)", info.Size(), limit)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "unreadable: " + err.Error()
	}
	sniff := b
	if len(sniff) > binarySniffBytes {
		sniff = sniff[:binarySniffBytes]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return "", "binary content"
	}
	return string(b), ""
}
