package engine

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reviewgate/internal/lang"
	"reviewgate/internal/model"
)

// Metrics collects per-scan counters on a private registry so one-shot CLI
// runs can dump them to a node-exporter textfile. A nil *Metrics records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	filesScanned  *prometheus.CounterVec
	filesSkipped  prometheus.Counter
	findings      *prometheus.CounterVec
	ruleErrors    *prometheus.CounterVec
	fileDuration  prometheus.Histogram
	scanDuration  prometheus.Gauge
	lastScanFiles prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		filesScanned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewgate_files_scanned_total",
			Help: "Files scanned by language",
		}, []string{"language"}),
		filesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewgate_files_skipped_total",
			Help: "Files skipped as unreadable, binary or too large",
		}),
		findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewgate_findings_total",
			Help: "Findings reported by rule and severity",
		}, []string{"rule", "severity"}),
		ruleErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewgate_rule_errors_total",
			Help: "Rule evaluations that failed",
		}, []string{"rule"}),
		fileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewgate_file_scan_duration_seconds",
			Help:    "Time spent running all rules on one file",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		scanDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "reviewgate_last_scan_duration_seconds",
			Help: "Wall time of the last scan",
		}),
		lastScanFiles: f.NewGauge(prometheus.GaugeOpts{
			Name: "reviewgate_last_scan_files",
			Help: "Files scanned by the last scan",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

func (m *Metrics) fileScanned(l lang.Language, findings []model.Finding, d time.Duration) {
	if m == nil {
		return
	}
	m.filesScanned.WithLabelValues(string(l)).Inc()
	m.fileDuration.Observe(d.Seconds())
	for _, f := range findings {
		m.findings.WithLabelValues(f.RuleID, string(f.Severity)).Inc()
	}
}

func (m *Metrics) fileSkipped() {
	if m == nil {
		return
	}
	m.filesSkipped.Inc()
}

func (m *Metrics) ruleError(rule string) {
	if m == nil {
		return
	}
	m.ruleErrors.WithLabelValues(rule).Inc()
}

func (m *Metrics) observeScan(r model.Report, d time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.Set(d.Seconds())
	m.lastScanFiles.Set(float64(r.Summary.Scanned))
}
