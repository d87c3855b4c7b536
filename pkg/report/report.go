// Package report renders suite results as HTML, JSON, markdown and console
// output, and exports run metrics.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/logging"
	"github.com/ormasoftchile/zarah/pkg/scenario"
	"github.com/ormasoftchile/zarah/pkg/session"
)

// Format selects which outputs Generate produces.
type Format string

const (
	FormatAll      Format = "all"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatConsole  Format = "console"
	FormatMarkdown Format = "markdown"
)

// Formats lists every accepted format.
var Formats = []Format{FormatAll, FormatHTML, FormatJSON, FormatConsole, FormatMarkdown}

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (want one of all, html, json, console, markdown)", s)
}

func (f Format) includes(g Format) bool {
	return f == g || (f == FormatAll && g != FormatMarkdown)
}

// Stats are the aggregate figures shown in every report.
type Stats struct {
	TotalScenarios  int     `json:"total_scenarios"`
	PassedScenarios int     `json:"passed_scenarios"`
	FailedScenarios int     `json:"failed_scenarios"`
	ErrorScenarios  int     `json:"error_scenarios"`
	TotalSteps      int     `json:"total_steps"`
	PassedSteps     int     `json:"passed_steps"`
	FailedSteps     int     `json:"failed_steps"`
	TotalDuration   float64 `json:"total_duration"`
	PassRate        float64 `json:"pass_rate"`
}

// Calculate derives Stats from results. An empty run has a pass rate of 0.
func Calculate(results []scenario.Result) Stats {
	var s Stats
	var total time.Duration
	s.TotalScenarios = len(results)
	for i := range results {
		r := &results[i]
		switch r.Status {
		case scenario.StatusPassed:
			s.PassedScenarios++
		case scenario.StatusFailed:
			s.FailedScenarios++
		case scenario.StatusError:
			s.ErrorScenarios++
		}
		s.TotalSteps += r.TotalSteps()
		s.PassedSteps += r.PassedSteps()
		s.FailedSteps += r.FailedSteps()
		total += r.Duration
	}
	s.TotalDuration = total.Seconds()
	if s.TotalScenarios > 0 {
		s.PassRate = float64(s.PassedScenarios) / float64(s.TotalScenarios) * 100
	}
	return s
}

// BaseName is the file stem for a suite's reports.
func BaseName(suiteName string, at time.Time) string {
	return strings.ReplaceAll(suiteName, " ", "_") + "_" + at.Format(session.TimestampLayout)
}

// Reporter writes reports for a suite run.
type Reporter struct {
	dir    string
	out    io.Writer
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithOutput sets where console reports are printed.
func WithOutput(w io.Writer) Option { return func(r *Reporter) { r.out = w } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(r *Reporter) { r.logger = logging.OrNop(l) } }

// New returns a Reporter writing files into dir.
func New(dir string, opts ...Option) *Reporter {
	r := &Reporter{dir: dir, out: os.Stdout, logger: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Generate writes the outputs selected by format and returns the path of
// the first file written, or "" when only console output was requested.
func (r *Reporter) Generate(suite *scenario.Suite, results []scenario.Result, format Format) (string, error) {
	now := r.now()
	doc := NewDocument(suite, results, now)
	base := BaseName(suite.Name, now)

	var paths []string
	write := func(ext string, render func(io.Writer) error) error {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
		path := filepath.Join(r.dir, base+ext)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := render(f); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", ext, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		r.logger.Info("report written", zap.String("path", path))
		paths = append(paths, path)
		return nil
	}

	if format.includes(FormatHTML) {
		if err := write(".html", doc.WriteHTML); err != nil {
			return "", err
		}
	}
	if format.includes(FormatJSON) {
		if err := write(".json", doc.WriteJSON); err != nil {
			return "", err
		}
	}
	if format.includes(FormatMarkdown) {
		if err := write(".md", doc.WriteMarkdown); err != nil {
			return "", err
		}
	}
	if format.includes(FormatConsole) {
		if err := doc.WriteConsole(r.out); err != nil {
			return "", err
		}
	}

	if len(paths) == 0 {
		return "", nil
	}
	return paths[0], nil
}

// Document is the full content of one report.
type Document struct {
	RunID       string            `json:"run_id"`
	Suite       scenario.Suite    `json:"suite"`
	GeneratedAt time.Time         `json:"generated_at"`
	Statistics  Stats             `json:"statistics"`
	Results     []scenario.Result `json:"results"`
}

// NewDocument assembles a report for results with a fresh run ID.
func NewDocument(suite *scenario.Suite, results []scenario.Result, at time.Time) *Document {
	if results == nil {
		results = []scenario.Result{}
	}
	return &Document{
		RunID:       uuid.NewString(),
		Suite:       *suite,
		GeneratedAt: at,
		Statistics:  Calculate(results),
		Results:     results,
	}
}
