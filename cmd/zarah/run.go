package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/report"
	"github.com/ormasoftchile/zarah/pkg/runner"
	"github.com/ormasoftchile/zarah/pkg/scenario"
	"github.com/ormasoftchile/zarah/pkg/schema"
	"github.com/ormasoftchile/zarah/pkg/tui"
)

// --- test ---

var (
	testText         string
	testNoScreenshot bool
)

var testCmd = &cobra.Command{
	Use:   "test <url>",
	Short: "Run a quick page load test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := scenario.QuickTest(args[0], testText, !testNoScreenshot)
		return runSingle(cmd, sc)
	},
}

// --- form ---

var formConfig string

var formCmd = &cobra.Command{
	Use:   "form <url>",
	Short: "Run a form submission test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fc scenario.FormConfig
		if formConfig != "" {
			data, err := os.ReadFile(formConfig)
			if err != nil {
				return fmt.Errorf("read form config: %w", err)
			}
			if err := json.Unmarshal(data, &fc); err != nil {
				return fmt.Errorf("parse form config: %w", err)
			}
		}
		fc.URL = args[0]
		return runSingle(cmd, scenario.FormSubmission(fc))
	},
}

// runSingle runs one scenario and prints a short verdict.
func runSingle(cmd *cobra.Command, sc scenario.Scenario) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	res := a.runner().RunScenario(cmd.Context(), sc)
	printVerdict(a.redactor.Results([]scenario.Result{res})[0])
	if res.Status != scenario.StatusPassed {
		return errNotPassed
	}
	return nil
}

func printVerdict(res scenario.Result) {
	fmt.Println()
	if res.Status == scenario.StatusPassed {
		fmt.Println("✓ TEST PASSED")
	} else {
		fmt.Printf("✗ TEST %s\n", upper(res.Status))
	}
	fmt.Printf("  Duration: %.2fs\n", res.Duration.Seconds())
	fmt.Printf("  Steps: %d/%d passed\n", res.PassedSteps(), res.TotalSteps())
	if res.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", res.ErrorMessage)
	}
	for _, sr := range res.NotPassed() {
		fmt.Printf("  %s %s: %s\n", sr.Status.Glyph(), sr.Step.Name, sr.Message)
	}
}

func upper(s scenario.Status) string {
	switch s {
	case scenario.StatusFailed:
		return "FAILED"
	case scenario.StatusError:
		return "ERROR"
	default:
		return string(s)
	}
}

// --- run ---

var (
	runTag           string
	runWhere         string
	runFormat        string
	runParallel      bool
	runStopOnFailure bool
	runTUI           bool
	runMetricsFile   string
	runUpload        string
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a scenario or suite file (JSON or YAML)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	testCmd.Flags().StringVar(&testText, "text", "", "Text expected on the page")
	testCmd.Flags().BoolVar(&testNoScreenshot, "no-screenshot", false, "Skip the screenshot step")

	formCmd.Flags().StringVar(&formConfig, "config", "", "JSON file with form_data, submit_selector and success_indicator")

	runCmd.Flags().StringVar(&runTag, "tag", "", "Only run scenarios carrying this tag")
	runCmd.Flags().StringVar(&runWhere, "where", "", "Only run scenarios matching this expression (e.g. 'priority <= 3')")
	runCmd.Flags().StringVar(&runFormat, "format", "", "Report format: all, html, json, console, markdown (default from config)")
	runCmd.Flags().BoolVar(&runParallel, "parallel", false, "Run scenarios concurrently")
	runCmd.Flags().BoolVar(&runStopOnFailure, "stop-on-failure", false, "Do not start further scenarios after one fails")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show live progress in the terminal")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	runCmd.Flags().StringVar(&runUpload, "upload", "", "Upload reports and screenshots to s3://bucket/prefix")
}

func runRun(cmd *cobra.Command, args []string) error {
	suite, errs := schema.ValidateFile(args[0])
	if schema.HasErrors(errs) {
		for _, e := range errs {
			if e.Severity != "warning" {
				fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
			}
		}
		return fmt.Errorf("scenario validation failed")
	}
	printValidationWarnings(errs)

	if err := suite.Select(runTag, runWhere); err != nil {
		return err
	}
	if len(suite.Scenarios) == 0 {
		return fmt.Errorf("no scenarios selected from %s", args[0])
	}
	if runParallel {
		suite.Parallel = true
	}
	if runStopOnFailure {
		suite.StopOnFailure = true
	}

	a, err := newApp(cmd, runTUI)
	if err != nil {
		return err
	}
	defer a.close()

	opts := suiteOptions{
		format:      runFormat,
		tui:         runTUI,
		metricsFile: runMetricsFile,
		upload:      runUpload,
	}
	return a.runSuite(cmd.Context(), suite, opts)
}

// --- demo ---

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in demonstration suite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.close()

		err = a.runSuite(cmd.Context(), scenario.DemoSuite(), suiteOptions{})
		fmt.Printf("  Reports saved to: %s\n", a.cfg.ReportDir)
		fmt.Printf("  Screenshots saved to: %s\n", a.cfg.ScreenshotDir)
		return err
	},
}

type suiteOptions struct {
	format      string
	tui         bool
	metricsFile string
	upload      string
}

// runSuite executes suite, writes reports, metrics and uploads, and returns
// errNotPassed when any scenario did not pass.
func (a *app) runSuite(ctx context.Context, suite *scenario.Suite, opts suiteOptions) error {
	formatName := opts.format
	if formatName == "" {
		formatName = a.cfg.ReportFormat
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	metricsFile := firstNonEmpty(opts.metricsFile, a.cfg.MetricsFile)
	upload := firstNonEmpty(opts.upload, a.cfg.Upload)

	var results []scenario.Result
	if opts.tui {
		results, err = tui.Run(ctx, suite, func(ctx context.Context, obs runner.Observer) []scenario.Result {
			return a.runner(runner.WithObserver(obs)).RunSuite(ctx, suite)
		})
		if err != nil {
			return err
		}
	} else {
		results = a.runner().RunSuite(ctx, suite)
	}

	reporter := report.New(a.cfg.ReportDir, report.WithLogger(a.logger))
	path, err := reporter.Generate(a.redactor.Suite(suite), a.redactor.Results(results), format)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if path != "" {
		fmt.Printf("\n  Report: %s\n", path)
	}

	if metricsFile != "" {
		if err := report.WriteMetrics(metricsFile, suite.Name, results); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		a.logger.Info("metrics written", zap.String("path", metricsFile))
	}

	if upload != "" {
		// Uploads run after a cancelled suite too, so detach from ctx.
		if err := a.upload(context.WithoutCancel(ctx), upload); err != nil {
			return err
		}
	}

	fmt.Printf("  Scenarios: %s out of %d\n", runner.Summary(results), len(results))
	if !runner.Passed(results) {
		return errNotPassed
	}
	return nil
}

func (a *app) upload(ctx context.Context, uri string) error {
	up, err := report.NewS3Uploader(ctx, uri, a.logger)
	if err != nil {
		return err
	}
	for _, dir := range []string{a.cfg.ReportDir, a.cfg.ScreenshotDir} {
		keys, err := up.UploadDir(ctx, dir)
		if err != nil {
			return fmt.Errorf("upload %s: %w", dir, err)
		}
		fmt.Printf("  Uploaded %d file(s) from %s\n", len(keys), dir)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printValidationWarnings(errs []*schema.ValidationError) {
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
		}
	}
}
