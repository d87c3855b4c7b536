// Package main provides the zarah binary, a browser QA test runner that
// drives an MCP browser automation server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/config"
	"github.com/ormasoftchile/zarah/pkg/executor"
	"github.com/ormasoftchile/zarah/pkg/logging"
	"github.com/ormasoftchile/zarah/pkg/redact"
	"github.com/ormasoftchile/zarah/pkg/runner"
	"github.com/ormasoftchile/zarah/pkg/session"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// errNotPassed makes the process exit 1 without printing an error; the
// reports already say what failed.
var errNotPassed = errors.New("not all scenarios passed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errNotPassed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var (
	flagConfig        string
	flagVerbose       bool
	flagScreenshotDir string
	flagReportDir     string
	flagServer        string
)

var rootCmd = &cobra.Command{
	Use:           "zarah",
	Short:         "Browser QA testing agent",
	Long:          "zarah runs browser test scenarios through an MCP browser automation server and reports the results.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: ./"+config.DefaultFile+" when present)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging")
	pf.StringVar(&flagScreenshotDir, "screenshot-dir", "", "Directory for screenshots")
	pf.StringVar(&flagReportDir, "report-dir", "", "Directory for reports")
	pf.StringVar(&flagServer, "server", "", "Browser server command line (e.g. \"zarah-browser --show\")")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

// app holds the wiring shared by the commands that talk to a browser.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	manager  *session.Manager
	redactor *redact.Redactor
}

// loadConfig resolves settings and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
	if flagScreenshotDir != "" {
		cfg.ScreenshotDir = flagScreenshotDir
	}
	if flagReportDir != "" {
		cfg.ReportDir = flagReportDir
	}
	if fields := strings.Fields(flagServer); len(fields) > 0 {
		cfg.Server.Command, cfg.Server.Args = fields[0], fields[1:]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration and builds the session manager. quiet limits
// logging to warnings, for output modes that own the terminal.
func newApp(cmd *cobra.Command, quiet bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	red, err := cfg.Redactor()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Verbose)
	if quiet {
		logger = logging.Quiet()
	}

	dial := session.StdioDialer(cfg.Server.Command, cfg.Server.Args, cfg.Server.Env, logger)
	m := session.NewManager(dial,
		session.WithLogger(logger),
		session.WithClientInfo("zarah", version),
		session.WithInitTimeout(cfg.Timeout()),
		session.WithOpenRetry(cfg.RetryAttempts, cfg.RetryDelay),
		session.WithScreenshotDir(cfg.ScreenshotDir),
	)
	return &app{cfg: cfg, logger: logger, manager: m, redactor: red}, nil
}

func (a *app) runner(opts ...runner.Option) *runner.Runner {
	exec := executor.New(
		executor.WithScreenshotDir(a.cfg.ScreenshotDir),
		executor.WithRetryDelay(a.cfg.RetryDelay),
		executor.WithLogger(a.logger),
	)
	opts = append([]runner.Option{
		runner.WithLogger(a.logger),
		runner.WithWorkers(a.cfg.ParallelWorkers),
		runner.WithTeardownTimeout(a.cfg.Timeout()),
	}, opts...)
	return runner.New(runner.FromManager(a.manager), exec, opts...)
}

func (a *app) close() {
	_ = a.logger.Sync()
}
