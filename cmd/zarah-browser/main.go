// Package main provides the zarah-browser binary, the MCP browser automation
// server that zarah starts as a child process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/browser"
	"github.com/ormasoftchile/zarah/pkg/logging"
)

var version = "dev"

var (
	showBrowser bool
	browserBin  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "zarah-browser",
	Short: "MCP browser automation server over stdio",
	Long:  "zarah-browser serves the browser_* tools over stdin/stdout. Diagnostics go to stderr.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; never log there.
		logger := logging.Quiet()
		if verbose {
			logger = logging.New(true)
		}
		defer logger.Sync() //nolint:errcheck

		driver := browser.NewRodDriver(browser.RodOptions{Headless: !showBrowser, Bin: browserBin})
		logger.Debug("serving", zap.String("server", browser.ServerName), zap.String("version", version))
		return browser.NewServer(driver, logger).ServeStdio(version)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&showBrowser, "show", false, "Run the browser with a visible window")
	rootCmd.Flags().StringVar(&browserBin, "bin", os.Getenv("ZARAH_BROWSER_BIN"), "Path to the Chromium binary (default: auto-detect)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
