package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/zarah/pkg/interactive"
	"github.com/ormasoftchile/zarah/pkg/report"
	"github.com/ormasoftchile/zarah/pkg/schema"
)

// --- interactive ---

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Drive the browser from a REPL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Log lines would interleave with the prompt.
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()
		return interactive.New(a.manager, interactive.WithLogger(a.logger)).Run(cmd.Context())
	},
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a scenario or suite file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	suite, errs := schema.ValidateFile(args[0])

	var errors, warnings []*schema.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			warnings = append(warnings, e)
		} else {
			errors = append(errors, e)
		}
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", w.Phase, w.Message)
		if w.Path != "" {
			fmt.Fprintf(os.Stderr, "    at: %s\n", w.Path)
		}
	}
	if len(errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errors))
		for i, e := range errors {
			fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errors))
	}

	steps := 0
	for _, sc := range suite.Scenarios {
		steps += len(sc.SetupSteps) + len(sc.Steps) + len(sc.TeardownSteps)
	}
	fmt.Printf("✓ %s is valid (%d scenarios, %d steps)\n", suite.Name, len(suite.Scenarios), steps)
	return nil
}

// --- schema ---

var schemaType string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export JSON Schema to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.Generate(schemaType)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- report ---

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report operations",
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report.json>",
	Short: "Print a saved JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := report.Load(args[0])
		if err != nil {
			return err
		}
		switch reportFormat {
		case "console", "":
			return doc.WriteConsole(os.Stdout)
		case "markdown":
			var buf bytes.Buffer
			if err := doc.WriteMarkdown(&buf); err != nil {
				return err
			}
			fmt.Println(report.RenderMarkdown(buf.String(), 100))
			return nil
		case "json":
			out, err := json.MarshalIndent(doc.Statistics, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		default:
			return fmt.Errorf("unknown format %q: want console, markdown or json", reportFormat)
		}
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zarah %s (build: %s)\n", version, commit)
	},
}

func init() {
	schemaExportCmd.Flags().StringVar(&schemaType, "type", "suite", "Schema type: suite or scenario")
	schemaCmd.AddCommand(schemaExportCmd)

	reportShowCmd.Flags().StringVar(&reportFormat, "format", "console", "Output: console, markdown, or json (statistics only)")
	reportCmd.AddCommand(reportShowCmd)
}
