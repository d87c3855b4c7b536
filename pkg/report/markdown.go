package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// WriteMarkdown writes a summary table followed by one section per
// scenario that did not pass.
func (d *Document) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	st := d.Statistics

	fmt.Fprintf(&b, "# %s\n\n", d.Suite.Name)
	fmt.Fprintf(&b, "Generated %s, run `%s`.\n\n", d.GeneratedAt.Format("2006-01-02 15:04:05"), d.RunID)
	fmt.Fprintf(&b, "**%d/%d scenarios passed (%.1f%%)**, %d/%d steps passed, %.2fs total.\n\n",
		st.PassedScenarios, st.TotalScenarios, st.PassRate, st.PassedSteps, st.TotalSteps, st.TotalDuration)

	b.WriteString("| | Scenario | Status | Steps | Duration |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i := range d.Results {
		r := &d.Results[i]
		fmt.Fprintf(&b, "| %s | %s | %s | %d/%d | %.2fs |\n",
			r.Status.Glyph(), escapeCell(r.Scenario.Name), r.Status, r.PassedSteps(), r.TotalSteps(), r.Duration.Seconds())
	}

	for i := range d.Results {
		r := &d.Results[i]
		bad := r.NotPassed()
		if len(bad) == 0 && r.ErrorMessage == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s %s\n\n", r.Status.Glyph(), r.Scenario.Name)
		if r.ErrorMessage != "" {
			fmt.Fprintf(&b, "> %s\n\n", r.ErrorMessage)
		}
		for _, sr := range bad {
			fmt.Fprintf(&b, "- **%s** (`%s`): %s\n", sr.Step.Name, sr.Status, sr.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderMarkdown formats markdown for the terminal. It falls back to the
// raw text when rendering fails.
func RenderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
