package report

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"
)

type htmlStep struct {
	Name       string
	Action     string
	Target     string
	Status     string
	Glyph      string
	Message    string
	Duration   string
	Screenshot template.URL
}

type htmlScenario struct {
	Name        string
	Description string
	Status      string
	Error       string
	Steps       []htmlStep
	TotalSteps  int
	Duration    string
}

type htmlData struct {
	Title       string
	GeneratedAt string
	RunID       string
	Stats       Stats
	Scenarios   []htmlScenario
}

func secs(d time.Duration) string { return fmt.Sprintf("%.2fs", d.Seconds()) }

// screenshotURL embeds the image as a data URI so the report stays
// portable. Unreadable files fall back to their path.
func screenshotURL(path string) template.URL {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return template.URL(path)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data))
}

func (d *Document) htmlData() htmlData {
	out := htmlData{
		Title:       d.Suite.Name,
		GeneratedAt: d.GeneratedAt.Format("2006-01-02 15:04:05"),
		RunID:       d.RunID,
		Stats:       d.Statistics,
	}
	for i := range d.Results {
		r := &d.Results[i]
		sc := htmlScenario{
			Name:        r.Scenario.Name,
			Description: r.Scenario.Description,
			Status:      string(r.Status),
			Error:       r.ErrorMessage,
			TotalSteps:  r.TotalSteps(),
			Duration:    secs(r.Duration),
		}
		for _, sr := range r.StepResults {
			sc.Steps = append(sc.Steps, htmlStep{
				Name:       sr.Step.Name,
				Action:     string(sr.Step.Action),
				Target:     sr.Step.Target,
				Status:     string(sr.Status),
				Glyph:      sr.Status.Glyph(),
				Message:    sr.Message,
				Duration:   secs(sr.Duration),
				Screenshot: screenshotURL(sr.Screenshot),
			})
		}
		out.Scenarios = append(out.Scenarios, sc)
	}
	return out
}

var htmlTmpl = template.Must(template.New("report").Parse(htmlTemplate))

// WriteHTML renders the document as a standalone HTML page.
func (d *Document) WriteHTML(w io.Writer) error {
	return htmlTmpl.Execute(w, d.htmlData())
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>ZARAH Test Report - {{.Title}}</title>
<style>
:root { --primary:#6366f1; --success:#22c55e; --error:#ef4444; --warning:#f59e0b; --bg:#0f172a; --bg-card:#1e293b; --text:#e2e8f0; --text-muted:#94a3b8; --border:#334155; }
* { margin:0; padding:0; box-sizing:border-box; }
body { font-family:system-ui,-apple-system,Segoe UI,Roboto,sans-serif; background:var(--bg); color:var(--text); line-height:1.6; padding:2rem; }
.container { max-width:1200px; margin:0 auto; }
header { margin-bottom:2rem; }
h1 { font-size:2rem; color:var(--primary); }
.meta { color:var(--text-muted); font-size:.9rem; }
.stats { display:grid; grid-template-columns:repeat(auto-fit,minmax(180px,1fr)); gap:1rem; margin-bottom:2rem; }
.stat-card { background:var(--bg-card); border:1px solid var(--border); border-radius:12px; padding:1.25rem; }
.stat-value { font-size:2rem; font-weight:700; }
.stat-label { color:var(--text-muted); font-size:.85rem; text-transform:uppercase; }
.stat-card.passed .stat-value { color:var(--success); }
.stat-card.failed .stat-value { color:var(--error); }
.stat-card.error .stat-value { color:var(--warning); }
details.scenario { background:var(--bg-card); border:1px solid var(--border); border-radius:12px; margin-bottom:1rem; }
details.scenario > summary { cursor:pointer; list-style:none; padding:1rem 1.25rem; display:flex; justify-content:space-between; align-items:center; }
details.scenario > summary::-webkit-details-marker { display:none; }
.scenario-name { font-weight:600; font-size:1.1rem; }
.scenario-meta span { color:var(--text-muted); font-size:.85rem; margin-right:1rem; }
.scenario-details { padding:0 1.25rem 1.25rem; }
.scenario-error { color:var(--error); margin-bottom:1rem; }
.status-badge { padding:.25rem .75rem; border-radius:999px; font-size:.8rem; font-weight:600; text-transform:uppercase; }
.status-passed { background:rgba(34,197,94,.2); color:var(--success); }
.status-failed { background:rgba(239,68,68,.2); color:var(--error); }
.status-error { background:rgba(245,158,11,.2); color:var(--warning); }
.step { display:flex; gap:1rem; padding:.75rem; border-left:3px solid var(--border); margin-bottom:.5rem; background:rgba(15,23,42,.5); border-radius:0 8px 8px 0; }
.step-passed { border-left-color:var(--success); }
.step-failed { border-left-color:var(--error); }
.step-error { border-left-color:var(--warning); }
.step-icon { font-weight:700; width:1.5rem; text-align:center; }
.step-info { flex:1; }
.step-name { font-weight:500; }
.step-action { color:var(--text-muted); font-size:.85rem; font-family:monospace; }
.step-message { font-size:.85rem; margin-top:.25rem; color:var(--text-muted); word-break:break-word; }
.step-duration { color:var(--text-muted); font-size:.85rem; }
.step img { max-width:240px; margin-top:.5rem; border-radius:6px; border:1px solid var(--border); }
footer { text-align:center; color:var(--text-muted); margin-top:2rem; font-size:.85rem; }
</style>
</head>
<body>
<div class="container">
<header>
<h1>ZARAH Test Report</h1>
<div class="meta">{{.Title}} &middot; {{.GeneratedAt}} &middot; run {{.RunID}}</div>
</header>
<section class="stats">
<div class="stat-card"><div class="stat-value">{{.Stats.TotalScenarios}}</div><div class="stat-label">Scenarios</div></div>
<div class="stat-card passed"><div class="stat-value">{{.Stats.PassedScenarios}}</div><div class="stat-label">Passed</div></div>
<div class="stat-card failed"><div class="stat-value">{{.Stats.FailedScenarios}}</div><div class="stat-label">Failed</div></div>
<div class="stat-card error"><div class="stat-value">{{.Stats.ErrorScenarios}}</div><div class="stat-label">Errors</div></div>
<div class="stat-card"><div class="stat-value">{{printf "%.1f" .Stats.PassRate}}%</div><div class="stat-label">Pass Rate</div></div>
<div class="stat-card"><div class="stat-value">{{printf "%.2f" .Stats.TotalDuration}}s</div><div class="stat-label">Duration</div></div>
</section>
<section>
{{range .Scenarios}}
<details class="scenario"{{if ne .Status "passed"}} open{{end}}>
<summary>
<div>
<div class="scenario-name">{{.Name}}</div>
<div class="scenario-meta"><span>{{.TotalSteps}} steps</span><span>{{.Duration}}</span></div>
</div>
<span class="status-badge status-{{.Status}}">{{.Status}}</span>
</summary>
<div class="scenario-details">
{{if .Description}}<p class="meta">{{.Description}}</p>{{end}}
{{if .Error}}<p class="scenario-error">{{.Error}}</p>{{end}}
{{range .Steps}}
<div class="step step-{{.Status}}">
<div class="step-icon">{{.Glyph}}</div>
<div class="step-info">
<div class="step-name">{{.Name}}</div>
<div class="step-action">{{.Action}}: {{.Target}}</div>
{{if .Message}}<div class="step-message">{{.Message}}</div>{{end}}
{{if .Screenshot}}<img src="{{.Screenshot}}" alt="screenshot for {{.Name}}">{{end}}
</div>
<div class="step-duration">{{.Duration}}</div>
</div>
{{end}}
</div>
</details>
{{end}}
</section>
<footer>Report generated by ZARAH - Browser QA Testing Agent</footer>
</div>
</body>
</html>
`
