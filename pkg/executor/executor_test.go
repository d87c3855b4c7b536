package executor

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ormasoftchile/zarah/pkg/scenario"
	"github.com/ormasoftchile/zarah/pkg/session"
)

type call struct {
	op   string
	args map[string]any
}

// fakeSession answers operations from a table and records every call.
type fakeSession struct {
	calls     []call
	responses map[string][]*session.Response
	errs      map[string]error
	panicOn   string
}

func newFakeSession() *fakeSession {
	return &fakeSession{responses: map[string][]*session.Response{}, errs: map[string]error{}}
}

func text(s string) *session.Response {
	r := &session.Response{Success: true, Content: []session.Content{{Type: "text", Text: s}}}
	if strings.Contains(s, session.ErrorMarker) {
		r.Success = false
		r.Error = s
	}
	return r
}

func image() *session.Response {
	return &session.Response{Success: true, Content: []session.Content{
		{Type: "image", Data: base64.StdEncoding.EncodeToString([]byte("png")), MIMEType: "image/png"},
		{Type: "text", Text: "Screenshot captured"},
	}}
}

// on queues responses for op; the last one repeats.
func (f *fakeSession) on(op string, rs ...*session.Response) *fakeSession {
	f.responses[op] = append(f.responses[op], rs...)
	return f
}

func (f *fakeSession) Invoke(ctx context.Context, op string, args map[string]any) (*session.Response, error) {
	f.calls = append(f.calls, call{op, args})
	if op == f.panicOn {
		panic("collaborator exploded")
	}
	if err := f.errs[op]; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := f.responses[op]
	if len(q) == 0 {
		return text("ok"), nil
	}
	r := q[0]
	if len(q) > 1 {
		f.responses[op] = q[1:]
	}
	return r, nil
}

func (f *fakeSession) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func newTestExecutor(t *testing.T) *Executor {
	return New(WithScreenshotDir(t.TempDir()), WithRetryDelay(0))
}

func step(action scenario.Action, target string) scenario.Step {
	s := scenario.NewStep("step", action, target)
	s.ScreenshotOnFailure = false
	return s
}

func TestNavigateUpdatesURL(t *testing.T) {
	e := newTestExecutor(t)
	f := newFakeSession().on(session.OpNavigate, text("Navigated to https://example.com - Title: Example Domain"))
	st := &State{}

	res := e.Execute(context.Background(), f, st, step(scenario.ActionNavigate, "https://example.com"))
	if res.Status != scenario.StatusPassed {
		t.Fatalf("status = %q, want passed (%s)", res.Status, res.Message)
	}
	if st.CurrentURL != "https://example.com" {
		t.Errorf("CurrentURL = %q", st.CurrentURL)
	}
	if got := f.calls[0].args["url"]; got != "https://example.com" {
		t.Errorf("url arg = %v", got)
	}
}

func TestNavigateFailureKeepsURL(t *testing.T) {
	e := newTestExecutor(t)
	f := newFakeSession().on(session.OpNavigate, text("Error: net::ERR_NAME_NOT_RESOLVED"))
	st := &State{CurrentURL: "https://before.test"}

	res := e.Execute(context.Background(), f, st, step(scenario.ActionNavigate, "https://nope.invalid"))
	if res.Status != scenario.StatusFailed {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if st.CurrentURL != "https://before.test" {
		t.Errorf("CurrentURL = %q, want unchanged", st.CurrentURL)
	}
}

func TestDispatchArguments(t *testing.T) {
	tests := []struct {
		name string
		step scenario.Step
		op   string
		want map[string]any
	}{
		{"click", step(scenario.ActionClick, "#go"), session.OpClick, map[string]any{"selector": "#go"}},
		{"type empty value", step(scenario.ActionType, "#q"), session.OpType, map[string]any{"selector": "#q", "text": ""}},
		{"wait defaults", step(scenario.ActionWait, ""), session.OpWait, map[string]any{"timeout": 1000}},
		{"wait selector", func() scenario.Step {
			s := step(scenario.ActionWait, ".ready")
			s.Timeout = 250
			return s
		}(), session.OpWait, map[string]any{"selector": ".ready", "timeout": 250}},
		{"scroll defaults", step(scenario.ActionScroll, ""), session.OpScroll, map[string]any{"direction": "down", "amount": 500}},
		{"scroll overloaded timeout", func() scenario.Step {
			s := step(scenario.ActionScroll, "")
			s.Value = "up"
			s.Timeout = 120
			return s
		}(), session.OpScroll, map[string]any{"direction": "up", "amount": 120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSession()
			res := newTestExecutor(t).Execute(context.Background(), f, &State{}, tt.step)
			if res.Status != scenario.StatusPassed {
				t.Fatalf("status = %q (%s)", res.Status, res.Message)
			}
			if len(f.calls) != 1 || f.calls[0].op != tt.op {
				t.Fatalf("calls = %+v", f.calls)
			}
			got := f.calls[0].args
			if len(got) != len(tt.want) {
				t.Fatalf("args = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("args[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestScreenshotRecordsPath(t *testing.T) {
	e := newTestExecutor(t)
	f := newFakeSession().on(session.OpScreenshot, image())

	res := e.Execute(context.Background(), f, &State{}, step(scenario.ActionScreenshot, "home"))
	if res.Status != scenario.StatusPassed {
		t.Fatalf("status = %q (%s)", res.Status, res.Message)
	}
	if !strings.Contains(res.Screenshot, "home_") || !strings.HasSuffix(res.Screenshot, ".png") {
		t.Errorf("Screenshot = %q", res.Screenshot)
	}
}

func TestAssertText(t *testing.T) {
	e := newTestExecutor(t)
	f := newFakeSession().on(session.OpGetContent, text("Example Domain\nThis domain is for use"))

	if res := e.Execute(context.Background(), f, &State{}, step(scenario.ActionAssertText, "example domain")); res.Status != scenario.StatusPassed {
		t.Errorf("status = %q, want passed", res.Status)
	}
	if res := e.Execute(context.Background(), f, &State{}, step(scenario.ActionAssertText, "missing")); res.Status != scenario.StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
}

func TestAssertTextNoContent(t *testing.T) {
	e := newTestExecutor(t)
	f := newFakeSession().on(session.OpGetContent, text("Error: no page"))
	res := e.Execute(context.Background(), f, &State{}, step(scenario.ActionAssertText, "x"))
	if res.Status != scenario.StatusFailed || res.Message != "Could not get page content" {
		t.Errorf("result = %q %q", res.Status, res.Message)
	}
}

func TestAssertElement(t *testing.T) {
	html := `<html><body><div id="main" class="hero big"><img alt="logo"><h1>Hi</h1></div></body></html>`
	tests := []struct {
		selector string
		want     scenario.Status
	}{
		{"#main", scenario.StatusPassed},
		{"#other", scenario.StatusFailed},
		{".hero", scenario.StatusPassed},
		{".absent", scenario.StatusFailed},
		{"h1", scenario.StatusPassed},
		{"img[alt]", scenario.StatusPassed},
		{"table", scenario.StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			f := newFakeSession().on(session.OpGetHTML, text(html))
			res := newTestExecutor(t).Execute(context.Background(), f, &State{}, step(scenario.ActionAssertElement, tt.selector))
			if res.Status != tt.want {
				t.Errorf("status = %q, want %q (%s)", res.Status, tt.want, res.Message)
			}
		})
	}
}

func TestSelectorMatchesLeadingTagOnly(t *testing.T) {
	html := `<form action="/signup"><input type="text" name="user"></form>`
	tests := []struct {
		selector string
		want     bool
	}{
		{"form input[type=email]", true},
		{"FORM > button", true},
		{"table td", false},
		{"[data-test=x]", false},
		{`name="user"`, false},
		{`"/signup"`, true},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := SelectorMatches(html, tt.selector); got != tt.want {
			t.Errorf("SelectorMatches(%q) = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestAssertURLIsLocal(t *testing.T) {
	e := newTestExecutor(t)
	f := newFakeSession()
	st := &State{CurrentURL: "https://Example.com/login"}

	if res := e.Execute(context.Background(), f, st, step(scenario.ActionAssertURL, "example.com/LOGIN")); res.Status != scenario.StatusPassed {
		t.Errorf("status = %q, want passed", res.Status)
	}
	if res := e.Execute(context.Background(), f, st, step(scenario.ActionAssertURL, "dashboard")); res.Status != scenario.StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if len(f.calls) != 0 {
		t.Errorf("assert_url made %d calls", len(f.calls))
	}
}

func TestAssertTitle(t *testing.T) {
	tests := []struct {
		name, html, target string
		want               scenario.Status
		msg                string
	}{
		{"match", "<html><head><title>Example Domain</title></head></html>", "example", scenario.StatusPassed, ""},
		{"mismatch", "<title>Other</title>", "example", scenario.StatusFailed, ""},
		{"no title", "<html><body>x</body></html>", "example", scenario.StatusFailed, "No title found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSession().on(session.OpGetHTML, text(tt.html))
			res := newTestExecutor(t).Execute(context.Background(), f, &State{}, step(scenario.ActionAssertTitle, tt.target))
			if res.Status != tt.want {
				t.Errorf("status = %q, want %q", res.Status, tt.want)
			}
			if tt.msg != "" && res.Message != tt.msg {
				t.Errorf("message = %q, want %q", res.Message, tt.msg)
			}
		})
	}
}

func TestUnknownAction(t *testing.T) {
	res := newTestExecutor(t).Execute(context.Background(), newFakeSession(), &State{}, step("hover", "#x"))
	if res.Status != scenario.StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if res.Message != "Unknown action: hover" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestTransportErrorIsError(t *testing.T) {
	f := newFakeSession()
	f.errs[session.OpClick] = errors.New("broken pipe")
	res := newTestExecutor(t).Execute(context.Background(), f, &State{}, step(scenario.ActionClick, "#go"))
	if res.Status != scenario.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}
	if !strings.Contains(res.Message, "broken pipe") {
		t.Errorf("message = %q", res.Message)
	}
	if res.EndTime.IsZero() || res.Duration < 0 {
		t.Errorf("timing not recorded: %+v", res)
	}
}

func TestPanicIsError(t *testing.T) {
	f := newFakeSession()
	f.panicOn = session.OpClick
	res := newTestExecutor(t).Execute(context.Background(), f, &State{}, step(scenario.ActionClick, "#go"))
	if res.Status != scenario.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}
	if res.ErrorTrace == "" {
		t.Error("expected a stack trace")
	}
}

func TestCancelledContextIsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFakeSession()
	res := newTestExecutor(t).Execute(ctx, f, &State{}, step(scenario.ActionNavigate, "https://example.com"))
	if res.Status != scenario.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}
	if len(f.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(f.calls))
	}
}

func TestNilSession(t *testing.T) {
	res := newTestExecutor(t).Execute(context.Background(), nil, &State{}, step(scenario.ActionClick, "#go"))
	if res.Status != scenario.StatusError || res.Message != ErrNoSession.Error() {
		t.Errorf("result = %q %q", res.Status, res.Message)
	}
}

func TestFailureScreenshot(t *testing.T) {
	f := newFakeSession().
		on(session.OpClick, text("Error: element not found")).
		on(session.OpScreenshot, image())
	s := scenario.NewStep("Submit", scenario.ActionClick, "#submit")

	res := newTestExecutor(t).Execute(context.Background(), f, &State{}, s)
	if res.Status != scenario.StatusFailed {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if f.count(session.OpScreenshot) != 1 {
		t.Errorf("screenshots = %d, want 1", f.count(session.OpScreenshot))
	}
	if !strings.Contains(filepath.Base(res.Screenshot), "failure_Submit_") {
		t.Errorf("screenshot = %q, want a failure_Submit_ file", res.Screenshot)
	}
	if _, err := os.Stat(res.Screenshot); err != nil {
		t.Errorf("screenshot file: %v", err)
	}
}

func TestFailureScreenshotErrorTolerated(t *testing.T) {
	f := newFakeSession().on(session.OpClick, text("Error: element not found"))
	f.errs[session.OpScreenshot] = errors.New("no browser")
	s := scenario.NewStep("Submit", scenario.ActionClick, "#submit")

	res := newTestExecutor(t).Execute(context.Background(), f, &State{}, s)
	if res.Status != scenario.StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if res.Screenshot != "" {
		t.Errorf("screenshot = %q, want empty", res.Screenshot)
	}
}

func TestNoFailureScreenshotOnError(t *testing.T) {
	f := newFakeSession()
	f.errs[session.OpClick] = errors.New("broken pipe")
	s := scenario.NewStep("Submit", scenario.ActionClick, "#submit")

	newTestExecutor(t).Execute(context.Background(), f, &State{}, s)
	if f.count(session.OpScreenshot) != 0 {
		t.Errorf("screenshots = %d, want 0", f.count(session.OpScreenshot))
	}
}

func TestRetryStopsAtFirstPass(t *testing.T) {
	f := newFakeSession().on(session.OpClick,
		text("Error: not yet"), text("Error: not yet"), text("Clicked"))
	s := step(scenario.ActionClick, "#go")
	s.RetryCount = 5

	res := newTestExecutor(t).Execute(context.Background(), f, &State{}, s)
	if res.Status != scenario.StatusPassed {
		t.Fatalf("status = %q, want passed", res.Status)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
}

func TestRetryExhausted(t *testing.T) {
	f := newFakeSession().on(session.OpClick, text("Error: never"))
	s := scenario.NewStep("Click", scenario.ActionClick, "#go")
	s.RetryCount = 2

	res := newTestExecutor(t).Execute(context.Background(), f, &State{}, s)
	if res.Status != scenario.StatusFailed {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if f.count(session.OpClick) != 3 {
		t.Errorf("clicks = %d, want 3", f.count(session.OpClick))
	}
	if f.count(session.OpScreenshot) != 1 {
		t.Errorf("screenshots = %d, want 1", f.count(session.OpScreenshot))
	}
}

func TestCriticalStepNotRetried(t *testing.T) {
	f := newFakeSession().on(session.OpClick, text("Error: never"))
	s := step(scenario.ActionClick, "#go")
	s.Critical = true
	s.RetryCount = 3

	newTestExecutor(t).Execute(context.Background(), f, &State{}, s)
	if f.count(session.OpClick) != 1 {
		t.Errorf("clicks = %d, want 1", f.count(session.OpClick))
	}
}

func TestRetryDelayHonoursCancellation(t *testing.T) {
	f := newFakeSession().on(session.OpClick, text("Error: never"))
	s := step(scenario.ActionClick, "#go")
	s.RetryCount = 1
	e := New(WithScreenshotDir(t.TempDir()), WithRetryDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := e.Execute(ctx, f, &State{}, s)
	if res.Status != scenario.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}
}
