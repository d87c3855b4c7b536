// Package executor runs a single scenario step against an open browser
// session and classifies its outcome.
package executor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/logging"
	"github.com/ormasoftchile/zarah/pkg/scenario"
	"github.com/ormasoftchile/zarah/pkg/session"
)

// Invoker sends a named operation over an open session.
type Invoker interface {
	Invoke(ctx context.Context, op string, args map[string]any) (*session.Response, error)
}

// State is the per-scenario state threaded through step execution.
// CurrentURL is only changed by a successful navigate.
type State struct {
	CurrentURL string
}

// ErrNoSession is reported when Execute is called without a session.
var ErrNoSession = errors.New("no session")

// Default argument values applied when a step leaves them unset.
const (
	DefaultWaitTimeout     = 1000 // ms
	DefaultScrollAmount    = 500  // px
	DefaultScrollDirection = "down"
)

// Executor executes steps. It is safe for concurrent use as long as each
// goroutine passes its own session and State.
type Executor struct {
	screenshotDir string
	retryDelay    time.Duration
	logger        *zap.Logger
	saveImage     func(dir, name, data string) (string, error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithScreenshotDir sets where screenshots are saved.
func WithScreenshotDir(dir string) Option { return func(e *Executor) { e.screenshotDir = dir } }

// WithRetryDelay sets the pause between retries of a failed step.
func WithRetryDelay(d time.Duration) Option { return func(e *Executor) { e.retryDelay = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(e *Executor) { e.logger = logging.OrNop(l) } }

// New returns an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		screenshotDir: "qa_screenshots",
		retryDelay:    time.Second,
		logger:        zap.NewNop(),
		saveImage:     session.SaveScreenshot,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs step and returns its result. It never returns an error:
// host-side failures are reported as StatusError on the result.
//
// A non-critical step that fails is retried up to RetryCount more times.
// The failure screenshot is taken once, after the last attempt.
func (e *Executor) Execute(ctx context.Context, sess Invoker, state *State, step scenario.Step) scenario.StepResult {
	res := scenario.NewStepResult(step)
	if sess == nil {
		res.Status = scenario.StatusError
		res.Message = ErrNoSession.Error()
		res.Finish()
		return res
	}

	attempts := 1
	if !step.Critical && step.RetryCount > 0 {
		attempts += step.RetryCount
	}
	for i := 1; i <= attempts; i++ {
		if i > 1 {
			e.logger.Debug("retrying step", zap.String("step", step.Name), zap.Int("attempt", i))
			if err := sleep(ctx, e.retryDelay); err != nil {
				res.Status = scenario.StatusError
				res.Message = err.Error()
				break
			}
		}
		res.Attempts = i
		e.attempt(ctx, sess, state, step, &res)
		if res.Status != scenario.StatusFailed {
			break
		}
	}

	if res.Status == scenario.StatusFailed && step.ScreenshotOnFailure {
		if path := e.failureScreenshot(ctx, sess, step); path != "" {
			res.Screenshot = path
		}
	}

	res.Finish()
	e.logger.Debug("step finished",
		zap.String("step", step.Name),
		zap.String("action", string(step.Action)),
		zap.String("status", string(res.Status)),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// attempt performs one dispatch and writes the outcome into res.
func (e *Executor) attempt(ctx context.Context, sess Invoker, state *State, step scenario.Step, res *scenario.StepResult) {
	defer func() {
		if r := recover(); r != nil {
			res.Status = scenario.StatusError
			res.Message = fmt.Sprint(r)
			res.ErrorTrace = string(debug.Stack())
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Status = scenario.StatusError
		res.Message = err.Error()
		return
	}

	o, err := e.dispatch(ctx, sess, state, step)
	if err != nil {
		res.Status = scenario.StatusError
		res.Message = err.Error()
		res.ErrorTrace = fmt.Sprintf("%+v", err)
		return
	}
	if o.passed {
		res.Status = scenario.StatusPassed
	} else {
		res.Status = scenario.StatusFailed
	}
	res.Message = o.message
	res.Screenshot = o.screenshot
	res.ActualValue = o.actual
}

// failureScreenshot captures the page after a failed step and returns the
// saved path, or "" when nothing could be saved.
func (e *Executor) failureScreenshot(ctx context.Context, sess Invoker, step scenario.Step) string {
	if ctx.Err() != nil {
		return ""
	}
	resp, err := sess.Invoke(ctx, session.OpScreenshot, nil)
	if err != nil || !resp.Success {
		return ""
	}
	img, ok := resp.Image()
	if !ok {
		return ""
	}
	path, err := e.saveImage(e.screenshotDir, "failure_"+step.Name, img.Data)
	if err != nil {
		e.logger.Debug("failure screenshot not saved", zap.String("step", step.Name), zap.Error(err))
		return ""
	}
	return path
}

type outcome struct {
	passed     bool
	message    string
	screenshot string
	actual     any
}

func fromResponse(resp *session.Response, okMessage string) outcome {
	if resp.Success {
		text, _ := resp.Text()
		if text == "" {
			text = okMessage
		}
		return outcome{passed: true, message: text}
	}
	return outcome{message: resp.Error}
}

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func (e *Executor) dispatch(ctx context.Context, sess Invoker, state *State, step scenario.Step) (outcome, error) {
	switch step.Action {
	case scenario.ActionNavigate:
		resp, err := sess.Invoke(ctx, session.OpNavigate, map[string]any{"url": step.Target})
		if err != nil {
			return outcome{}, err
		}
		if resp.Success {
			state.CurrentURL = step.Target
		}
		return fromResponse(resp, "Navigated to "+step.Target), nil

	case scenario.ActionClick:
		resp, err := sess.Invoke(ctx, session.OpClick, map[string]any{"selector": step.Target})
		if err != nil {
			return outcome{}, err
		}
		return fromResponse(resp, "Clicked "+step.Target), nil

	case scenario.ActionType:
		resp, err := sess.Invoke(ctx, session.OpType, map[string]any{"selector": step.Target, "text": step.Value})
		if err != nil {
			return outcome{}, err
		}
		return fromResponse(resp, "Typed into "+step.Target), nil

	case scenario.ActionWait:
		timeout := step.Timeout
		if timeout <= 0 {
			timeout = DefaultWaitTimeout
		}
		args := map[string]any{"timeout": timeout}
		if step.Target != "" {
			args["selector"] = step.Target
		}
		resp, err := sess.Invoke(ctx, session.OpWait, args)
		if err != nil {
			return outcome{}, err
		}
		return fromResponse(resp, fmt.Sprintf("Waited %dms", timeout)), nil

	case scenario.ActionScroll:
		direction := step.Value
		if direction == "" {
			direction = DefaultScrollDirection
		}
		amount := step.Timeout
		if amount <= 0 {
			amount = DefaultScrollAmount
		}
		resp, err := sess.Invoke(ctx, session.OpScroll, map[string]any{"direction": direction, "amount": amount})
		if err != nil {
			return outcome{}, err
		}
		return fromResponse(resp, "Scrolled "+direction), nil

	case scenario.ActionScreenshot:
		return e.screenshot(ctx, sess, step)

	case scenario.ActionAssertText:
		text, ok, err := fetchText(ctx, sess, session.OpGetContent)
		if err != nil {
			return outcome{}, err
		}
		if !ok {
			return outcome{message: "Could not get page content"}, nil
		}
		if containsFold(text, step.Target) {
			return outcome{passed: true, message: fmt.Sprintf("Text '%s' found on page", step.Target)}, nil
		}
		return outcome{message: fmt.Sprintf("Text '%s' not found on page", step.Target)}, nil

	case scenario.ActionAssertElement:
		html, ok, err := fetchText(ctx, sess, session.OpGetHTML)
		if err != nil {
			return outcome{}, err
		}
		if !ok {
			return outcome{message: "Could not get page HTML"}, nil
		}
		if SelectorMatches(html, step.Target) {
			return outcome{passed: true, message: fmt.Sprintf("Element '%s' found", step.Target)}, nil
		}
		return outcome{message: fmt.Sprintf("Element '%s' not found", step.Target)}, nil

	case scenario.ActionAssertURL:
		if containsFold(state.CurrentURL, step.Target) {
			return outcome{passed: true, message: fmt.Sprintf("URL contains '%s'", step.Target), actual: state.CurrentURL}, nil
		}
		return outcome{
			message: fmt.Sprintf("URL '%s' does not contain '%s'", state.CurrentURL, step.Target),
			actual:  state.CurrentURL,
		}, nil

	case scenario.ActionAssertTitle:
		html, ok, err := fetchText(ctx, sess, session.OpGetHTML)
		if err != nil {
			return outcome{}, err
		}
		if !ok {
			return outcome{message: "Could not get page HTML"}, nil
		}
		m := titlePattern.FindStringSubmatch(html)
		if m == nil {
			return outcome{message: "No title found"}, nil
		}
		title := strings.TrimSpace(m[1])
		if containsFold(title, step.Target) {
			return outcome{passed: true, message: fmt.Sprintf("Title contains '%s'", step.Target), actual: title}, nil
		}
		return outcome{message: fmt.Sprintf("Title '%s' does not contain '%s'", title, step.Target), actual: title}, nil

	default:
		return outcome{message: "Unknown action: " + string(step.Action)}, nil
	}
}

func (e *Executor) screenshot(ctx context.Context, sess Invoker, step scenario.Step) (outcome, error) {
	resp, err := sess.Invoke(ctx, session.OpScreenshot, nil)
	if err != nil {
		return outcome{}, err
	}
	if !resp.Success {
		return outcome{message: resp.Error}, nil
	}
	img, ok := resp.Image()
	if !ok {
		return outcome{message: "Screenshot response contained no image"}, nil
	}
	name := step.Target
	if name == "" {
		name = step.Name
	}
	path, err := e.saveImage(e.screenshotDir, name, img.Data)
	if err != nil {
		return outcome{}, err
	}
	return outcome{passed: true, message: "Screenshot saved: " + path, screenshot: path}, nil
}

// fetchText invokes op and returns its first text payload. ok is false when
// the call was answered but produced no usable text.
func fetchText(ctx context.Context, sess Invoker, op string) (string, bool, error) {
	resp, err := sess.Invoke(ctx, op, nil)
	if err != nil {
		return "", false, err
	}
	if !resp.Success {
		return "", false, nil
	}
	text, ok := resp.Text()
	return text, ok, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
