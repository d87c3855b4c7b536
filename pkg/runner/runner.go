// Package runner drives scenarios through their setup, main and teardown
// phases and runs suites of scenarios.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/executor"
	"github.com/ormasoftchile/zarah/pkg/logging"
	"github.com/ormasoftchile/zarah/pkg/scenario"
	"github.com/ormasoftchile/zarah/pkg/session"
)

// Abort messages recorded on scenario results.
const (
	MsgTimeout   = "scenario timeout exceeded"
	MsgCancelled = "cancelled"
	MsgSkipped   = "skipped: suite stopped after failure"
)

// Session is an open browser session owned by one scenario run.
type Session interface {
	executor.Invoker
	Close() error
}

// OpenFunc opens a new session.
type OpenFunc func(ctx context.Context) (Session, error)

// FromManager adapts a session manager into an OpenFunc.
func FromManager(m *session.Manager) OpenFunc {
	return func(ctx context.Context) (Session, error) {
		s, err := m.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// DefaultWorkers bounds concurrent scenarios in a parallel suite.
const DefaultWorkers = 4

// DefaultTeardownTimeout bounds the teardown phase of one scenario.
const DefaultTeardownTimeout = 60 * time.Second

// Runner executes scenarios and suites.
type Runner struct {
	open     OpenFunc
	exec     *executor.Executor
	logger   *zap.Logger
	observer Observer
	workers  int
	teardown time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.logger = logging.OrNop(l) } }

// WithObserver registers an observer for lifecycle events.
func WithObserver(o Observer) Option { return func(r *Runner) { r.observer = o } }

// WithWorkers bounds how many scenarios a parallel suite runs at once.
func WithWorkers(n int) Option { return func(r *Runner) { r.workers = n } }

// WithTeardownTimeout bounds how long teardown steps may run once the
// scenario has been detached from its deadline.
func WithTeardownTimeout(d time.Duration) Option { return func(r *Runner) { r.teardown = d } }

// New returns a Runner that opens sessions with open and executes steps
// with exec.
func New(open OpenFunc, exec *executor.Executor, opts ...Option) *Runner {
	r := &Runner{
		open:     open,
		exec:     exec,
		logger:   zap.NewNop(),
		observer: NopObserver{},
		workers:  DefaultWorkers,
		teardown: DefaultTeardownTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	if r.exec == nil {
		r.exec = executor.New(executor.WithLogger(r.logger))
	}
	if r.observer == nil {
		r.observer = NopObserver{}
	}
	if r.workers < 1 {
		r.workers = 1
	}
	if r.teardown <= 0 {
		r.teardown = DefaultTeardownTimeout
	}
	return r
}

// RunScenario runs one scenario in its own session and returns its result.
// It never fails: every problem is recorded on the result.
func (r *Runner) RunScenario(ctx context.Context, sc scenario.Scenario) scenario.Result {
	return r.runScenario(ctx, 0, sc)
}

func (r *Runner) runScenario(ctx context.Context, index int, sc scenario.Scenario) scenario.Result {
	result := scenario.Result{Scenario: sc, Status: scenario.StatusPending, StartTime: time.Now()}
	r.observer.ScenarioStarted(index, sc)
	log := r.logger.With(zap.String("scenario", sc.Name))
	log.Info("scenario started")

	finish := func() scenario.Result {
		result.Finalize()
		log.Info("scenario finished",
			zap.String("status", string(result.Status)),
			zap.Int("steps", result.TotalSteps()),
			zap.Duration("duration", result.Duration),
		)
		r.observer.ScenarioFinished(index, result)
		return result
	}

	expanded, err := sc.Expand()
	if err != nil {
		result.ErrorMessage = err.Error()
		return finish()
	}

	sess, err := r.open(ctx)
	if err != nil {
		log.Warn("session open failed", zap.Error(err))
		result.ErrorMessage = err.Error()
		return finish()
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debug("session close", zap.Error(cerr))
		}
	}()

	runCtx := ctx
	if d := expanded.Deadline(); d > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	state := &executor.State{}
	run := func(phase Phase, steps []scenario.Step, stopOnCritical bool, c context.Context) (abort bool) {
		for _, st := range steps {
			if phase != PhaseTeardown && c.Err() != nil {
				result.ErrorMessage = abortMessage(ctx, c)
				return true
			}
			res := r.exec.Execute(c, sess, state, st)
			result.StepResults = append(result.StepResults, res)
			r.observer.StepFinished(index, phase, res)
			if stopOnCritical && st.Critical && res.Status != scenario.StatusPassed {
				return true
			}
		}
		return false
	}

	if run(PhaseSetup, expanded.SetupSteps, true, runCtx) {
		if result.ErrorMessage == "" && runCtx.Err() != nil {
			result.ErrorMessage = abortMessage(ctx, runCtx)
		}
		if result.ErrorMessage == "" {
			last := result.StepResults[len(result.StepResults)-1]
			result.ErrorMessage = "Critical setup step failed: " + last.Step.Name
		}
		return finish()
	}

	run(PhaseSteps, expanded.Steps, true, runCtx)
	if result.ErrorMessage == "" && runCtx.Err() != nil {
		result.ErrorMessage = abortMessage(ctx, runCtx)
	}

	// Teardown is detached from the scenario deadline and from caller
	// cancellation, and bounded by its own timeout.
	tdCtx, tdCancel := context.WithTimeout(context.WithoutCancel(ctx), r.teardown)
	defer tdCancel()
	run(PhaseTeardown, expanded.TeardownSteps, false, tdCtx)

	return finish()
}

func abortMessage(parent, run context.Context) string {
	if parent.Err() != nil {
		return MsgCancelled
	}
	if errors.Is(run.Err(), context.DeadlineExceeded) {
		return MsgTimeout
	}
	return run.Err().Error()
}

// RunSuite runs every scenario of suite and returns one result per
// scenario in declaration order.
func (r *Runner) RunSuite(ctx context.Context, suite *scenario.Suite) []scenario.Result {
	r.logger.Info("suite started",
		zap.String("suite", suite.Name),
		zap.Int("scenarios", len(suite.Scenarios)),
		zap.Bool("parallel", suite.Parallel),
	)
	var results []scenario.Result
	if suite.Parallel {
		results = r.runParallel(ctx, suite)
	} else {
		results = r.runSequential(ctx, suite)
	}
	r.logger.Info("suite finished", zap.String("suite", suite.Name), zap.Int("results", len(results)))
	return results
}

func (r *Runner) runSequential(ctx context.Context, suite *scenario.Suite) []scenario.Result {
	results := make([]scenario.Result, len(suite.Scenarios))
	stopped := false
	for i, sc := range suite.Scenarios {
		switch {
		case stopped:
			results[i] = r.notRun(i, sc, MsgSkipped)
		case ctx.Err() != nil:
			results[i] = r.notRun(i, sc, MsgCancelled)
		default:
			results[i] = r.runScenario(ctx, i, sc)
			if suite.StopOnFailure && results[i].Status != scenario.StatusPassed {
				stopped = true
			}
		}
	}
	return results
}

func (r *Runner) runParallel(ctx context.Context, suite *scenario.Suite) []scenario.Result {
	results := make([]scenario.Result, len(suite.Scenarios))
	sem := make(chan struct{}, r.workers)
	var stopped atomic.Bool
	var wg sync.WaitGroup

	for i, sc := range suite.Scenarios {
		wg.Add(1)
		go func(idx int, sc scenario.Scenario) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = r.notRun(idx, sc, MsgCancelled)
				return
			}
			defer func() { <-sem }()

			switch {
			case stopped.Load():
				results[idx] = r.notRun(idx, sc, MsgSkipped)
			case ctx.Err() != nil:
				results[idx] = r.notRun(idx, sc, MsgCancelled)
			default:
				results[idx] = r.runScenario(ctx, idx, sc)
				if suite.StopOnFailure && results[idx].Status != scenario.StatusPassed {
					stopped.Store(true)
				}
			}
		}(i, sc)
	}

	wg.Wait()
	return results
}

// notRun records a scenario that was never started.
func (r *Runner) notRun(index int, sc scenario.Scenario, reason string) scenario.Result {
	now := time.Now()
	result := scenario.Result{Scenario: sc, StartTime: now, ErrorMessage: reason}
	result.Finalize()
	r.logger.Info("scenario not run", zap.String("scenario", sc.Name), zap.String("reason", reason))
	r.observer.ScenarioFinished(index, result)
	return result
}

// Passed reports whether every result passed.
func Passed(results []scenario.Result) bool {
	for _, res := range results {
		if res.Status != scenario.StatusPassed {
			return false
		}
	}
	return true
}

// Summary is a one-line count of results by status.
func Summary(results []scenario.Result) string {
	var passed, failed, errored int
	for _, res := range results {
		switch res.Status {
		case scenario.StatusPassed:
			passed++
		case scenario.StatusFailed:
			failed++
		default:
			errored++
		}
	}
	return fmt.Sprintf("%d passed, %d failed, %d error", passed, failed, errored)
}
