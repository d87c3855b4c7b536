package scenario

import (
	"encoding/json"
	"time"
)

// StepResult captures the outcome of executing one step.
type StepResult struct {
	Step        Step
	Status      Status
	Message     string
	Screenshot  string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	ActualValue any
	ErrorTrace  string
	Attempts    int
}

// NewStepResult starts a pending result for step.
func NewStepResult(step Step) StepResult {
	return StepResult{Step: step, Status: StatusPending, StartTime: time.Now()}
}

// Finish stamps the end time and derives the duration.
func (r *StepResult) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

type stepResultJSON struct {
	Step        Step       `json:"step"`
	Status      Status     `json:"status"`
	Message     string     `json:"message"`
	Screenshot  string     `json:"screenshot"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Duration    float64    `json:"duration"`
	ActualValue any        `json:"actual_value,omitempty"`
	ErrorTrace  string     `json:"error_trace,omitempty"`
	Attempts    int        `json:"attempts,omitempty"`
}

func (r StepResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(stepResultJSON{
		Step:        r.Step,
		Status:      r.Status,
		Message:     r.Message,
		Screenshot:  r.Screenshot,
		StartTime:   timePtr(r.StartTime),
		EndTime:     timePtr(r.EndTime),
		Duration:    r.Duration.Seconds(),
		ActualValue: r.ActualValue,
		ErrorTrace:  r.ErrorTrace,
		Attempts:    r.Attempts,
	})
}

func (r *StepResult) UnmarshalJSON(data []byte) error {
	var j stepResultJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*r = StepResult{
		Step:        j.Step,
		Status:      j.Status,
		Message:     j.Message,
		Screenshot:  j.Screenshot,
		StartTime:   timeVal(j.StartTime),
		EndTime:     timeVal(j.EndTime),
		Duration:    seconds(j.Duration),
		ActualValue: j.ActualValue,
		ErrorTrace:  j.ErrorTrace,
		Attempts:    j.Attempts,
	}
	return nil
}

// Result captures the outcome of executing one scenario.
type Result struct {
	Scenario     Scenario
	Status       Status
	StepResults  []StepResult
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	ErrorMessage string
}

// PassedSteps counts step results with status passed.
func (r *Result) PassedSteps() int { return r.count(StatusPassed) }

// FailedSteps counts step results with status failed.
func (r *Result) FailedSteps() int { return r.count(StatusFailed) }

// ErrorSteps counts step results with status error.
func (r *Result) ErrorSteps() int { return r.count(StatusError) }

// TotalSteps is the number of executed steps.
func (r *Result) TotalSteps() int { return len(r.StepResults) }

func (r *Result) count(s Status) int {
	n := 0
	for _, sr := range r.StepResults {
		if sr.Status == s {
			n++
		}
	}
	return n
}

// NotPassed returns the step results whose status is not passed.
func (r *Result) NotPassed() []StepResult {
	var out []StepResult
	for _, sr := range r.StepResults {
		if sr.Status != StatusPassed {
			out = append(out, sr)
		}
	}
	return out
}

// Finalize stamps the end time and applies the aggregation rule. An aborted
// scenario (ErrorMessage set) is an error regardless of its step outcomes.
func (r *Result) Finalize() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Status = Aggregate(r.StepResults)
	if r.ErrorMessage != "" {
		r.Status = StatusError
	}
}

type resultJSON struct {
	Scenario     Scenario     `json:"scenario"`
	Status       Status       `json:"status"`
	StepResults  []StepResult `json:"step_results"`
	StartTime    *time.Time   `json:"start_time"`
	EndTime      *time.Time   `json:"end_time"`
	Duration     float64      `json:"duration"`
	ErrorMessage string       `json:"error_message,omitempty"`
	PassedSteps  int          `json:"passed_steps"`
	FailedSteps  int          `json:"failed_steps"`
	TotalSteps   int          `json:"total_steps"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	steps := r.StepResults
	if steps == nil {
		steps = []StepResult{}
	}
	return json.Marshal(resultJSON{
		Scenario:     r.Scenario,
		Status:       r.Status,
		StepResults:  steps,
		StartTime:    timePtr(r.StartTime),
		EndTime:      timePtr(r.EndTime),
		Duration:     r.Duration.Seconds(),
		ErrorMessage: r.ErrorMessage,
		PassedSteps:  r.PassedSteps(),
		FailedSteps:  r.FailedSteps(),
		TotalSteps:   r.TotalSteps(),
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var j resultJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*r = Result{
		Scenario:     j.Scenario,
		Status:       j.Status,
		StepResults:  j.StepResults,
		StartTime:    timeVal(j.StartTime),
		EndTime:      timeVal(j.EndTime),
		Duration:     seconds(j.Duration),
		ErrorMessage: j.ErrorMessage,
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
