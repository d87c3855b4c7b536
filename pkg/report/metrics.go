package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// Collector accumulates run metrics in a private registry.
type Collector struct {
	registry         *prometheus.Registry
	scenariosTotal   *prometheus.CounterVec
	stepsTotal       *prometheus.CounterVec
	scenarioDuration *prometheus.HistogramVec
	stepDuration     *prometheus.HistogramVec
	passRate         prometheus.Gauge
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		scenariosTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "zarah_scenarios_total", Help: "Scenarios run, by status"},
			[]string{"suite", "status"},
		),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "zarah_steps_total", Help: "Steps run, by action and status"},
			[]string{"suite", "action", "status"},
		),
		scenarioDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zarah_scenario_duration_seconds",
				Help:    "Scenario duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"suite", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zarah_step_duration_seconds",
				Help:    "Step duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"suite", "action"},
		),
		passRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zarah_pass_rate_percent",
			Help: "Share of passed scenarios in the last run",
		}),
	}
	c.registry.MustRegister(c.scenariosTotal, c.stepsTotal, c.scenarioDuration, c.stepDuration, c.passRate)
	return c
}

// Observe records every result of a suite run.
func (c *Collector) Observe(suite string, results []scenario.Result) {
	for i := range results {
		r := &results[i]
		c.scenariosTotal.WithLabelValues(suite, string(r.Status)).Inc()
		c.scenarioDuration.WithLabelValues(suite, string(r.Status)).Observe(r.Duration.Seconds())
		for _, sr := range r.StepResults {
			action := string(sr.Step.Action)
			c.stepsTotal.WithLabelValues(suite, action, string(sr.Status)).Inc()
			c.stepDuration.WithLabelValues(suite, action).Observe(sr.Duration.Seconds())
		}
	}
	c.passRate.Set(Calculate(results).PassRate)
}

// Gatherer exposes the collector's registry.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

// Write writes the metrics in Prometheus text format to path.
func (c *Collector) Write(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// WriteMetrics is a shortcut that observes results and writes them to path.
func WriteMetrics(path, suite string, results []scenario.Result) error {
	c := NewCollector()
	c.Observe(suite, results)
	return c.Write(path)
}
