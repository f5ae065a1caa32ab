package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics methods are safe to call on a nil receiver.
type Metrics struct {
	reg prometheus.Gatherer

	batchesSubmitted prometheus.Counter
	pollRequests     prometheus.Counter
	judgeWait        prometheus.Histogram
	submissions      *prometheus.CounterVec
	runs             *prometheus.CounterVec
	validations      *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		batchesSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "judge_batches_submitted_total",
			Help: "Batch submission requests sent to the judge.",
		}),
		pollRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "judge_poll_requests_total",
			Help: "Batch status queries sent to the judge.",
		}),
		judgeWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "judge_wait_seconds",
			Help:    "Time from batch submission until every result was terminal.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Scored submissions by final status.",
		}, []string{"status"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "runs_total",
			Help: "Practice runs by outcome.",
		}, []string{"result"}),
		validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "problem_validations_total",
			Help: "Reference-solution validations by outcome.",
		}, []string{"result"}),
	}
}

func (m *Metrics) BatchSubmitted() {
	if m == nil {
		return
	}
	m.batchesSubmitted.Inc()
}

func (m *Metrics) PollRequested() {
	if m == nil {
		return
	}
	m.pollRequests.Inc()
}

func (m *Metrics) ObserveJudgeWait(d time.Duration) {
	if m == nil {
		return
	}
	m.judgeWait.Observe(d.Seconds())
}

func (m *Metrics) SubmissionJudged(status string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(status).Inc()
}

func (m *Metrics) RunJudged(allPassed bool) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome(allPassed)).Inc()
}

func (m *Metrics) ProblemValidated(ok bool) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(outcome(ok)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func outcome(ok bool) string {
	if ok {
		return "passed"
	}
	return "failed"
}
