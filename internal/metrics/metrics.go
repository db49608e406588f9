package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spigell/career-quiz/internal/analysis"
)

const outcomeSuccess = "success"

// Pipeline records analysis measurements. It implements analysis.Recorder.
type Pipeline struct {
	stageDuration *prometheus.HistogramVec
	diagnostics   prometheus.Counter
	outcomes      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

var _ analysis.Recorder = (*Pipeline)(nil)

// NewPipeline registers the collectors on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)

	return &Pipeline{
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "career_quiz_stage_duration_seconds",
				Help:    "Duration of analysis pipeline stages in seconds",
				Buckets: []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"stage"},
		),
		diagnostics: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "career_quiz_answer_diagnostics_total",
				Help: "Total number of submitted answers that could not be resolved",
			},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "career_quiz_analyses_total",
				Help: "Total number of analyze requests by outcome",
			},
			[]string{"outcome"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "career_quiz_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

func (p *Pipeline) ObserveStage(stage string, elapsed time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (p *Pipeline) ObserveDiagnostics(count int) {
	if count > 0 {
		p.diagnostics.Add(float64(count))
	}
}

func (p *Pipeline) ObserveOutcome(kind analysis.Kind) {
	outcome := outcomeSuccess
	if kind != "" {
		outcome = string(kind)
	}
	p.outcomes.WithLabelValues(outcome).Inc()
}

// ObserveRequest counts a served HTTP request.
func (p *Pipeline) ObserveRequest(route, code string) {
	p.httpRequests.WithLabelValues(route, code).Inc()
}
