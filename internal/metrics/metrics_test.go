package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/spigell/career-quiz/internal/analysis"
)

func TestPipelineOutcomes(t *testing.T) {
	p := NewPipeline(prometheus.NewRegistry())

	p.ObserveOutcome("")
	p.ObserveOutcome("")
	p.ObserveOutcome(analysis.KindUpstreamAI)

	assert.Equal(t, float64(2), testutil.ToFloat64(p.outcomes.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.outcomes.WithLabelValues("UPSTREAM_AI_FAILURE")))
}

func TestPipelineDiagnostics(t *testing.T) {
	p := NewPipeline(prometheus.NewRegistry())

	p.ObserveDiagnostics(0)
	p.ObserveDiagnostics(3)

	assert.Equal(t, float64(3), testutil.ToFloat64(p.diagnostics))
}

func TestPipelineStages(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPipeline(reg)

	p.ObserveStage(analysis.StageRecommend, 1500*time.Millisecond)
	p.ObserveStage(analysis.StagePersist, 2*time.Millisecond)
	p.ObserveRequest("/api/quiz/analyze", "200")

	assert.Equal(t, 2, testutil.CollectAndCount(p.stageDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.httpRequests.WithLabelValues("/api/quiz/analyze", "200")))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
