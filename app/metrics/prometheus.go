package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"GoLetterAI/app/teams"
)

type PrometheusRecorder struct {
	runsTotal          *prometheus.CounterVec
	roundsUsed         *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	ambiguousTotal     *prometheus.CounterVec
}

// NewPrometheusRecorder registers its collectors on reg; a nil reg uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "letter_workflow_runs_total",
				Help: "Completed approval workflow runs by outcome",
			},
			[]string{"outcome"},
		),
		roundsUsed: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "letter_workflow_rounds",
				Help:    "Rounds used per approval workflow run",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
			[]string{"outcome"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "letter_generator_calls_total",
				Help: "Text generator calls by role and status",
			},
			[]string{"role", "status"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "letter_generator_duration_seconds",
				Help:    "Duration of text generator calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"role"},
		),
		ambiguousTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "letter_ambiguous_markers_total",
				Help: "Messages whose approval markers were missing or conflicting",
			},
			[]string{"role", "kind"},
		),
	}
}

func (p *PrometheusRecorder) ObserveRun(outcome string, rounds int) {
	p.runsTotal.WithLabelValues(outcome).Inc()
	if rounds > 0 {
		p.roundsUsed.WithLabelValues(outcome).Observe(float64(rounds))
	}
}

func (p *PrometheusRecorder) ObserveGeneration(role teams.RoleID, status string, duration time.Duration) {
	p.generationsTotal.WithLabelValues(role.Key(), status).Inc()
	p.generationDuration.WithLabelValues(role.Key()).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncAmbiguous(role teams.RoleID, decision teams.Decision) {
	p.ambiguousTotal.WithLabelValues(role.Key(), decision.String()).Inc()
}
