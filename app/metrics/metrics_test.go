package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/models"
	"GoLetterAI/app/teams"
)

func TestPrometheusRecorder(t *testing.T) {
	rec := NewPrometheusRecorder(prometheus.NewRegistry())

	rec.ObserveRun(OutcomeApproved, 2)
	rec.ObserveRun(OutcomeNeedsReview, 5)
	rec.ObserveRun(OutcomeNeedsReview, 5)
	rec.ObserveGeneration(teams.Writer, StatusSuccess, time.Second)
	rec.IncAmbiguous(teams.ComplianceReviewer, teams.DecisionConflicting)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runsTotal.WithLabelValues(OutcomeApproved)))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.runsTotal.WithLabelValues(OutcomeNeedsReview)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.generationsTotal.WithLabelValues("writer", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.ambiguousTotal.WithLabelValues("compliance", "conflicting")))
}

type captured struct {
	nopRecorder
	statuses []string
}

func (c *captured) ObserveGeneration(role teams.RoleID, status string, _ time.Duration) {
	c.statuses = append(c.statuses, fmt.Sprintf("%s:%s", role.Key(), status))
}

func TestInstrumentGenerator(t *testing.T) {
	errs := []error{nil, models.ErrEmptyResponse, context.DeadlineExceeded, errors.New("boom")}
	i := 0
	gen := models.GeneratorFunc(func(context.Context, teams.RoleID, string, []teams.ConversationEntry, letters.Request) (string, error) {
		err := errs[i]
		i++
		return "x", err
	})

	rec := &captured{}
	wrapped := InstrumentGenerator(gen, rec)
	for range errs {
		wrapped.Generate(context.Background(), teams.CustomerServiceReviewer, "", nil, letters.Request{})
	}
	require.Len(t, rec.statuses, 4)
	assert.Equal(t, []string{
		"customer_service:success", "customer_service:empty",
		"customer_service:timeout", "customer_service:error",
	}, rec.statuses)
}
