// Package metrics records workflow and generator activity.
package metrics

import (
	"context"
	"errors"
	"time"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/models"
	"GoLetterAI/app/teams"
)

const (
	OutcomeApproved    = "approved"
	OutcomeNeedsReview = "needs_review"
	OutcomeFailed      = "failed"

	StatusSuccess = "success"
	StatusError   = "error"
	StatusEmpty   = "empty"
	StatusTimeout = "timeout"
)

type Recorder interface {
	ObserveRun(outcome string, rounds int)
	ObserveGeneration(role teams.RoleID, status string, duration time.Duration)
	IncAmbiguous(role teams.RoleID, decision teams.Decision)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(string, int)                                {}
func (nopRecorder) ObserveGeneration(teams.RoleID, string, time.Duration) {}
func (nopRecorder) IncAmbiguous(teams.RoleID, teams.Decision)             {}

// Nop discards everything.
func Nop() Recorder {
	return nopRecorder{}
}

// InstrumentGenerator times every Generate call and records its status per role.
func InstrumentGenerator(gen models.TextGenerator, rec Recorder) models.TextGenerator {
	if rec == nil {
		return gen
	}
	return models.GeneratorFunc(func(ctx context.Context, role teams.RoleID, instructions string,
		history []teams.ConversationEntry, req letters.Request) (string, error) {
		start := time.Now()
		out, err := gen.Generate(ctx, role, instructions, history, req)
		rec.ObserveGeneration(role, statusOf(err), time.Since(start))
		return out, err
	})
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, models.ErrEmptyResponse):
		return StatusEmpty
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}
