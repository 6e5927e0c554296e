package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/metrics"
	"GoLetterAI/app/models"
	"GoLetterAI/app/teams"
	"GoLetterAI/app/utils"
)

const previewWidth = 100

// Workflow runs the Writer -> ComplianceReviewer -> CustomerServiceReviewer loop until
// every role approves in the same round or the round cap is reached.
// A Workflow keeps no per-run state and may serve concurrent runs.
type Workflow struct {
	team      *teams.Team
	generator models.TextGenerator
	retriever models.Retriever
	audit     *utils.AuditLogger
	recorder  metrics.Recorder
	now       func() time.Time
}

type Option func(*Workflow)

func WithRetriever(r models.Retriever) Option {
	return func(w *Workflow) { w.retriever = r }
}

func WithAuditLogger(a *utils.AuditLogger) Option {
	return func(w *Workflow) { w.audit = a }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(w *Workflow) { w.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func New(team *teams.Team, generator models.TextGenerator, opts ...Option) *Workflow {
	if team == nil {
		team = teams.NewTeam()
	}
	w := &Workflow{
		team:      team,
		generator: generator,
		recorder:  metrics.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) Run(ctx context.Context, in letters.Request, maxRounds int) (*Result, error) {
	if maxRounds < 1 {
		return nil, letters.NewInvalidInput(fmt.Sprintf("max_rounds must be at least 1, got %d", maxRounds))
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.MaxRounds = maxRounds

	instructions := w.instructions(ctx, in)
	w.logf("🚀 Drafting %s letter for %s (max %d rounds)", in.LetterType, in.CustomerInfo.Name, maxRounds)

	var approval Approval
	conversation := make([]teams.ConversationEntry, 0, maxRounds*len(teams.Order))
	round := 0
	for round < maxRounds && !approval.Overall {
		round++
		for _, role := range teams.Order {
			message, err := w.generate(ctx, role, instructions[role], conversation, in)
			if err != nil {
				w.logf("❌ Round %d: %s failed: %v", round, role, err)
				w.recorder.ObserveRun(metrics.OutcomeFailed, round)
				return nil, &GenerationFailure{
					Round:        round,
					Role:         role,
					Cause:        err,
					Conversation: teams.Clone(conversation),
				}
			}

			conversation = append(conversation, teams.ConversationEntry{
				Round:     round,
				Role:      role,
				Message:   message,
				Timestamp: w.timestamp(conversation),
			})

			decision := teams.ParseDecision(role, message)
			if decision.Ambiguous() {
				w.logf("⚠️ Round %d: %s decision is %s, counted as not approved", round, role, decision)
				w.recorder.IncAmbiguous(role, decision)
			}
			approval.set(role, decision.Approved())
			w.logf("💬 [Round %d] %s (%s): %s", round, role, decision, utils.Preview(message, previewWidth))
		}
	}

	result := &Result{
		LetterContent: finalLetter(conversation),
		Approval:      approval,
		TotalRounds:   round,
		Conversation:  conversation,
	}
	if approval.Overall {
		w.logf("🎉 Letter approved by every reviewer after %d round(s)", round)
		w.recorder.ObserveRun(metrics.OutcomeApproved, round)
	} else {
		w.logf("🚧 Maximum rounds (%d) reached without full approval, letter needs manual review", maxRounds)
		w.recorder.ObserveRun(metrics.OutcomeNeedsReview, round)
	}
	return result, nil
}

func (w *Workflow) generate(ctx context.Context, role teams.RoleID, instructions string,
	conversation []teams.ConversationEntry, in letters.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	message, err := w.generator.Generate(ctx, role, instructions, teams.Clone(conversation), in)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", models.ErrEmptyResponse
	}
	return message, nil
}

// instructions resolves each role's instructions once per run. Retrieval failures only
// drop the extra guidance.
func (w *Workflow) instructions(ctx context.Context, in letters.Request) map[teams.RoleID]string {
	out := make(map[teams.RoleID]string, len(teams.Order))
	for _, role := range teams.Order {
		var guidance string
		if w.retriever != nil {
			g, err := w.retriever.Guidance(ctx, role, in)
			if err != nil {
				w.logf("⚠️ Guidance lookup for %s failed: %v", role, err)
			}
			guidance = g
		}
		out[role] = w.team.Instructions(role, guidance)
	}
	return out
}

// timestamp never goes backwards within one conversation, whatever the clock does.
func (w *Workflow) timestamp(conversation []teams.ConversationEntry) time.Time {
	ts := w.now()
	if n := len(conversation); n > 0 && ts.Before(conversation[n-1].Timestamp) {
		return conversation[n-1].Timestamp
	}
	return ts
}

func (w *Workflow) logf(format string, v ...any) {
	if w.audit != nil {
		w.audit.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

// finalLetter is the Writer's last message without its approval markers.
func finalLetter(conversation []teams.ConversationEntry) string {
	entry, ok := teams.LastMessage(conversation, teams.Writer)
	if !ok {
		return ""
	}
	return teams.StripMarkers(teams.Writer, entry.Message)
}
