package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/models"
	"GoLetterAI/app/storage"
	"GoLetterAI/app/teams"
	"GoLetterAI/app/utils"
	"GoLetterAI/app/workflow"
)

const (
	ServiceName    = "Insurance Letter Drafting API"
	ServiceVersion = "1.0.0"

	orchestrationType = "approval_based_iterative"
)

type Runner interface {
	Run(ctx context.Context, in letters.Request, maxRounds int) (*workflow.Result, error)
}

type Notifier interface {
	NotifyAll(ctx context.Context, doc letters.Document) error
}

type Settings struct {
	DefaultMaxRounds    int
	PersistConversation bool
	NotifyOnReview      bool
}

type Service struct {
	runner    Runner
	completer models.Completer
	store     storage.Interface
	notifier  Notifier
	audit     *utils.AuditLogger
	settings  Settings
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAuditLogger(a *utils.AuditLogger) Option {
	return func(s *Service) { s.audit = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(runner Runner, completer models.Completer, store storage.Interface, settings Settings, opts ...Option) *Service {
	if settings.DefaultMaxRounds < 1 {
		settings.DefaultMaxRounds = teams.DefaultMaxRounds
	}
	s := &Service{
		runner:    runner,
		completer: completer,
		store:     store,
		settings:  settings,
		now:       time.Now,
		newID:     func() string { return "letter_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DraftResponse is what a caller gets back for one generated letter. A letter that ran out
// of rounds is still a successful draft; ComplianceStatus tells it needs manual review.
type DraftResponse struct {
	LetterContent     string                    `json:"letter_content"`
	ApprovalStatus    letters.ApprovalDetails   `json:"approval_status"`
	TotalRounds       int                       `json:"total_rounds"`
	OrchestrationType string                    `json:"orchestration_type"`
	AgentsUsed        []string                  `json:"agents_used"`
	LetterType        letters.LetterType        `json:"letter_type"`
	CustomerName      string                    `json:"customer_name"`
	ComplianceStatus  letters.ComplianceStatus  `json:"compliance_status"`
	QualityAssurance  string                    `json:"quality_assurance"`
	DocumentID        string                    `json:"document_id,omitempty"`
	StorageError      string                    `json:"storage_error,omitempty"`
	Conversation      []teams.ConversationEntry `json:"conversation,omitempty"`
}

func (s *Service) Draft(ctx context.Context, req letters.Request) (*DraftResponse, error) {
	if req.LetterType == "" {
		req.LetterType = letters.General
	}
	maxRounds := req.MaxRounds
	if maxRounds == 0 {
		maxRounds = s.settings.DefaultMaxRounds
	}

	s.logf("📨 Generating %s letter for %s", req.LetterType, req.CustomerInfo.Name)
	result, err := s.runner.Run(ctx, req, maxRounds)
	if err != nil {
		return nil, err
	}

	details := result.Approval.Details()
	resp := &DraftResponse{
		LetterContent:     result.LetterContent,
		ApprovalStatus:    details,
		TotalRounds:       result.TotalRounds,
		OrchestrationType: orchestrationType,
		AgentsUsed:        agentNames(),
		LetterType:        req.LetterType,
		CustomerName:      req.CustomerInfo.Name,
		ComplianceStatus:  result.Approval.ComplianceStatus(),
		QualityAssurance:  qualityNote(result),
	}
	if req.IncludeConversation {
		resp.Conversation = result.Conversation
	}

	doc := letters.Document{
		ID:               s.newID(),
		Type:             "letter",
		CustomerName:     req.CustomerInfo.Name,
		PolicyNumber:     req.CustomerInfo.PolicyNumber,
		LetterType:       req.LetterType,
		Content:          result.LetterContent,
		ComplianceStatus: resp.ComplianceStatus,
		UserPrompt:       req.UserPrompt,
		ApprovalDetails:  details,
		TotalRounds:      result.TotalRounds,
		CreatedAt:        s.now().UTC(),
	}
	if err = s.store.SaveLetter(ctx, doc); err != nil {
		s.logf("⚠️ Failed to save letter: %v", err)
		resp.StorageError = err.Error()
	} else {
		resp.DocumentID = doc.ID
		if req.IncludeConversation || s.settings.PersistConversation {
			if err = s.store.SaveConversation(ctx, doc.ID, result.Conversation); err != nil {
				s.logf("⚠️ Failed to save conversation of %s: %v", doc.ID, err)
				resp.StorageError = err.Error()
			}
		}
	}

	if !details.OverallApproved && s.settings.NotifyOnReview && s.notifier != nil {
		if err = s.notifier.NotifyAll(ctx, doc); err != nil {
			s.logf("⚠️ Review notification for %s incomplete: %v", doc.ID, err)
		}
	}

	s.logf("✅ Letter %s ready: %s after %d round(s)", doc.ID, details.Status, result.TotalRounds)
	return resp, nil
}

func (s *Service) GetLetter(ctx context.Context, id string) (*letters.Document, error) {
	return s.store.GetLetter(ctx, id)
}

func (s *Service) ListLetters(ctx context.Context, filter storage.Filter) ([]letters.Document, error) {
	if filter.LetterType != "" && !filter.LetterType.Valid() {
		return nil, letters.NewInvalidInput(fmt.Sprintf("invalid letter type: %s", filter.LetterType))
	}
	return s.store.ListLetters(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*letters.Document, error) {
	st, err := letters.ParseComplianceStatus(status)
	if err != nil {
		return nil, letters.NewInvalidInput(fmt.Sprintf("invalid compliance status: %s", status))
	}
	doc, err := s.store.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	s.logf("📝 Letter %s marked %s", id, st)
	return doc, nil
}

func (s *Service) DeleteLetter(ctx context.Context, id string) error {
	if err := s.store.DeleteLetter(ctx, id); err != nil {
		return err
	}
	s.logf("🗑️ Letter %s deleted", id)
	return nil
}

// Conversation returns the stored review conversation of a letter that still exists.
func (s *Service) Conversation(ctx context.Context, id string) ([]teams.ConversationEntry, error) {
	if _, err := s.store.GetLetter(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetConversation(ctx, id)
}

type HealthReport struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Model     string    `json:"model,omitempty"`
	Database  string    `json:"database"`
	Endpoints []string  `json:"endpoints"`
}

var Endpoints = []string{
	"/api/health",
	"/api/draft-letter",
	"/api/suggest-letter-type",
	"/api/validate-letter",
	"/api/letters",
	"/api/letters/{id}",
	"/api/letters/{id}/status",
	"/api/letters/{id}/conversation",
	"/api/audits",
	"/metrics",
}

func (s *Service) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:    "healthy",
		Timestamp: s.now().UTC(),
		Service:   ServiceName,
		Version:   ServiceVersion,
		Database:  "connected",
		Endpoints: Endpoints,
	}
	if s.completer != nil {
		report.Model = s.completer.ModelName()
	}
	if err := s.store.Ping(ctx); err != nil {
		report.Database = "error: " + err.Error()
		report.Status = "degraded"
	}
	return report
}

func (s *Service) logf(format string, v ...any) {
	if s.audit != nil {
		s.audit.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

func agentNames() []string {
	names := make([]string, 0, len(teams.Order))
	for _, role := range teams.Order {
		names = append(names, role.String())
	}
	return names
}

func qualityNote(result *workflow.Result) string {
	if result.Approval.Overall {
		return "Multi-round approval process completed"
	}
	return fmt.Sprintf("Not approved by every reviewer after %d rounds, needs manual review", result.TotalRounds)
}
