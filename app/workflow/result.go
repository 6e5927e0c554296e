package workflow

import (
	"fmt"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/teams"
)

const (
	StatusPending          = "pending"
	StatusFullyApproved    = "fully_approved"
	StatusNeedsImprovement = "needs_improvement"
	StatusFailed           = "failed"
)

// Approval holds each role's decision from the last round that ran.
type Approval struct {
	Writer          bool `json:"writer_approved"`
	Compliance      bool `json:"compliance_approved"`
	CustomerService bool `json:"customer_service_approved"`
	Overall         bool `json:"overall_approved"`
}

func (a *Approval) set(role teams.RoleID, approved bool) {
	switch role {
	case teams.Writer:
		a.Writer = approved
	case teams.ComplianceReviewer:
		a.Compliance = approved
	case teams.CustomerServiceReviewer:
		a.CustomerService = approved
	}
	a.Overall = a.Writer && a.Compliance && a.CustomerService
}

func (a Approval) Status() string {
	if a.Overall {
		return StatusFullyApproved
	}
	return StatusNeedsImprovement
}

// ComplianceStatus is how a finished letter is filed: approved, or held for manual review.
func (a Approval) ComplianceStatus() letters.ComplianceStatus {
	if a.Overall {
		return letters.StatusApproved
	}
	return letters.StatusNeedsReview
}

func (a Approval) Details() letters.ApprovalDetails {
	return letters.ApprovalDetails{
		WriterApproved:          a.Writer,
		ComplianceApproved:      a.Compliance,
		CustomerServiceApproved: a.CustomerService,
		OverallApproved:         a.Overall,
		Status:                  a.Status(),
	}
}

type Result struct {
	LetterContent string                    `json:"letter_content"`
	Approval      Approval                  `json:"approval_status"`
	TotalRounds   int                       `json:"total_rounds"`
	Conversation  []teams.ConversationEntry `json:"conversation"`
}

// GenerationFailure aborts a run. It keeps everything produced before the failing call.
type GenerationFailure struct {
	Round        int
	Role         teams.RoleID
	Cause        error
	Conversation []teams.ConversationEntry
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed in round %d for %s: %v", e.Round, e.Role, e.Cause)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Cause
}
