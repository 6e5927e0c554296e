package letters

import (
	"fmt"
	"strings"
	"time"
)

type LetterType string

const (
	ClaimDenial     LetterType = "claim_denial"
	ClaimApproval   LetterType = "claim_approval"
	PolicyRenewal   LetterType = "policy_renewal"
	CoverageChange  LetterType = "coverage_change"
	PremiumIncrease LetterType = "premium_increase"
	Cancellation    LetterType = "cancellation"
	Welcome         LetterType = "welcome"
	General         LetterType = "general"
)

var allTypes = []LetterType{
	ClaimDenial, ClaimApproval, PolicyRenewal, CoverageChange,
	PremiumIncrease, Cancellation, Welcome, General,
}

var typeDescriptions = map[LetterType]string{
	ClaimDenial:     "For denying insurance claims",
	ClaimApproval:   "For approving insurance claims",
	PolicyRenewal:   "For policy renewal notifications",
	CoverageChange:  "For changes in coverage",
	PremiumIncrease: "For premium rate increases",
	Cancellation:    "For policy cancellations",
	Welcome:         "For welcoming new customers",
	General:         "For general correspondence",
}

// Types returns the supported letter types in their canonical order.
func Types() []LetterType {
	out := make([]LetterType, len(allTypes))
	copy(out, allTypes)
	return out
}

func ParseLetterType(s string) (LetterType, error) {
	lt := LetterType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := typeDescriptions[lt]; !ok {
		return "", fmt.Errorf("invalid letter type: %q", s)
	}
	return lt, nil
}

func (t LetterType) Description() string {
	return typeDescriptions[t]
}

func (t LetterType) Valid() bool {
	_, ok := typeDescriptions[t]
	return ok
}

type CustomerInfo struct {
	Name         string `json:"name" validate:"required"`
	PolicyNumber string `json:"policy_number" validate:"required"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	AgentName    string `json:"agent_name,omitempty"`
}

// Request is the initial context of one letter generation: who the letter is for,
// which kind of letter, and what the requester asked for.
type Request struct {
	CustomerInfo        CustomerInfo `json:"customer_info"`
	LetterType          LetterType   `json:"letter_type" validate:"required,letter_type"`
	UserPrompt          string       `json:"user_prompt" validate:"required"`
	AdditionalContext   string       `json:"additional_context,omitempty"`
	IncludeConversation bool         `json:"include_conversation,omitempty"`
	MaxRounds           int          `json:"max_rounds,omitempty" validate:"gte=0"`
}

type ComplianceStatus string

const (
	StatusApproved    ComplianceStatus = "approved"
	StatusNeedsReview ComplianceStatus = "needs_review"
	StatusRejected    ComplianceStatus = "rejected"
	StatusSent        ComplianceStatus = "sent"
)

func ParseComplianceStatus(s string) (ComplianceStatus, error) {
	switch st := ComplianceStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusApproved, StatusNeedsReview, StatusRejected, StatusSent:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown compliance status %q", ErrInvalidInput, s)
	}
}

// ApprovalDetails is the persisted view of the reviewers' final decisions.
type ApprovalDetails struct {
	WriterApproved          bool   `json:"writer_approved"`
	ComplianceApproved      bool   `json:"compliance_approved"`
	CustomerServiceApproved bool   `json:"customer_service_approved"`
	OverallApproved         bool   `json:"overall_approved"`
	Status                  string `json:"status"`
}

// Document is a generated letter as stored.
type Document struct {
	ID               string           `json:"id"`
	Type             string           `json:"type"`
	CustomerName     string           `json:"customer_name"`
	PolicyNumber     string           `json:"policy_number"`
	LetterType       LetterType       `json:"letter_type"`
	Content          string           `json:"content"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	UserPrompt       string           `json:"user_prompt"`
	ApprovalDetails  ApprovalDetails  `json:"approval_details"`
	TotalRounds      int              `json:"total_rounds"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        *time.Time       `json:"updated_at,omitempty"`
	Deleted          bool             `json:"deleted,omitempty"`
	DeletedAt        *time.Time       `json:"deleted_at,omitempty"`
}

type ValidationResult struct {
	IsValid          bool      `json:"is_valid"`
	ComplianceIssues []string  `json:"compliance_issues"`
	Suggestions      []string  `json:"suggestions"`
	ComplianceScore  float64   `json:"compliance_score"`
	ValidatedBy      string    `json:"validated_by"`
	Timestamp        time.Time `json:"timestamp"`
}

type TypeSuggestion struct {
	SuggestedType    LetterType   `json:"suggested_type"`
	Confidence       float64      `json:"confidence"`
	Reasoning        string       `json:"reasoning"`
	AlternativeTypes []LetterType `json:"alternative_types"`
}
