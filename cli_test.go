package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/services"
	"GoLetterAI/app/teams"
)

func TestParseDraftFlags(t *testing.T) {
	f, err := parseDraftFlags([]string{
		"-name", "Jane Doe", "-policy", "POL-1", "-type", "Claim_Denial",
		"-prompt", "Deny the claim", "-rounds", "3", "-show-conversation",
	})
	require.NoError(t, err)
	assert.True(t, f.showConversation)
	assert.Equal(t, defaultConfigPath, f.config)

	req, err := f.request()
	require.NoError(t, err)
	assert.Equal(t, letters.ClaimDenial, req.LetterType)
	assert.Equal(t, 3, req.MaxRounds)
	assert.True(t, req.IncludeConversation)
	assert.NoError(t, req.Validate())
}

func TestDraftFlagsRejectUnknownType(t *testing.T) {
	f, err := parseDraftFlags([]string{"-name", "Jane", "-policy", "P", "-type", "memo", "-prompt", "x"})
	require.NoError(t, err)
	_, err = f.request()
	assert.True(t, errors.Is(err, letters.ErrInvalidInput))
}

func TestDraftFlagsMissingFields(t *testing.T) {
	f, err := parseDraftFlags([]string{"-prompt", "hello"})
	require.NoError(t, err)
	req, err := f.request()
	require.NoError(t, err)
	assert.ErrorIs(t, req.Validate(), letters.ErrInvalidInput)
}

func TestPrintDraft(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	resp := &services.DraftResponse{
		LetterContent: "Dear Jane,\nYour claim is approved.",
		ApprovalStatus: letters.ApprovalDetails{
			WriterApproved: true, ComplianceApproved: false, CustomerServiceApproved: true,
		},
		TotalRounds:      2,
		LetterType:       letters.ClaimApproval,
		CustomerName:     "Jane",
		ComplianceStatus: letters.StatusNeedsReview,
		QualityAssurance: "needs manual review",
		DocumentID:       "letter_1",
		Conversation: []teams.ConversationEntry{
			{Round: 1, Role: teams.Writer, Message: "Dear Jane WRITER_APPROVED", Timestamp: now},
			{Round: 1, Role: teams.ComplianceReviewer, Message: "Add a disclaimer COMPLIANCE_REJECTED", Timestamp: now},
		},
	}

	var out bytes.Buffer
	printDraft(&out, resp, true)
	s := out.String()
	assert.Contains(t, s, "claim_approval letter for Jane")
	assert.Contains(t, s, "Your claim is approved.")
	assert.Contains(t, s, "Compliance: ❌")
	assert.Contains(t, s, "needs_review after 2 round(s)")
	assert.Contains(t, s, "Saved as letter_1")
	assert.Contains(t, s, "Round 1")
	assert.Contains(t, s, "ComplianceReviewer rejected")

	out.Reset()
	printDraft(&out, resp, false)
	assert.NotContains(t, out.String(), "Round 1")
}
