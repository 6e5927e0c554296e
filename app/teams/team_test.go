package teams

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoLetterAI/app/letters"
)

func TestNewTeamOverrides(t *testing.T) {
	team := NewTeam(
		MemberOverride{Role: ComplianceReviewer, Rules: []string{"Cite the state regulation when rejecting."}},
		MemberOverride{Role: Writer, System: "You write short letters."},
		MemberOverride{Role: RoleID(99), System: "ignored"},
	)

	require.Len(t, team.Members, 3)
	writer := team.Instructions(Writer, "")
	assert.Contains(t, writer, "You write short letters.")
	assert.Contains(t, writer, "WRITER_APPROVED")
	assert.Contains(t, writer, "WRITER_NEEDS_IMPROVEMENT")

	compliance := team.Instructions(ComplianceReviewer, "Rule 12: include the appeal window.")
	assert.Contains(t, compliance, "insurance compliance specialist")
	assert.Contains(t, compliance, "RULES:\n- Cite the state regulation when rejecting.")
	assert.Contains(t, compliance, "CONTEXT:\nRule 12: include the appeal window.")
}

func TestNilTeamInstructions(t *testing.T) {
	var team *Team
	got := team.Instructions(CustomerServiceReviewer, "")
	assert.Contains(t, got, "CUSTOMER_SERVICE_APPROVED")
}

func TestBuildTask(t *testing.T) {
	req := letters.Request{
		CustomerInfo: letters.CustomerInfo{Name: "Jane Doe", PolicyNumber: "POL-1", Phone: "555"},
		LetterType:   letters.PremiumIncrease,
		UserPrompt:   "Explain the 8% increase.",
	}
	task := BuildTask(req, 4)
	assert.Contains(t, task, "professional premium_increase insurance letter")
	assert.Contains(t, task, "- Name: Jane Doe")
	assert.Contains(t, task, "- Phone: 555")
	assert.Contains(t, task, "- Email: Not provided")
	assert.Contains(t, task, "Letter Requirements: Explain the 8% increase.")
	assert.Contains(t, task, "4 rounds maximum")
	assert.NotContains(t, task, "Additional Context")
}

func TestLastMessage(t *testing.T) {
	now := time.Now()
	history := []ConversationEntry{
		{Round: 1, Role: Writer, Message: "draft 1", Timestamp: now},
		{Round: 1, Role: ComplianceReviewer, Message: "no", Timestamp: now},
		{Round: 2, Role: Writer, Message: "draft 2", Timestamp: now},
	}
	e, ok := LastMessage(history, Writer)
	require.True(t, ok)
	assert.Equal(t, "draft 2", e.Message)

	_, ok = LastMessage(history, CustomerServiceReviewer)
	assert.False(t, ok)

	c := Clone(history)
	c[0].Message = "changed"
	assert.Equal(t, "draft 1", history[0].Message)
	assert.Nil(t, Clone(nil))
}
