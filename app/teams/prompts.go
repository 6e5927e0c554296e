package teams

import (
	"fmt"
	"strings"

	"GoLetterAI/app/letters"
)

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not provided"
	}
	return s
}

// BuildTask renders the opening request every role sees first.
func BuildTask(req letters.Request, maxRounds int) string {
	c := req.CustomerInfo
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Create a professional %s insurance letter that meets all compliance and customer service standards.\n\n", req.LetterType))
	sb.WriteString("Customer Information:\n")
	sb.WriteString(fmt.Sprintf("- Name: %s\n", c.Name))
	sb.WriteString(fmt.Sprintf("- Policy Number: %s\n", c.PolicyNumber))
	sb.WriteString(fmt.Sprintf("- Address: %s\n", orNotProvided(c.Address)))
	sb.WriteString(fmt.Sprintf("- Phone: %s\n", orNotProvided(c.Phone)))
	sb.WriteString(fmt.Sprintf("- Email: %s\n", orNotProvided(c.Email)))
	sb.WriteString(fmt.Sprintf("- Agent Name: %s\n\n", orNotProvided(c.AgentName)))
	sb.WriteString(fmt.Sprintf("Letter Type: %s (%s)\n", req.LetterType, req.LetterType.Description()))
	sb.WriteString(fmt.Sprintf("Letter Requirements: %s\n", req.UserPrompt))
	if req.AdditionalContext != "" {
		sb.WriteString(fmt.Sprintf("Additional Context: %s\n", req.AdditionalContext))
	}

	sb.WriteString("\nPROCESS:\n")
	sb.WriteString(fmt.Sprintf("1. %s: Create/refine the complete letter content\n", Writer))
	sb.WriteString(fmt.Sprintf("2. %s: Review for regulatory compliance and legal requirements\n", ComplianceReviewer))
	sb.WriteString(fmt.Sprintf("3. %s: Review for customer experience and clarity\n", CustomerServiceReviewer))

	sb.WriteString("\nAPPROVAL REQUIREMENTS:\n")
	for _, role := range Order {
		approved, rejected := role.Markers()
		sb.WriteString(fmt.Sprintf("- %s must end with: %q or %q\n", role, approved, rejected))
	}
	sb.WriteString(fmt.Sprintf("\nContinue refining until ALL agents approve or %d rounds maximum.\n", maxRounds))
	return sb.String()
}
