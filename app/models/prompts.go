package models

import (
	"fmt"
	"strings"

	"GoLetterAI/app/letters"
)

const SuggestTypeSystemPrompt = `You are an insurance letter classification expert. Based on the user's description,
suggest the most appropriate letter type from the available options.
Provide your suggestion with a confidence level between 0 and 1 and a brief reasoning.
Also suggest 1-2 alternative types if applicable.

HARD OUTPUT FORMAT:
Type: <letter type>
Confidence: <number between 0 and 1>
Reasoning: <one or two sentences>
Alternatives: <comma separated letter types, or none>`

const ValidateSystemPrompt = `You are an insurance compliance specialist. Validate the provided letter for:
1) Regulatory compliance, 2) Required legal disclaimers, 3) Accuracy and completeness,
4) Professional tone, 5) Industry standards.

HARD OUTPUT FORMAT:
Issues:
- <one compliance issue per line, omit the section if there are none>
Suggestions:
- <one suggestion per line>
Score: <overall compliance score between 0 and 1>
End with exactly one of COMPLIANCE_APPROVED (valid for sending) or COMPLIANCE_REJECTED.`

func SuggestTypeTask(userPrompt string) string {
	var sb strings.Builder
	sb.WriteString("Based on this description, what type of insurance letter is most appropriate?\n\n")
	sb.WriteString(fmt.Sprintf("Description: %s\n\nAvailable letter types:\n", userPrompt))
	for _, t := range letters.Types() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", t, t.Description()))
	}
	return sb.String()
}

func ValidateTask(content string, letterType letters.LetterType) string {
	return fmt.Sprintf("Validate this %s insurance letter for compliance:\n\n%s\n\n"+
		"Check for all required legal disclaimers, regulatory compliance, professional tone and language, "+
		"completeness of information and industry best practices.", letterType, content)
}
