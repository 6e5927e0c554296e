package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/models"
	"GoLetterAI/app/teams"
)

const (
	validatorName = "ComplianceValidator"

	validScore   = 0.85
	invalidScore = 0.5
)

var (
	scorePattern  = regexp.MustCompile(`(?i)score\W*\s*([01](?:\.\d+)?|\.\d+)`)
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
)

func (s *Service) ValidateLetter(ctx context.Context, content, letterType string) (*letters.ValidationResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, letters.NewInvalidInput("letter_content is required")
	}
	lt := letters.General
	if letterType != "" {
		var err error
		if lt, err = letters.ParseLetterType(letterType); err != nil {
			return nil, letters.NewInvalidInput(fmt.Sprintf("invalid letter type: %s", letterType))
		}
	}

	answer, err := s.completer.Complete(ctx, []models.Message{
		{Role: models.SystemRole, Content: models.ValidateSystemPrompt},
		{Role: models.UserRole, Content: models.ValidateTask(letters.PlainText(content), lt)},
	})
	if err != nil {
		return nil, fmt.Errorf("validate letter: %w", err)
	}

	result := parseValidation(answer)
	result.Timestamp = s.now().UTC()
	s.logf("🔎 Validated %s letter: valid=%t score=%.2f issues=%d", lt, result.IsValid, result.ComplianceScore, len(result.ComplianceIssues))
	return result, nil
}

// parseValidation reads the validator's answer. Validity needs an unambiguous compliance
// approval; missing or conflicting markers make the letter invalid.
func parseValidation(answer string) *letters.ValidationResult {
	decision := teams.ParseDecision(teams.ComplianceReviewer, answer)
	result := &letters.ValidationResult{
		IsValid:          decision.Approved(),
		ComplianceIssues: []string{},
		Suggestions:      []string{},
		ValidatedBy:      validatorName,
	}

	var section *[]string
	for _, line := range strings.Split(answer, "\n") {
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item := strings.TrimSpace(teams.StripMarkers(teams.ComplianceReviewer, m[1]))
			if section != nil && item != "" && !strings.EqualFold(item, "none") {
				*section = append(*section, item)
			}
			continue
		}

		header := strings.ToLower(strings.Trim(strings.TrimSpace(line), "*#: "))
		switch {
		case strings.HasPrefix(header, "issues"), strings.HasPrefix(header, "compliance issues"):
			section = &result.ComplianceIssues
		case strings.HasPrefix(header, "suggestions"):
			section = &result.Suggestions
		case header != "":
			section = nil
		}
	}

	result.ComplianceScore = invalidScore
	if result.IsValid {
		result.ComplianceScore = validScore
	}
	if m := scorePattern.FindStringSubmatch(answer); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 1 {
			result.ComplianceScore = v
		}
	}
	if !result.IsValid && len(result.ComplianceIssues) == 0 {
		result.ComplianceIssues = append(result.ComplianceIssues, "Review required disclaimers")
	}
	return result
}
