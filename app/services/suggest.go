package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/models"
)

const (
	defaultConfidence = 0.8
	maxAlternatives   = 2
)

var (
	typePatterns      = buildTypePatterns()
	confidencePattern = regexp.MustCompile(`(?i)confidence(?:\s+level)?\s*[:=]?\s*\**\s*([01](?:\.\d+)?|\.\d+)`)
	reasoningPattern  = regexp.MustCompile(`(?im)^\W*reasoning\W*\s*(.+)$`)
)

// buildTypePatterns accepts "claim_denial", "claim denial" and "claim-denial".
func buildTypePatterns() map[letters.LetterType]*regexp.Regexp {
	out := make(map[letters.LetterType]*regexp.Regexp)
	for _, t := range letters.Types() {
		words := strings.Split(string(t), "_")
		out[t] = regexp.MustCompile(`(?i)\b` + strings.Join(words, `[ _-]`) + `\b`)
	}
	return out
}

func (s *Service) SuggestType(ctx context.Context, userPrompt string) (*letters.TypeSuggestion, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return nil, letters.NewInvalidInput("user_prompt is required")
	}

	content, err := s.completer.Complete(ctx, []models.Message{
		{Role: models.SystemRole, Content: models.SuggestTypeSystemPrompt},
		{Role: models.UserRole, Content: models.SuggestTypeTask(userPrompt)},
	})
	if err != nil {
		return nil, fmt.Errorf("suggest letter type: %w", err)
	}
	return parseSuggestion(content), nil
}

type mention struct {
	letterType letters.LetterType
	pos        int
}

// parseSuggestion picks the earliest-mentioned letter type; the next ones become
// alternatives. Nothing recognized falls back to general.
func parseSuggestion(content string) *letters.TypeSuggestion {
	suggestion := &letters.TypeSuggestion{
		SuggestedType:    letters.General,
		Confidence:       defaultConfidence,
		Reasoning:        strings.TrimSpace(content),
		AlternativeTypes: []letters.LetterType{},
	}
	if suggestion.Reasoning == "" {
		suggestion.Reasoning = "Unable to determine letter type"
	}

	var mentions []mention
	for t, p := range typePatterns {
		if loc := p.FindStringIndex(content); loc != nil {
			mentions = append(mentions, mention{letterType: t, pos: loc[0]})
		}
	}
	sort.Slice(mentions, func(i, j int) bool { return mentions[i].pos < mentions[j].pos })
	for i, m := range mentions {
		if i == 0 {
			suggestion.SuggestedType = m.letterType
			continue
		}
		if len(suggestion.AlternativeTypes) < maxAlternatives {
			suggestion.AlternativeTypes = append(suggestion.AlternativeTypes, m.letterType)
		}
	}

	if m := confidencePattern.FindStringSubmatch(content); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 1 {
			suggestion.Confidence = v
		}
	}
	if m := reasoningPattern.FindStringSubmatch(content); m != nil {
		suggestion.Reasoning = strings.TrimSpace(m[1])
	}
	return suggestion
}
