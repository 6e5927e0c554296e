package configs

import (
	"fmt"

	"GoLetterAI/app/models"
	"GoLetterAI/app/rag"
	"GoLetterAI/app/teams"
)

func (c *Config) BuildTeam() (*teams.Team, error) {
	overrides := make([]teams.MemberOverride, 0, len(c.Team))
	for _, mc := range c.Team {
		role, err := teams.ParseRole(mc.Role)
		if err != nil {
			return nil, fmt.Errorf("build team: %w", err)
		}
		overrides = append(overrides, teams.MemberOverride{Role: role, System: mc.System, Rules: mc.Rules})
	}
	return teams.NewTeam(overrides...), nil
}

func (l LLMConfig) Options() models.Options {
	return models.Options{
		BaseURL:         l.BaseURL,
		APIKey:          l.APIKey,
		APIVersion:      l.APIVersion,
		Model:           l.Model,
		EmbeddingsModel: l.EmbeddingsModel,
		Temperature:     l.Temperature,
		MaxTokens:       l.MaxTokens,
		MaxRetries:      l.MaxRetries,
	}
}

func (l LLMConfig) BuildCompleter() (models.Completer, error) {
	return models.NewCompleter(l.Provider, l.Options())
}

func (r RAGConfig) Options() rag.Options {
	return rag.Options{
		Host:       r.Host,
		Port:       r.Port,
		APIKey:     r.APIKey,
		Collection: r.Collection,
		VectorSize: r.VectorSize,
		Folder:     r.Folder,
		TopK:       r.TopK,
	}
}
