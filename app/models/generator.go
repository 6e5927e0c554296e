package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/teams"
)

const (
	ProviderLocal     = "local"
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// NewCompleter picks the backend for provider; an empty provider means the
// OpenAI-compatible REST client.
func NewCompleter(provider string, opts Options) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderLocal:
		return NewLLMClient(opts), nil
	case ProviderOpenAI:
		return NewOpenAIClient(opts), nil
	case ProviderAzure:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("azure provider requires llm.base_url (the resource endpoint)")
		}
		return NewAzureOpenAIClient(opts), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

var _ TextGenerator = &ChatGenerator{}

// ChatGenerator turns one role's turn into a chat completion: the role's instructions as
// system prompt, the task as first user message, then the shared conversation.
type ChatGenerator struct {
	completer Completer
}

func NewChatGenerator(c Completer) *ChatGenerator {
	return &ChatGenerator{completer: c}
}

func (g *ChatGenerator) Generate(ctx context.Context, role teams.RoleID, instructions string,
	history []teams.ConversationEntry, req letters.Request) (string, error) {
	content, err := g.completer.Complete(ctx, BuildMessages(role, instructions, req, history))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// BuildMessages maps the conversation onto chat roles from the point of view of role: its
// own earlier messages are assistant turns, everybody else's are user turns prefixed with
// the speaker's name.
func BuildMessages(role teams.RoleID, instructions string, req letters.Request,
	history []teams.ConversationEntry) []Message {
	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = teams.DefaultMaxRounds
	}
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages,
		Message{Role: SystemRole, Content: instructions},
		Message{Role: UserRole, Content: teams.BuildTask(req, maxRounds)},
	)
	for _, entry := range history {
		if entry.Role == role {
			messages = append(messages, Message{Role: AssistantRole, Content: entry.Message})
			continue
		}
		messages = append(messages, Message{
			Role:    UserRole,
			Content: fmt.Sprintf("[%s]: %s", entry.Role, entry.Message),
		})
	}
	return messages
}

// WithTimeout bounds every Generate call by d. A non-positive d returns gen unchanged.
func WithTimeout(gen TextGenerator, d time.Duration) TextGenerator {
	if d <= 0 {
		return gen
	}
	return GeneratorFunc(func(ctx context.Context, role teams.RoleID, instructions string,
		history []teams.ConversationEntry, req letters.Request) (string, error) {
		timeoutCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return gen.Generate(timeoutCtx, role, instructions, history, req)
	})
}
