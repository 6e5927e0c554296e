package models

import (
	"context"
	"errors"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/teams"
)

const (
	SystemRole    = "system"
	UserRole      = "user"
	AssistantRole = "assistant"
)

var ErrEmptyResponse = errors.New("empty LLM response")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is a single chat completion call against a hosted model.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	ModelName() string
}

// TextGenerator produces a role's next message. History is passed in full on every call;
// implementations must not keep conversation state between calls.
type TextGenerator interface {
	Generate(ctx context.Context, role teams.RoleID, instructions string,
		history []teams.ConversationEntry, req letters.Request) (string, error)
}

type GeneratorFunc func(ctx context.Context, role teams.RoleID, instructions string,
	history []teams.ConversationEntry, req letters.Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, role teams.RoleID, instructions string,
	history []teams.ConversationEntry, req letters.Request) (string, error) {
	return f(ctx, role, instructions, history, req)
}

// Retriever supplies reference material for a role's instructions.
type Retriever interface {
	Guidance(ctx context.Context, role teams.RoleID, req letters.Request) (string, error)
}
