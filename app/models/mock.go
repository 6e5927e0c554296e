package models

import (
	"context"

	"github.com/stretchr/testify/mock"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/teams"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) ModelName() string {
	return "mock"
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, role teams.RoleID, instructions string,
	history []teams.ConversationEntry, req letters.Request) (string, error) {
	args := m.Called(ctx, role, instructions, history, req)
	return args.String(0), args.Error(1)
}
