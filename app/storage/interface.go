package storage

import (
	"context"
	"errors"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/teams"
)

var ErrNotFound = errors.New("letter not found")

type Interface interface {
	SaveLetter(ctx context.Context, doc letters.Document) error
	GetLetter(ctx context.Context, id string) (*letters.Document, error)
	ListLetters(ctx context.Context, filter Filter) ([]letters.Document, error)
	UpdateStatus(ctx context.Context, id string, status letters.ComplianceStatus) (*letters.Document, error)
	DeleteLetter(ctx context.Context, id string) error
	SaveConversation(ctx context.Context, letterID string, conversation []teams.ConversationEntry) error
	GetConversation(ctx context.Context, letterID string) ([]teams.ConversationEntry, error)
	Ping(ctx context.Context) error
	Close() error
}

// Filter narrows ListLetters. Zero values match everything; results are newest first.
type Filter struct {
	CustomerName   string
	PolicyNumber   string
	LetterType     letters.LetterType
	Status         letters.ComplianceStatus
	Limit          int
	IncludeDeleted bool
}

const DefaultListLimit = 50
