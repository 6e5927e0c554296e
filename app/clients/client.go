package clients

import (
	"context"

	"GoLetterAI/app/letters"
)

// Interface is a notification channel for letters that need a human decision.
type Interface interface {
	Name() string
	Notify(ctx context.Context, doc letters.Document) error
}
