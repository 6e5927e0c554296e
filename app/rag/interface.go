package rag

import "context"

type VectorDoc struct {
	ID       string
	Content  string
	Metadata map[string]any
	Vector   []float32
}

// Embedder turns text into a vector; models.LLMClient is the production one.
type Embedder interface {
	EmbedText(ctx context.Context, input string) ([]float32, error)
}

type vectorStore interface {
	UpsertBatch(ctx context.Context, docs []VectorDoc) error
	// Query keeps points whose payload matches any of the values of every filter key.
	Query(ctx context.Context, vector []float32, filters map[string][]string, k int) ([]VectorDoc, error)
	InitContext(ctx context.Context, vectorSize int) (bool, error)
	Close() error
}
