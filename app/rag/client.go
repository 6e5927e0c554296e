package rag

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/teams"
)

const (
	chunkSize   = 500
	overlap     = 100
	defaultTopK = 4

	audienceAll = "all"
)

// Options configures the guideline store.
type Options struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	VectorSize int
	Folder     string
	TopK       int
}

// Client retrieves compliance and style guidelines for the Writer and the ComplianceReviewer.
type Client struct {
	vectors    vectorStore
	embedder   Embedder
	folder     string
	vectorSize int
	topK       int
}

func NewClient(embedder Embedder, opts Options) (*Client, error) {
	vectors, err := NewQdrantStore(opts.Host, opts.Port, opts.APIKey, opts.Collection)
	if err != nil {
		return nil, err
	}
	return newClient(vectors, embedder, opts), nil
}

func newClient(vectors vectorStore, embedder Embedder, opts Options) *Client {
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Client{
		vectors:    vectors,
		embedder:   embedder,
		folder:     opts.Folder,
		vectorSize: opts.VectorSize,
		topK:       topK,
	}
}

func (c *Client) Close() error {
	return c.vectors.Close()
}

func (c *Client) Search(ctx context.Context, text string, filters map[string][]string, k int) ([]VectorDoc, error) {
	vec, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.vectors.Query(ctx, vec, filters, k)
}

// Guidance returns the guideline excerpts most relevant to the request, for the roles that
// use them. Other roles get an empty string.
func (c *Client) Guidance(ctx context.Context, role teams.RoleID, req letters.Request) (string, error) {
	audience := audienceFor(role)
	if audience == "" {
		return "", nil
	}

	query := fmt.Sprintf("%s letter. %s %s", req.LetterType, req.LetterType.Description(), req.UserPrompt)
	docs, err := c.Search(ctx, query, map[string][]string{"audience": {audience, audienceAll}}, c.topK)
	if err != nil {
		return "", fmt.Errorf("guidance search: %w", err)
	}

	var sb strings.Builder
	for _, d := range docs {
		source, _ := d.Metadata["source"].(string)
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", source, strings.TrimSpace(d.Content)))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func audienceFor(role teams.RoleID) string {
	switch role {
	case teams.Writer:
		return "writer"
	case teams.ComplianceReviewer:
		return "compliance"
	default:
		return ""
	}
}

// InitContext creates the collection and, the first time only, ingests every guideline
// file under the folder. Files in a "writer" or "compliance" subfolder only reach that
// role; the rest reach both.
func (c *Client) InitContext(ctx context.Context) error {
	alreadyExists, err := c.vectors.InitContext(ctx, c.vectorSize)
	if err != nil {
		return err
	}
	if alreadyExists {
		return nil
	}

	paths, err := loadFiles(c.folder)
	if err != nil {
		return err
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		chunks := ChunkText(letters.PlainText(string(data)), chunkSize, overlap)
		batch := make([]VectorDoc, 0, len(chunks))
		for i, ch := range chunks {
			vec, err := c.embedder.EmbedText(ctx, ch)
			if err != nil {
				return err
			}
			batch = append(batch, VectorDoc{
				ID:      uuid.New().String(),
				Content: ch,
				Metadata: map[string]any{
					"source":   filepath.Base(p),
					"chunk":    i,
					"audience": audienceOf(c.folder, p),
				},
				Vector: vec,
			})
		}

		if err = c.vectors.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		log.Printf("📚 Indexed %d chunks from %s", len(batch), p)
	}

	return nil
}

func loadFiles(folder string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt", ".html":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load guideline files: %w", err)
	}
	return paths, nil
}

func audienceOf(folder, path string) string {
	rel, err := filepath.Rel(folder, path)
	if err != nil {
		return audienceAll
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	switch first {
	case "writer", "compliance":
		if first != filepath.ToSlash(rel) {
			return first
		}
	}
	return audienceAll
}

func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(text)
	var chunks []string

	for start := 0; start < len(runes); start += size - overlap {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}
