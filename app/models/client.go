package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"GoLetterAI/app/utils/restclient"
)

const (
	endpoint          = "/v1/chat/completions"
	embeddingEndpoint = "/v1/embeddings"

	defaultBaseURL    = "http://localhost:1234"
	defaultMaxRetries = 3
)

// Options configures every Completer backend. Fields a backend does not use are ignored.
type Options struct {
	BaseURL         string
	APIKey          string
	APIVersion      string
	Model           string
	EmbeddingsModel string
	Temperature     float64
	MaxTokens       int
	MaxRetries      int
}

var _ Completer = &LLMClient{}

// LLMClient talks to any OpenAI-compatible chat completions endpoint (LM Studio, Ollama, vLLM).
type LLMClient struct {
	restClient      restclient.Interface
	cache           sync.Map
	model           string
	embeddingsModel string
	temperature     float64
	maxTokens       int
	maxRetries      int
}

func NewLLMClient(opts Options) *LLMClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	var headers map[string]string
	if opts.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + opts.APIKey}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &LLMClient{
		restClient:      restclient.NewRestClient(baseURL, headers),
		model:           opts.Model,
		embeddingsModel: opts.EmbeddingsModel,
		temperature:     opts.Temperature,
		maxTokens:       opts.MaxTokens,
		maxRetries:      maxRetries,
	}
}

func (mc *LLMClient) ModelName() string {
	return mc.model
}

func (mc *LLMClient) Complete(ctx context.Context, messages []Message) (string, error) {
	payload := requestPayload{
		Model:       mc.model,
		Messages:    messages,
		Temperature: mc.temperature,
		MaxTokens:   mc.maxTokens,
	}
	if payload.MaxTokens == 0 {
		payload.MaxTokens = -1
	}

	response, err := mc.sendRequestAndParse(ctx, payload, mc.maxRetries)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return response.Choices[0].Message.Content, nil
}

func (mc *LLMClient) sendRequestAndParse(ctx context.Context, payload requestPayload, maxRetries int) (*ResponseLLM, error) {
	var err error
	var response []byte
	var status int

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			if err = sleepBackoff(ctx, i); err != nil {
				log.Println("🚨 Request canceled while waiting to retry")
				return nil, err
			}
		}
		if ctx.Err() != nil {
			log.Println("🚨 Request canceled before execution")
			return nil, ctx.Err()
		}

		response, status, err = mc.restClient.Post(ctx, endpoint, payload, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("⚠️ Attempt %d failed: HTTP %d | Error: %v", i+1, status, err)
			if !retryable(err) {
				break
			}
			continue
		}

		var generatedResponse ResponseLLM
		if err = json.Unmarshal(response, &generatedResponse); err != nil {
			err = fmt.Errorf("parse completion json: %w", err)
			log.Printf("⚠️ %v", err)
			continue
		}
		return &generatedResponse, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
}

// retryable reports whether another attempt could succeed: transport errors, throttling
// and server errors are retried, other client errors are not.
func retryable(err error) bool {
	var se *restclient.StatusError
	if !errors.As(err, &se) {
		return true
	}
	return se.Status == http.StatusTooManyRequests || se.Status >= http.StatusInternalServerError
}

func sleepBackoff(ctx context.Context, attempt int) error {
	sleep := time.Duration(100*(1<<uint(attempt))) * time.Millisecond
	sleep += time.Duration(time.Now().UnixNano() % int64(100*time.Millisecond))
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
