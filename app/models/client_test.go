package models

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"GoLetterAI/app/utils/restclient"
)

func completionBody(content string) []byte {
	resp := map[string]any{
		"id":    "cmpl-1",
		"model": "test-model",
		"choices": []map[string]any{
			{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return b
}

func TestLLMClientComplete(t *testing.T) {
	var got requestPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(completionBody("Dear Jane WRITER_APPROVED"))
	}))
	defer ts.Close()

	c := NewLLMClient(Options{BaseURL: ts.URL + "/", APIKey: "secret", Model: "test-model", Temperature: 0.3})
	out, err := c.Complete(context.Background(), []Message{{Role: SystemRole, Content: "sys"}, {Role: UserRole, Content: "task"}})
	require.NoError(t, err)
	assert.Equal(t, "Dear Jane WRITER_APPROVED", out)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, -1, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "test-model", c.ModelName())
}

func TestLLMClientEmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody("   "))
	}))
	defer ts.Close()

	_, err := NewLLMClient(Options{BaseURL: ts.URL}).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestLLMClientRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(completionBody("ok"))
	}))
	defer ts.Close()

	out, err := NewLLMClient(Options{BaseURL: ts.URL}).Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLLMClientClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := NewLLMClient(Options{BaseURL: ts.URL, MaxRetries: 3}).Complete(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLLMClientCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLLMClient(Options{BaseURL: "http://127.0.0.1:1"}).Complete(ctx, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEmbedTextCached(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, embeddingEndpoint, r.URL.Path)
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2],"index":0}],"model":"emb"}`))
	}))
	defer ts.Close()

	c := NewLLMClient(Options{BaseURL: ts.URL, EmbeddingsModel: "emb"})
	for i := 0; i < 2; i++ {
		emb, err := c.EmbedText(context.Background(), "disclaimer")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, emb)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err := NewLLMClient(Options{BaseURL: ts.URL}).EmbedText(context.Background(), "x")
	assert.Error(t, err)
}

func TestEmbedTextNoData(t *testing.T) {
	rest := &restclient.MockRestClient{}
	rest.On("Post", embeddingEndpoint, mock.Anything, map[string]string(nil)).
		Return([]byte(`{"data":[]}`), http.StatusOK, nil).Once()

	c := NewLLMClient(Options{EmbeddingsModel: "emb"})
	c.restClient = rest
	_, err := c.EmbedText(context.Background(), "premium")
	assert.EqualError(t, err, "no embedding data returned")
	rest.AssertExpectations(t)
}

func TestNewCompleter(t *testing.T) {
	for provider, want := range map[string]any{
		"":          &LLMClient{},
		"local":     &LLMClient{},
		"OpenAI":    &OpenAIClient{},
		"anthropic": &AnthropicClient{},
	} {
		c, err := NewCompleter(provider, Options{Model: "m", APIKey: "k"})
		require.NoError(t, err, provider)
		assert.IsType(t, want, c, provider)
	}

	c, err := NewCompleter("azure", Options{BaseURL: "https://example.openai.azure.com", Model: "letters"})
	require.NoError(t, err)
	assert.Equal(t, "letters", c.ModelName())

	_, err = NewCompleter("azure", Options{})
	assert.Error(t, err)
	_, err = NewCompleter("gemini", Options{})
	assert.Error(t, err)
}
