package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deck-server/internal/config"
)

func TestNewTextClient_UnknownType(t *testing.T) {
	_, err := NewTextClient(config.AIConfig{ClientType: "gemini"}, nil)
	assert.Error(t, err)
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"title\":\"Deck\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	}))
	defer srv.Close()

	client, err := NewTextClient(config.AIConfig{
		ClientType: "openai",
		BaseURL:    srv.URL + "/v1",
		Model:      "test-model",
		APIKey:     "sk-test",
		Timeout:    5 * time.Second,
	}, nil)
	require.NoError(t, err)

	out, usage, err := client.GenerateJSON(context.Background(), Request{
		System:     "You are a deck designer.",
		User:       "pitch deck",
		Attachment: &Attachment{MediaType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Deck"}`, out)
	assert.Equal(t, 17, usage.TotalTokens)

	format := captured["response_format"].(map[string]interface{})
	assert.Equal(t, "json_object", format["type"])
	messages := captured["messages"].([]interface{})
	require.Len(t, messages, 2)
	parts := messages[1].(map[string]interface{})["content"].([]interface{})
	require.Len(t, parts, 2)
	imagePart := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(imagePart["url"].(string), "data:image/png;base64,"))
}

func TestOpenAIClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewTextClient(config.AIConfig{ClientType: "openai", BaseURL: srv.URL, Model: "m", APIKey: "k", Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, _, err = client.GenerateJSON(context.Background(), Request{System: "s", User: "u"})
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestOpenAIClient_EmptySystemPrompt(t *testing.T) {
	client, err := NewTextClient(config.AIConfig{ClientType: "openai", BaseURL: "http://127.0.0.1:1", Model: "m", Timeout: time.Second}, nil)
	require.NoError(t, err)
	_, _, err = client.GenerateJSON(context.Background(), Request{System: "  ", User: "u"})
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestOllamaClient_GenerateJSON(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{\"slides\":[]}"},"done":true,"prompt_eval_count":30,"eval_count":10}` + "\n"))
	}))
	defer srv.Close()

	client, err := NewTextClient(config.AIConfig{ClientType: "ollama", BaseURL: srv.URL + "/v1", Model: "llama3", Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	assert.Equal(t, "llama3", client.Model())

	temp := 0.2
	out, usage, err := client.GenerateJSON(context.Background(), Request{System: "s", User: "u", Params: Params{Temperature: &temp}})
	require.NoError(t, err)
	assert.Equal(t, `{"slides":[]}`, out)
	assert.Equal(t, 40, usage.TotalTokens)
	assert.Equal(t, "json", captured["format"])
	assert.Equal(t, false, captured["stream"])
}

func TestTokenCounter_ApproximateFallback(t *testing.T) {
	tc := &TokenCounter{}

	assert.Equal(t, 3, tc.Count("abcdefghij"))

	out, truncated := tc.Truncate(strings.Repeat("x", 100), 10)
	assert.True(t, truncated)
	assert.Len(t, out, 40)

	out, truncated = tc.Truncate("short", 10)
	assert.False(t, truncated)
	assert.Equal(t, "short", out)

	out, truncated = tc.Truncate("anything", 0)
	assert.False(t, truncated)
	assert.Equal(t, "anything", out)
}
