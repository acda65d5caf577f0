package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGemini("test-key", zerolog.Nop())
	g.endpoint = srv.URL + "/models/%s:generateContent?key=%s"
	g.retry.InitialDelay = time.Millisecond
	g.retry.MaxDelay = 2 * time.Millisecond
	g.retry.Jitter = false
	return g
}

func TestGenerateMapsRolesAndJoinsParts(t *testing.T) {
	var captured geminiRequest
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": "Привет, "}, {"text": "как дела?"}},
				},
			}},
		})
	})

	reply, err := g.Generate(context.Background(), []Message{
		{Role: "system", Content: "будь краток"},
		{Role: "user", Content: "привет"},
		{Role: "assistant", Content: "здравствуй"},
		{Role: "user", Content: "как ты?"},
	}, GenOptions{Model: "gemini-2.5-flash-lite", Temperature: 0.9, TopP: 0.9, MaxOutputTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "Привет, как дела?", reply)

	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "будь краток", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.InDelta(t, 0.9, captured.GenerationConfig.Temperature, 1e-9)
	assert.Equal(t, 100, captured.GenerationConfig.MaxOutputTokens)
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := g.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenOptions{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateRetriesRateLimits(t *testing.T) {
	var calls atomic.Int32
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]string{{"text": "ок"}}},
			}},
		})
	})

	reply, err := g.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenOptions{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "ок", reply)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateEmptyCandidates(t *testing.T) {
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	_, err := g.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenOptions{Model: "m"})
	assert.Error(t, err)
}
