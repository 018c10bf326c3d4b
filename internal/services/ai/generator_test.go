package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc, backoff time.Duration) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Settings{
		APIKey:           "sk-test",
		BaseURL:          srv.URL,
		MaxAttempts:      3,
		RateLimitBackoff: backoff,
	}, logger.New("debug", 100))
}

func writeCompletion(w http.ResponseWriter, content string) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestNewAppliesDefaults(t *testing.T) {
	g := New(Settings{APIKey: "key", BaseURL: "https://api.example.com/v1/"}, logger.New("debug", 10))

	assert.Equal(t, "https://api.example.com/v1", g.settings.BaseURL)
	assert.Equal(t, "gpt-3.5-turbo", g.settings.Model)
	assert.Equal(t, 300, g.settings.MaxTokens)
	assert.Equal(t, 3, g.settings.MaxAttempts)
	assert.Equal(t, 20*time.Second, g.settings.RateLimitBackoff)
	assert.Equal(t, 30*time.Second, g.settings.Timeout)
}

func TestGenerateSendsPrompt(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, 300, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, systemMessage, req.Messages[0].Content)
		assert.Contains(t, req.Messages[1].Content, "a product titled 'Blue Mug'")
		assert.Contains(t, req.Messages[1].Content, DescriptionMarker)

		writeCompletion(w, "  1. Description: Nice mug\n2. Tags: mug\n3. Category: Kitchen\n ")
	}, time.Millisecond)

	text, err := gen.Generate(context.Background(), "Blue Mug")
	require.NoError(t, err)
	assert.Equal(t, "1. Description: Nice mug\n2. Tags: mug\n3. Category: Kitchen", text)
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	var calls int32
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeCompletion(w, "1. Description: ok")
	}, time.Millisecond)

	text, err := gen.Generate(context.Background(), "Mug")
	require.NoError(t, err)
	assert.Equal(t, "1. Description: ok", text)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, time.Millisecond)

	_, err := gen.Generate(context.Background(), "Mug")
	require.ErrorIs(t, err, apperror.ErrRateLimited)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGenerateAbortsOnOtherErrors(t *testing.T) {
	var calls int32
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}, time.Millisecond)

	_, err := gen.Generate(context.Background(), "Mug")
	var upstream *apperror.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGenerateHonoursCancellationDuringBackoff(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := gen.Generate(ctx, "Mug")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	gen := New(Settings{}, logger.New("debug", 10))
	_, err := gen.Generate(context.Background(), "Mug")
	assert.Error(t, err)
}
