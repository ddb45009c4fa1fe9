package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/papermeta/internal/config"
)

func TestNewGenerator_HuggingFaceDefault(t *testing.T) {
	gen, err := NewGenerator(config.LLMConfig{Key: "k", BaseURL: "http://example.invalid", TimeoutSecs: 90})
	require.NoError(t, err)
	assert.IsType(t, &hfGenerator{}, gen)
}

func TestNewGenerator_HuggingFaceMissingKey(t *testing.T) {
	_, err := NewGenerator(config.LLMConfig{Provider: "huggingface"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.key")
}

func TestNewGenerator_Anthropic(t *testing.T) {
	gen, err := NewGenerator(config.LLMConfig{
		Provider:       "anthropic",
		AnthropicKey:   "k",
		AnthropicModel: "claude-haiku-4-5-20251001",
		MaxTokens:      512,
	})
	require.NoError(t, err)
	assert.IsType(t, &anthropicGenerator{}, gen)
}

func TestNewGenerator_AnthropicMissingKey(t *testing.T) {
	_, err := NewGenerator(config.LLMConfig{Provider: "anthropic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic_key")
}

func TestNewGenerator_UnknownProvider(t *testing.T) {
	_, err := NewGenerator(config.LLMConfig{Provider: "openrouter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestHFGenerator_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"generated_text": "model says hi"}]`))
	}))
	defer srv.Close()

	gen, err := NewGenerator(config.LLMConfig{
		Key:         "k",
		BaseURL:     srv.URL,
		MaxTokens:   512,
		Temperature: 0.3,
		TimeoutSecs: 5,
	})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "model says hi", out)
}

type countingGenerator struct {
	calls atomic.Int64
}

func (c *countingGenerator) Generate(context.Context, string) (string, error) {
	c.calls.Add(1)
	return "ok", nil
}

func TestNewRateLimited_PassThroughWhenDisabled(t *testing.T) {
	inner := &countingGenerator{}
	assert.Same(t, Generator(inner), NewRateLimited(inner, 0))
}

func TestRateLimited_Throttles(t *testing.T) {
	inner := &countingGenerator{}
	gen := NewRateLimited(inner, 20) // burst 1, then 50ms per token

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := gen.Generate(context.Background(), "p")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), inner.calls.Load())
	// Two refills after the initial burst.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimited_ContextCancelled(t *testing.T) {
	inner := &countingGenerator{}
	gen := NewRateLimited(inner, 0.001)

	// Burn the initial burst token.
	_, err := gen.Generate(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = gen.Generate(ctx, "p")
	require.Error(t, err)
	assert.Equal(t, int64(1), inner.calls.Load())
}
