// Package llm selects and wraps the text-generation backend.
package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/paperdesk/papermeta/internal/config"
	"github.com/paperdesk/papermeta/pkg/anthropic"
	"github.com/paperdesk/papermeta/pkg/hfinference"
)

// Generator produces model output for a prompt. Implementations hide which
// provider is behind the call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator builds the Generator named by cfg.Provider.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "huggingface":
		if cfg.Key == "" {
			return nil, eris.New("llm: llm.key is required for the huggingface provider")
		}
		var opts []hfinference.Option
		if cfg.TimeoutSecs > 0 {
			opts = append(opts, hfinference.WithTimeout(cfg.Timeout()))
		}
		return &hfGenerator{
			client: hfinference.New(cfg.BaseURL, cfg.Key, opts...),
			params: hfinference.Params{
				MaxNewTokens: cfg.MaxTokens,
				Temperature:  cfg.Temperature,
			},
		}, nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, eris.New("llm: llm.anthropic_key is required for the anthropic provider")
		}
		return &anthropicGenerator{
			client:      anthropic.NewClient(cfg.AnthropicKey),
			model:       cfg.AnthropicModel,
			maxTokens:   int64(cfg.MaxTokens),
			temperature: cfg.Temperature,
		}, nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

type hfGenerator struct {
	client *hfinference.Client
	params hfinference.Params
}

func (g *hfGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.client.Generate(ctx, prompt, g.params)
}

type anthropicGenerator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temp := g.temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: &temp,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(g.model, "metadata_extraction")
	return resp.Text(), nil
}

// rateLimited throttles an inner Generator. Used by batch runs so many
// concurrent files share one request budget.
type rateLimited struct {
	inner   Generator
	limiter *rate.Limiter
}

// NewRateLimited wraps gen with a requests-per-second ceiling. A
// non-positive rps returns gen unchanged.
func NewRateLimited(gen Generator, rps float64) Generator {
	if rps <= 0 {
		return gen
	}
	return &rateLimited{inner: gen, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (r *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: rate limiter wait")
	}
	return r.inner.Generate(ctx, prompt)
}
