package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/maison-group/supplier-risk-cli/internal/config"
	"github.com/maison-group/supplier-risk-cli/internal/resilience"
	"github.com/maison-group/supplier-risk-cli/pkg/anthropic"
)

const contextSystemPrompt = `You are a supply chain risk analyst. Given a sourcing location, respond with a single JSON object and nothing else, using exactly these keys:
{
  "geopolitical_factors": "<2-3 sentence summary of political stability, trade policy, sanctions exposure>",
  "geopolitical_score": <number 0.0-1.0, higher means riskier>,
  "environmental_factors": "<2-3 sentence summary of climate exposure, water stress, natural disaster risk>",
  "environmental_score": <number 0.0-1.0, higher means riskier>,
  "climate_risk": "<Low|Moderate|High|Critical>",
  "supply_chain_disruption_risk": "<Low|Moderate|High|Critical>",
  "regulatory_changes": "<1-2 sentence summary of recent or pending regulation affecting textile/apparel sourcing>"
}`

// AnthropicProvider fetches location risk context from Claude. Calls are
// rate limited, retried on transient failures, and guarded by a circuit
// breaker so a dead API degrades to fallbacks quickly.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// NewAnthropicProvider builds a provider from configuration.
func NewAnthropicProvider(client anthropic.Client, cfg config.EnrichmentConfig) *AnthropicProvider {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	retryCfg := resilience.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.MaxAttempts
	}
	retryCfg.OnRetry = func(attempt int, err error) {
		zap.L().Debug("enrich: retrying provider call",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return &AnthropicProvider{
		client:  client,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: resilience.NewBreaker(5, 0),
		retry:   retryCfg,
	}
}

// Fetch asks Claude for the location's risk context and returns the parsed
// but unvalidated JSON object.
func (p *AnthropicProvider) Fetch(ctx context.Context, country, city string) (RawContext, error) {
	if err := p.breaker.Allow(); err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "enrich: rate limiter")
	}

	location := country
	if strings.TrimSpace(city) != "" {
		location = fmt.Sprintf("%s, %s", city, country)
	}

	temp := 0.0
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       p.model,
			MaxTokens:   1024,
			System:      contextSystemPrompt,
			Temperature: &temp,
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf("Sourcing location: %s", location)},
			},
		})
	})
	p.breaker.Record(err)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: fetch context for %s", location)
	}

	raw, err := extractJSON(resp.Text)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: parse context for %s", location)
	}

	zap.L().Debug("enrich: fetched location context",
		zap.String("location", location),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return raw, nil
}

// extractJSON pulls the first JSON object out of a model response, tolerating
// surrounding prose or markdown fences.
func extractJSON(text string) (RawContext, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("no JSON object in response (%d bytes)", len(text))
	}

	var raw RawContext
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "unmarshal response object")
	}
	return raw, nil
}
