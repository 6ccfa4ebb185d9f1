package enrich

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maison-group/supplier-risk-cli/internal/config"
	"github.com/maison-group/supplier-risk-cli/pkg/anthropic"
)

// stubClient records requests and plays back canned responses.
type stubClient struct {
	requests []anthropic.MessageRequest
	text     string
	err      error
}

func (c *stubClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return &anthropic.MessageResponse{Text: c.text}, nil
}

func providerConfig() config.EnrichmentConfig {
	return config.EnrichmentConfig{
		Model:          "claude-haiku-4-5-20251001",
		MaxAttempts:    1,
		RequestsPerSec: 1000,
	}
}

func TestAnthropicProviderFetch(t *testing.T) {
	client := &stubClient{text: `Here you go:
{"geopolitical_factors": "stable", "geopolitical_score": 0.2,
 "environmental_factors": "flood prone", "environmental_score": 0.6,
 "climate_risk": "High", "supply_chain_disruption_risk": "Low",
 "regulatory_changes": "none"}`}
	p := NewAnthropicProvider(client, providerConfig())

	raw, err := p.Fetch(context.Background(), "Vietnam", "Hanoi")
	require.NoError(t, err)
	assert.Equal(t, 0.2, raw["geopolitical_score"])
	assert.Equal(t, "High", raw["climate_risk"])

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)
	require.Len(t, req.Messages, 1)
	// City and country both reach the prompt.
	assert.Contains(t, req.Messages[0].Content, "Hanoi, Vietnam")
	require.NotNil(t, req.Temperature)
	assert.Zero(t, *req.Temperature)
}

func TestAnthropicProviderCountryOnlyPrompt(t *testing.T) {
	client := &stubClient{text: `{"geopolitical_score": 0.5, "environmental_score": 0.5}`}
	p := NewAnthropicProvider(client, providerConfig())

	_, err := p.Fetch(context.Background(), "Peru", "  ")
	require.NoError(t, err)
	assert.Contains(t, client.requests[0].Messages[0].Content, "Sourcing location: Peru")
	assert.NotContains(t, client.requests[0].Messages[0].Content, ",")
}

func TestAnthropicProviderClientError(t *testing.T) {
	client := &stubClient{err: eris.New("status 401 unauthorized")}
	p := NewAnthropicProvider(client, providerConfig())

	_, err := p.Fetch(context.Background(), "Peru", "")
	assert.Error(t, err)
	// Non-transient errors are not retried.
	assert.Len(t, client.requests, 1)
}

func TestAnthropicProviderNonJSONResponse(t *testing.T) {
	client := &stubClient{text: "I cannot help with that."}
	p := NewAnthropicProvider(client, providerConfig())

	_, err := p.Fetch(context.Background(), "Peru", "")
	assert.Error(t, err)
}

func TestAnthropicProviderBreakerOpens(t *testing.T) {
	client := &stubClient{err: eris.New("status 401 unauthorized")}
	p := NewAnthropicProvider(client, providerConfig())

	for i := 0; i < 5; i++ {
		_, err := p.Fetch(context.Background(), "Peru", "")
		require.Error(t, err)
	}
	assert.Len(t, client.requests, 5)

	// Breaker open: the client is no longer called.
	_, err := p.Fetch(context.Background(), "Peru", "")
	assert.Error(t, err)
	assert.Len(t, client.requests, 5)
}
