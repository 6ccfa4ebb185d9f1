package enrich

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// countingProvider returns a fixed payload and counts Fetch calls.
type countingProvider struct {
	calls   atomic.Int64
	payload RawContext
	err     error
}

func (p *countingProvider) Fetch(_ context.Context, _, _ string) (RawContext, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

func validPayload() RawContext {
	return RawContext{
		"geopolitical_factors":         "border tension",
		"geopolitical_score":           0.7,
		"environmental_factors":        "drought exposure",
		"environmental_score":          0.4,
		"climate_risk":                 "High",
		"supply_chain_disruption_risk": "Medium",
		"regulatory_changes":           "new due-diligence law",
	}
}

func TestKeyNormalization(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{Key("France", "Paris"), Key(" france ", "PARIS"), true},
		{Key("Sri Lanka", ""), Key("sri   lanka", ""), true},
		{Key("France", "Paris"), Key("France", "Lyon"), false},
		{Key("France", ""), Key("France", "Paris"), false},
	}
	for _, tt := range tests {
		if tt.same {
			assert.Equal(t, tt.a, tt.b)
		} else {
			assert.NotEqual(t, tt.a, tt.b)
		}
	}
}

func TestResolveCachesPerKey(t *testing.T) {
	provider := &countingProvider{payload: validPayload()}
	cache := NewCache(provider, time.Second)

	first := cache.Resolve(context.Background(), "France", "Paris")
	assert.Equal(t, model.ProvenanceFetched, first.Provenance)
	assert.InDelta(t, 0.7, first.GeopoliticalScore, 1e-9)
	assert.Equal(t, model.RiskLevelHigh, first.ClimateRisk)
	assert.Equal(t, model.RiskLevelModerate, first.SupplyChainDisruptionRisk)

	// Same location under different casing and spacing: no second fetch.
	cache.Resolve(context.Background(), " france ", "PARIS")
	cache.Resolve(context.Background(), "France", "Paris")
	assert.Equal(t, int64(1), provider.calls.Load())

	// A different city is a different key.
	cache.Resolve(context.Background(), "France", "Lyon")
	assert.Equal(t, int64(2), provider.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestResolveConcurrentSingleFetch(t *testing.T) {
	provider := &countingProvider{payload: validPayload()}
	cache := NewCache(provider, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Resolve(context.Background(), "Vietnam", "Hanoi")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), provider.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestResolveProviderFailureFallsBack(t *testing.T) {
	provider := &countingProvider{err: eris.New("upstream down")}
	cache := NewCache(provider, time.Second)

	result := cache.Resolve(context.Background(), "Turkey", "")
	assert.Equal(t, model.ProvenanceFallback, result.Provenance)
	assert.InDelta(t, 0.5, result.GeopoliticalScore, 1e-9)
	assert.InDelta(t, 0.5, result.EnvironmentalScore, 1e-9)

	// The fallback is cached; the provider is not retried for the key.
	cache.Resolve(context.Background(), "Turkey", "")
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestResolveNilProviderFallbackOnly(t *testing.T) {
	cache := NewCache(nil, time.Second)

	result := cache.Resolve(context.Background(), "India", "Tiruppur")
	assert.Equal(t, model.ProvenanceFallback, result.Provenance)
	assert.Equal(t, "India", result.Country)
	assert.Equal(t, "Tiruppur", result.City)
	assert.Equal(t, 1, cache.Len())
}

func TestParseRawContext(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		entry, err := parseRawContext("France", "Paris", validPayload())
		require.NoError(t, err)
		assert.Equal(t, model.ProvenanceFetched, entry.Provenance)
		assert.Equal(t, "border tension", entry.GeopoliticalFactors)
		assert.InDelta(t, 0.4, entry.EnvironmentalScore, 1e-9)
	})

	t.Run("missing score", func(t *testing.T) {
		payload := validPayload()
		delete(payload, "environmental_score")
		_, err := parseRawContext("France", "Paris", payload)
		assert.Error(t, err)
	})

	t.Run("non-numeric score", func(t *testing.T) {
		payload := validPayload()
		payload["geopolitical_score"] = "elevated"
		_, err := parseRawContext("France", "Paris", payload)
		assert.Error(t, err)
	})

	t.Run("string score accepted", func(t *testing.T) {
		payload := validPayload()
		payload["geopolitical_score"] = "0.9"
		entry, err := parseRawContext("France", "Paris", payload)
		require.NoError(t, err)
		assert.InDelta(t, 0.9, entry.GeopoliticalScore, 1e-9)
	})

	t.Run("out-of-range score clamped", func(t *testing.T) {
		payload := validPayload()
		payload["environmental_score"] = 1.8
		entry, err := parseRawContext("France", "Paris", payload)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, entry.EnvironmentalScore, 1e-9)
	})

	t.Run("unknown tier string", func(t *testing.T) {
		payload := validPayload()
		payload["climate_risk"] = "apocalyptic"
		entry, err := parseRawContext("France", "Paris", payload)
		require.NoError(t, err)
		assert.Equal(t, model.RiskLevelUnknown, entry.ClimateRisk)
	})

	t.Run("missing tier maps to unknown", func(t *testing.T) {
		payload := validPayload()
		delete(payload, "supply_chain_disruption_risk")
		entry, err := parseRawContext("France", "Paris", payload)
		require.NoError(t, err)
		assert.Equal(t, model.RiskLevelUnknown, entry.SupplyChainDisruptionRisk)
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"bare object", `{"geopolitical_score": 0.5}`, false},
		{"fenced object", "```json\n{\"geopolitical_score\": 0.5}\n```", false},
		{"prose around object", `Here is the data: {"geopolitical_score": 0.5} hope it helps`, false},
		{"no object", "no json here", true},
		{"truncated object", `{"geopolitical_score": 0.5`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := extractJSON(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, raw, "geopolitical_score")
		})
	}
}
