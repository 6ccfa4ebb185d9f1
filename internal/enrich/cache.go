package enrich

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// Cache is the keyed store of enrichment lookups. Resolve never fails: any
// provider problem is converted to the fixed fallback result, recorded under
// the key, and never retried for the rest of the process lifetime.
//
// A nil provider puts the cache in fallback-only mode: every key gets the
// fallback result without a network attempt, indistinguishable in shape from
// a provider failure.
type Cache struct {
	provider Provider
	timeout  time.Duration

	mu      sync.RWMutex
	entries map[string]model.Enrichment
	group   singleflight.Group
}

// NewCache creates a Cache around the given provider. timeout bounds each
// provider call so one unreachable location cannot stall a scoring pass.
func NewCache(provider Provider, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Cache{
		provider: provider,
		timeout:  timeout,
		entries:  make(map[string]model.Enrichment),
	}
}

// Key returns the normalized cache key for a location. Case and surrounding
// or repeated whitespace never split an entry: "France" and " france " share
// one key. An empty city is a valid "unknown city" key component.
func Key(country, city string) string {
	return normalizeToken(country) + "|" + normalizeToken(city)
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Resolve returns the enrichment for a location, fetching on first request
// and reusing the stored result afterwards. Concurrent requesters racing on
// the same key share a single in-flight fetch.
func (c *Cache) Resolve(ctx context.Context, country, city string) model.Enrichment {
	key := Key(country, city)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		// A loser of an earlier race may already have stored the entry.
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return entry, nil
		}

		entry = c.fetch(ctx, country, city)
		c.mu.Lock()
		c.entries[key] = entry
		c.mu.Unlock()
		return entry, nil
	})
	return v.(model.Enrichment)
}

// Len reports how many distinct locations have been resolved.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a snapshot of all resolved enrichments.
func (c *Cache) Entries() []model.Enrichment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Enrichment, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// fetch performs the single provider call for a key, converting every
// failure mode into the fallback result.
func (c *Cache) fetch(ctx context.Context, country, city string) model.Enrichment {
	if c.provider == nil {
		return model.FallbackEnrichment(country, city)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.provider.Fetch(fetchCtx, country, city)
	if err != nil {
		zap.L().Warn("enrich: provider failed, using fallback",
			zap.String("country", country),
			zap.String("city", city),
			zap.Error(err),
		)
		return model.FallbackEnrichment(country, city)
	}

	entry, err := parseRawContext(country, city, raw)
	if err != nil {
		zap.L().Warn("enrich: malformed provider response, using fallback",
			zap.String("country", country),
			zap.String("city", city),
			zap.Error(err),
		)
		return model.FallbackEnrichment(country, city)
	}
	return entry
}

// parseRawContext validates and clamps a loosely-typed provider payload into
// the fixed Enrichment shape. Both scores must be present and numeric; tier
// strings outside the known set map to unknown.
func parseRawContext(country, city string, raw RawContext) (model.Enrichment, error) {
	geoScore, err := coerceScore(raw["geopolitical_score"])
	if err != nil {
		return model.Enrichment{}, eris.Wrap(err, "enrich: geopolitical_score")
	}
	envScore, err := coerceScore(raw["environmental_score"])
	if err != nil {
		return model.Enrichment{}, eris.Wrap(err, "enrich: environmental_score")
	}

	climate := model.ParseRiskLevel(coerceString(raw["climate_risk"]))
	if climate == "" {
		climate = model.RiskLevelUnknown
	}
	disruption := model.ParseRiskLevel(coerceString(raw["supply_chain_disruption_risk"]))
	if disruption == "" {
		disruption = model.RiskLevelUnknown
	}

	return model.Enrichment{
		Country:                   country,
		City:                      city,
		GeopoliticalFactors:       coerceString(raw["geopolitical_factors"]),
		GeopoliticalScore:         geoScore,
		EnvironmentalFactors:      coerceString(raw["environmental_factors"]),
		EnvironmentalScore:        envScore,
		ClimateRisk:               climate,
		SupplyChainDisruptionRisk: disruption,
		RegulatoryChanges:         coerceString(raw["regulatory_changes"]),
		Provenance:                model.ProvenanceFetched,
	}, nil
}

func coerceScore(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return clamp01(x), nil
	case int:
		return clamp01(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, eris.Wrapf(err, "not numeric: %v", v)
		}
		return clamp01(f), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, eris.Errorf("not numeric: %q", x)
		}
		return clamp01(f), nil
	case nil:
		return 0, eris.New("missing")
	}
	return 0, eris.Errorf("unsupported type %T", v)
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
