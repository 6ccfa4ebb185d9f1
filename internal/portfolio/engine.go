// Package portfolio drives full scoring passes and folds per-supplier risk
// results into portfolio-level summaries.
package portfolio

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maison-group/supplier-risk-cli/internal/enrich"
	"github.com/maison-group/supplier-risk-cli/internal/model"
	"github.com/maison-group/supplier-risk-cli/internal/scorer"
)

// Engine is the consumer surface of the scoring core: ScoreAll, Aggregate,
// and ResolveLocation are the entire contract the UI and report layers need.
type Engine struct {
	scorer     *scorer.Scorer
	cache      *enrich.Cache
	maxLookups int
	topN       int
}

// NewEngine wires a scorer and an enrichment cache into a scoring engine.
// maxLookups bounds concurrent cache warm-up; topN sizes summary rankings.
func NewEngine(s *scorer.Scorer, cache *enrich.Cache, maxLookups, topN int) *Engine {
	if maxLookups <= 0 {
		maxLookups = 4
	}
	if topN <= 0 {
		topN = 5
	}
	return &Engine{scorer: s, cache: cache, maxLookups: maxLookups, topN: topN}
}

// ResolveLocation returns the (cached) enrichment for one location.
func (e *Engine) ResolveLocation(ctx context.Context, country, city string) model.Enrichment {
	return e.cache.Resolve(ctx, country, city)
}

// ScoreAll scores every well-formed record and returns the results plus the
// names of records skipped as malformed. Enrichment for distinct locations
// is resolved up front with bounded parallelism; the cache guarantees one
// fetch per location no matter how many suppliers share it.
func (e *Engine) ScoreAll(ctx context.Context, records []model.Supplier) ([]model.RiskResult, []string) {
	e.warmCache(ctx, records)

	results := make([]model.RiskResult, 0, len(records))
	var skipped []string
	for i := range records {
		rec := &records[i]

		// Records without a country never hit the provider; Score rejects
		// them and a fallback enrichment keeps the call well-defined.
		var enr model.Enrichment
		if rec.Country == "" {
			enr = model.FallbackEnrichment(rec.Country, rec.City)
		} else {
			enr = e.cache.Resolve(ctx, rec.Country, rec.City)
		}
		res, err := e.scorer.Score(rec, &enr)
		if err != nil {
			skipped = append(skipped, rec.Name)
			zap.L().Warn("portfolio: skipping malformed record",
				zap.String("name", rec.Name),
				zap.String("country", rec.Country),
				zap.Error(err),
			)
			continue
		}
		results = append(results, res)
	}

	zap.L().Info("portfolio: scoring pass complete",
		zap.Int("scored", len(results)),
		zap.Int("skipped", len(skipped)),
		zap.Int("locations", e.cache.Len()),
	)
	return results, skipped
}

// Aggregate folds risk results into a portfolio summary.
func (e *Engine) Aggregate(results []model.RiskResult) model.PortfolioSummary {
	return Aggregate(results, e.topN)
}

// warmCache resolves every distinct location ahead of the scoring loop.
// Records missing a country are left for Score to reject.
func (e *Engine) warmCache(ctx context.Context, records []model.Supplier) {
	type location struct{ country, city string }
	seen := make(map[string]location)
	for i := range records {
		if records[i].Country == "" {
			continue
		}
		key := enrich.Key(records[i].Country, records[i].City)
		if _, ok := seen[key]; !ok {
			seen[key] = location{records[i].Country, records[i].City}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxLookups)
	for _, loc := range seen {
		g.Go(func() error {
			e.cache.Resolve(gctx, loc.country, loc.city)
			return nil
		})
	}
	_ = g.Wait() // Resolve never fails; Wait only orders the scoring loop after warm-up.
}
