package portfolio

import (
	"sort"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// Aggregate is a pure reducer over a set of risk results. It tolerates an
// empty input and returns zeroed counts and empty groupings, never an error.
func Aggregate(results []model.RiskResult, topN int) model.PortfolioSummary {
	if topN <= 0 {
		topN = 5
	}

	summary := model.PortfolioSummary{
		TotalSuppliers: len(results),
		TierCounts:     make(map[model.RiskTier]int, len(model.AllTiers)),
		ByCountry:      make(map[string]model.GroupStats),
		ByCategory:     make(map[string]model.GroupStats),
		TopRisks:       []model.RiskResult{},
		Countries:      []string{},
	}
	for _, tier := range model.AllTiers {
		summary.TierCounts[tier] = 0
	}
	if len(results) == 0 {
		return summary
	}

	countrySums := make(map[string]float64)
	categorySums := make(map[string]float64)
	var total float64
	var passed int

	for _, r := range results {
		summary.TierCounts[r.Tier]++
		total += r.Composite

		cs := summary.ByCountry[r.Country]
		cs.Count++
		if r.Tier == model.TierHigh || r.Tier == model.TierCritical {
			cs.HighOrWorse++
		}
		summary.ByCountry[r.Country] = cs
		countrySums[r.Country] += r.Composite

		if r.Category != "" {
			gs := summary.ByCategory[r.Category]
			gs.Count++
			if r.Tier == model.TierHigh || r.Tier == model.TierCritical {
				gs.HighOrWorse++
			}
			summary.ByCategory[r.Category] = gs
			categorySums[r.Category] += r.Composite
		}

		if r.DaysToExpiry < 30 {
			summary.ExpiringSoon++
		}
		if r.HasIncident {
			summary.IncidentCount++
		}
		if r.AuditStatus == model.AuditPassed {
			passed++
		}
		if r.EnrichmentProvenance == model.ProvenanceFallback {
			summary.FallbackLookups++
		}
	}

	summary.MeanComposite = total / float64(len(results))
	summary.MedianComposite = medianComposite(results)
	summary.ComplianceRate = float64(passed) / float64(len(results))

	for country, gs := range summary.ByCountry {
		gs.MeanComposite = countrySums[country] / float64(gs.Count)
		summary.ByCountry[country] = gs
		summary.Countries = append(summary.Countries, country)
	}
	sort.Strings(summary.Countries)

	for category, gs := range summary.ByCategory {
		gs.MeanComposite = categorySums[category] / float64(gs.Count)
		summary.ByCategory[category] = gs
	}

	summary.TopRisks = TopByComposite(results, topN)
	return summary
}

// TopByComposite returns the n highest-scoring results, composite descending
// with ties broken by supplier name ascending so rankings are deterministic.
func TopByComposite(results []model.RiskResult, n int) []model.RiskResult {
	ranked := make([]model.RiskResult, len(results))
	copy(ranked, results)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].Name < ranked[j].Name
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

func medianComposite(results []model.RiskResult) float64 {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Composite
	}
	sort.Float64s(scores)
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		return scores[mid]
	}
	return (scores[mid-1] + scores[mid]) / 2
}
