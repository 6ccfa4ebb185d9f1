package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

func result(name, country string, composite float64, tier model.RiskTier) model.RiskResult {
	return model.RiskResult{
		Name:         name,
		Country:      country,
		Composite:    composite,
		Tier:         tier,
		DaysToExpiry: 999,
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	summary := Aggregate(nil, 5)

	assert.Equal(t, 0, summary.TotalSuppliers)
	assert.Zero(t, summary.MeanComposite)
	assert.Zero(t, summary.MedianComposite)
	assert.Empty(t, summary.TopRisks)
	assert.Empty(t, summary.Countries)

	// Every tier is present with a zero count.
	require.Len(t, summary.TierCounts, len(model.AllTiers))
	for _, tier := range model.AllTiers {
		assert.Equal(t, 0, summary.TierCounts[tier])
	}
}

func TestAggregate(t *testing.T) {
	results := []model.RiskResult{
		result("Mill A", "Portugal", 0.30, model.TierLow),
		result("Mill B", "Portugal", 0.55, model.TierMedium),
		result("Dye House C", "Bangladesh", 0.70, model.TierHigh),
		result("Dye House D", "Bangladesh", 0.90, model.TierCritical),
	}
	results[0].AuditStatus = model.AuditPassed
	results[1].AuditStatus = model.AuditPassed
	results[2].HasIncident = true
	results[3].DaysToExpiry = 12
	results[3].EnrichmentProvenance = model.ProvenanceFallback
	results[2].Category = "Dyeing"
	results[3].Category = "Dyeing"

	summary := Aggregate(results, 2)

	assert.Equal(t, 4, summary.TotalSuppliers)
	assert.InDelta(t, 0.6125, summary.MeanComposite, 1e-9)
	assert.InDelta(t, 0.625, summary.MedianComposite, 1e-9)
	assert.Equal(t, 1, summary.TierCounts[model.TierLow])
	assert.Equal(t, 1, summary.TierCounts[model.TierMedium])
	assert.Equal(t, 1, summary.TierCounts[model.TierHigh])
	assert.Equal(t, 1, summary.TierCounts[model.TierCritical])

	assert.Equal(t, []string{"Bangladesh", "Portugal"}, summary.Countries)
	pt := summary.ByCountry["Portugal"]
	assert.Equal(t, 2, pt.Count)
	assert.InDelta(t, 0.425, pt.MeanComposite, 1e-9)
	assert.Equal(t, 0, pt.HighOrWorse)
	bd := summary.ByCountry["Bangladesh"]
	assert.Equal(t, 2, bd.HighOrWorse)

	dye := summary.ByCategory["Dyeing"]
	assert.Equal(t, 2, dye.Count)
	assert.Equal(t, 2, dye.HighOrWorse)

	assert.Equal(t, 1, summary.ExpiringSoon)
	assert.Equal(t, 1, summary.IncidentCount)
	assert.InDelta(t, 0.5, summary.ComplianceRate, 1e-9)
	assert.Equal(t, 1, summary.FallbackLookups)

	require.Len(t, summary.TopRisks, 2)
	assert.Equal(t, "Dye House D", summary.TopRisks[0].Name)
	assert.Equal(t, "Dye House C", summary.TopRisks[1].Name)
}

func TestTopByComposite(t *testing.T) {
	results := []model.RiskResult{
		result("B", "x", 0.7, model.TierHigh),
		result("A", "x", 0.7, model.TierHigh),
		result("C", "x", 0.9, model.TierCritical),
	}

	top := TopByComposite(results, 5)
	require.Len(t, top, 3)
	assert.Equal(t, "C", top[0].Name)
	// Equal composites rank by name ascending.
	assert.Equal(t, "A", top[1].Name)
	assert.Equal(t, "B", top[2].Name)

	// Input order is untouched.
	assert.Equal(t, "B", results[0].Name)

	top = TopByComposite(results, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "C", top[0].Name)
}

func TestMedianComposite(t *testing.T) {
	odd := []model.RiskResult{
		result("a", "x", 0.9, model.TierCritical),
		result("b", "x", 0.1, model.TierLow),
		result("c", "x", 0.5, model.TierMedium),
	}
	assert.InDelta(t, 0.5, medianComposite(odd), 1e-9)

	even := append(odd, result("d", "x", 0.7, model.TierHigh))
	assert.InDelta(t, 0.6, medianComposite(even), 1e-9)
}
