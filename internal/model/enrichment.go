package model

import "strings"

// RiskLevel is a qualitative risk rating used for enrichment tiers and for
// the manual override columns on a supplier record.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelModerate RiskLevel = "Moderate"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
	RiskLevelUnknown  RiskLevel = "unknown"
)

// ParseRiskLevel maps a raw level string to a RiskLevel. "Medium" is accepted
// as a synonym for Moderate (the two README generations of the source data
// disagree on the label). Anything unrecognized maps to RiskLevelUnknown;
// the empty string means "not set".
func ParseRiskLevel(raw string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return ""
	case "low":
		return RiskLevelLow
	case "moderate", "medium":
		return RiskLevelModerate
	case "high":
		return RiskLevelHigh
	case "critical":
		return RiskLevelCritical
	}
	return RiskLevelUnknown
}

// Provenance records whether an enrichment result came from the provider or
// from the fixed fallback.
type Provenance string

const (
	ProvenanceFetched  Provenance = "fetched"
	ProvenanceFallback Provenance = "fallback"
)

// Enrichment is the validated contextual risk data for one (country, city)
// location. Scores are always within [0,1]; tier fields are always one of the
// RiskLevel constants. Loosely-typed provider output never leaks past the
// cache that produces these.
type Enrichment struct {
	Country string `json:"country"`
	City    string `json:"city,omitempty"`

	GeopoliticalFactors string  `json:"geopolitical_factors,omitempty"`
	GeopoliticalScore   float64 `json:"geopolitical_score"`

	EnvironmentalFactors string  `json:"environmental_factors,omitempty"`
	EnvironmentalScore   float64 `json:"environmental_score"`

	ClimateRisk               RiskLevel `json:"climate_risk"`
	SupplyChainDisruptionRisk RiskLevel `json:"supply_chain_disruption_risk"`
	RegulatoryChanges         string    `json:"regulatory_changes,omitempty"`

	Provenance Provenance `json:"provenance"`
}

// FallbackEnrichment returns the fixed neutral result used when the provider
// is disabled, unreachable, or returns garbage. Scores sit at the midpoint so
// a degraded lookup neither inflates nor masks supplier risk.
func FallbackEnrichment(country, city string) Enrichment {
	return Enrichment{
		Country:                   country,
		City:                      city,
		GeopoliticalFactors:       "unknown",
		GeopoliticalScore:         0.5,
		EnvironmentalFactors:      "unknown",
		EnvironmentalScore:        0.5,
		ClimateRisk:               RiskLevelModerate,
		SupplyChainDisruptionRisk: RiskLevelModerate,
		Provenance:                ProvenanceFallback,
	}
}
