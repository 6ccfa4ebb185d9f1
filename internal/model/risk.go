package model

// RiskTier is the discrete classification derived from the composite score.
type RiskTier string

const (
	TierLow      RiskTier = "Low"
	TierMedium   RiskTier = "Medium"
	TierHigh     RiskTier = "High"
	TierCritical RiskTier = "Critical"
)

// AllTiers lists tiers in ascending severity order. Aggregation uses this to
// emit zero counts for tiers with no suppliers.
var AllTiers = []RiskTier{TierLow, TierMedium, TierHigh, TierCritical}

// RiskResult is the scoring output for one supplier. It is recomputed on
// every pass and never persisted; only enrichment lookups are cached.
type RiskResult struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	City     string `json:"city,omitempty"`
	Category string `json:"category,omitempty"`

	Strategy string `json:"strategy"`

	// Components holds the named sub-scores, each normalized to [0,1].
	Components map[string]float64 `json:"components"`

	// Composite is the weighted combination of Components, in [0,1].
	Composite float64  `json:"composite"`
	Tier      RiskTier `json:"tier"`

	// EnrichmentProvenance surfaces whether location context came from the
	// provider or the fixed fallback.
	EnrichmentProvenance Provenance `json:"enrichment_provenance"`

	// DaysToExpiry is the worst-case days-until-certification-expiry,
	// 999 when no certification carries a date (report sentinel).
	DaysToExpiry int `json:"days_to_expiry"`

	AuditStatus AuditStatus `json:"audit_status"`
	HasIncident bool        `json:"has_incident"`
}
