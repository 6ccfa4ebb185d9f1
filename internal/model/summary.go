package model

// GroupStats summarizes the risk results sharing one grouping key.
type GroupStats struct {
	Count         int     `json:"count"`
	MeanComposite float64 `json:"mean_composite"`
	HighOrWorse   int     `json:"high_or_worse"`
}

// PortfolioSummary is the read-only portfolio view folded from a set of
// RiskResults. An empty input produces a zero-valued summary, never an error.
type PortfolioSummary struct {
	TotalSuppliers int `json:"total_suppliers"`

	TierCounts map[RiskTier]int `json:"tier_counts"`

	MeanComposite   float64 `json:"mean_composite"`
	MedianComposite float64 `json:"median_composite"`

	ByCountry  map[string]GroupStats `json:"by_country"`
	ByCategory map[string]GroupStats `json:"by_category"`

	// TopRisks holds the top-N results by composite score descending,
	// ties broken by name ascending.
	TopRisks []RiskResult `json:"top_risks"`

	Countries []string `json:"countries"`

	// Dashboard KPIs carried over from the report layer.
	ExpiringSoon    int     `json:"expiring_soon"`     // certs expiring within 30 days (or expired)
	IncidentCount   int     `json:"incident_count"`    // suppliers with an open incident flag
	ComplianceRate  float64 `json:"compliance_rate"`   // share of suppliers with a passed audit
	FallbackLookups int     `json:"fallback_lookups"`  // results scored with fallback enrichment
}
