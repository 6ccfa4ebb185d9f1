package scorer

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/maison-group/supplier-risk-cli/internal/config"
	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// ErrMalformedRecord signals a record missing a required identity field.
// Callers skip or flag the record and continue scoring the rest of the
// portfolio; one bad record never aborts a pass.
var ErrMalformedRecord = eris.New("scorer: malformed record: name and country are required")

// legacyMax is the top of the 0-3 severity scale the expiry strategy
// inherits from the original weighting scheme. Sub-scores on that scale are
// divided by legacyMax before weighting so both strategies combine on [0,1].
const legacyMax = 3.0

// noExpirySentinel is reported as DaysToExpiry when no certification
// carries an expiry date.
const noExpirySentinel = 999

// defaultUnitsPerEmployee anchors the capacity-utilization sub-score: a
// supplier committing this much capacity per head sits at the neutral 0.5.
const defaultUnitsPerEmployee = 1000.0

// Scorer computes risk results. It holds only configuration and a clock;
// Score is deterministic for a fixed clock and performs no I/O.
type Scorer struct {
	cfg         config.ScoringConfig
	countryRisk map[string]float64
	now         time.Time
}

// New creates a Scorer. A nil countryRisk table falls back to the built-in
// one; it is only consulted by the certification strategy.
func New(cfg config.ScoringConfig, countryRisk map[string]float64) *Scorer {
	if countryRisk == nil {
		countryRisk = defaultCountryRisk
	}
	return &Scorer{cfg: cfg, countryRisk: countryRisk, now: time.Now()}
}

// WithNow sets a fixed time for testing.
func (s *Scorer) WithNow(t time.Time) *Scorer {
	s.now = t
	return s
}

// Score computes the RiskResult for one supplier. enrichment may be nil, in
// which case the fixed fallback is used. The only error condition is a
// missing identity field (ErrMalformedRecord); every optional field defaults.
func (s *Scorer) Score(rec *model.Supplier, enrichment *model.Enrichment) (model.RiskResult, error) {
	if strings.TrimSpace(rec.Name) == "" || strings.TrimSpace(rec.Country) == "" {
		return model.RiskResult{}, eris.Wrapf(ErrMalformedRecord, "record %q", rec.Name)
	}

	enr := model.FallbackEnrichment(rec.Country, rec.City)
	if enrichment != nil {
		enr = *enrichment
	}

	var components map[string]float64
	if s.cfg.Strategy == StrategyCertification {
		components = s.certComponents(rec, enr)
	} else {
		components = s.expiryComponents(rec, enr)
	}

	composite := s.composite(components)

	days, ok := rec.DaysToNearestExpiry(s.now)
	if !ok {
		days = noExpirySentinel
	}

	auditStatus := rec.AuditStatus
	if auditStatus == "" {
		auditStatus = model.AuditUnknown
	}

	return model.RiskResult{
		Name:                 rec.Name,
		Country:              rec.Country,
		City:                 rec.City,
		Category:             rec.Category,
		Strategy:             s.cfg.Strategy,
		Components:           components,
		Composite:            composite,
		Tier:                 TierFor(composite, s.cfg),
		EnrichmentProvenance: enr.Provenance,
		DaysToExpiry:         days,
		AuditStatus:          auditStatus,
		HasIncident:          rec.HasIncident,
	}, nil
}

// composite combines the strategy's components with its weights, normalized
// by the weight sum so weight sets need not sum to exactly 1.
func (s *Scorer) composite(components map[string]float64) float64 {
	var weights map[string]float64
	var sum float64
	if s.cfg.Strategy == StrategyCertification {
		weights = map[string]float64{
			"certification": s.cfg.Cert.Certification,
			"compliance":    s.cfg.Cert.Compliance,
			"geopolitical":  s.cfg.Cert.Geopolitical,
			"environmental": s.cfg.Cert.Environmental,
			"capacity":      s.cfg.Cert.Capacity,
			"operational":   s.cfg.Cert.Operational,
		}
		sum = CertWeightSum(s.cfg)
	} else {
		weights = map[string]float64{
			"certification": s.cfg.Expiry.Certification,
			"audit":         s.cfg.Expiry.Audit,
			"geopolitical":  s.cfg.Expiry.Geopolitical,
			"environmental": s.cfg.Expiry.Environmental,
			"incident":      s.cfg.Expiry.Incident,
		}
		sum = ExpiryWeightSum(s.cfg)
	}

	var total float64
	for k, v := range components {
		total += v * weights[k]
	}
	if sum > 0 {
		total /= sum
	}
	return clamp01(total)
}

// TierFor maps a normalized composite score to its tier. Bands are inclusive
// on the lower bound and partition [0,1] with no gaps.
func TierFor(composite float64, cfg config.ScoringConfig) model.RiskTier {
	switch {
	case composite >= cfg.CriticalAt:
		return model.TierCritical
	case composite >= cfg.HighAt:
		return model.TierHigh
	case composite >= cfg.MediumAt:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// expiryComponents computes the legacy-scale sub-scores and normalizes each
// to [0,1] before handing them to the weighting step.
func (s *Scorer) expiryComponents(rec *model.Supplier, enr model.Enrichment) map[string]float64 {
	return map[string]float64{
		"certification": expiryCertSeverity(rec, s.now) / legacyMax,
		"audit":         auditSeverity(rec.AuditStatus) / legacyMax,
		"geopolitical":  factorSeverity(rec.GeopoliticalOverride, enr.GeopoliticalScore) / legacyMax,
		"environmental": factorSeverity(rec.EnvironmentalOverride, enr.EnvironmentalScore) / legacyMax,
		"incident":      incidentSeverity(rec.HasIncident) / legacyMax,
	}
}

// expiryCertSeverity buckets the worst-case (soonest) certification expiry.
// Expiry risk is dominated by the most urgent certificate, never averaged.
func expiryCertSeverity(rec *model.Supplier, now time.Time) float64 {
	days, ok := rec.DaysToNearestExpiry(now)
	if !ok {
		return 2.0 // no dated certs: missing-data penalty
	}
	switch {
	case days < 0:
		return 3.0
	case days < 30:
		return 2.5
	case days < 90:
		return 2.0
	case days < 180:
		return 1.5
	default:
		return 0.5
	}
}

func auditSeverity(status model.AuditStatus) float64 {
	switch status {
	case model.AuditPassed:
		return 0.5
	case model.AuditPending:
		return 1.5
	case model.AuditFailed:
		return 3.0
	default:
		return 2.0
	}
}

// factorSeverity applies the override > enrichment precedence on the legacy
// scale. An unset or unparseable override defers to the enrichment score;
// the enrichment fallback (0.5) lands exactly on the legacy neutral 1.5.
func factorSeverity(override model.RiskLevel, enrichScore float64) float64 {
	if sev, ok := levelSeverity(override); ok {
		return sev
	}
	return clamp01(enrichScore) * legacyMax
}

func levelSeverity(level model.RiskLevel) (float64, bool) {
	switch level {
	case model.RiskLevelLow:
		return 0.5, true
	case model.RiskLevelModerate:
		return 1.5, true
	case model.RiskLevelHigh:
		return 2.5, true
	case model.RiskLevelCritical:
		return 3.0, true
	}
	return 0, false
}

func incidentSeverity(hasIncident bool) float64 {
	if hasIncident {
		return 2.5
	}
	return 0.5
}

// certComponents computes the certification-strategy sub-scores, all native
// to [0,1].
func (s *Scorer) certComponents(rec *model.Supplier, enr model.Enrichment) map[string]float64 {
	return map[string]float64{
		"certification": certWeightScore(rec),
		"compliance":    s.complianceScore(rec),
		"geopolitical":  factorScore(rec.GeopoliticalOverride, enr.GeopoliticalScore),
		"environmental": factorScore(rec.EnvironmentalOverride, enr.EnvironmentalScore),
		"capacity":      capacityScore(rec.Employees, rec.ProductionCapacity),
		"operational":   operationalScore(rec.HasIncident),
	}
}

// certWeightScore averages per-certification risk weights over recognized
// held certs. No recognized certs means the fixed missing penalty, never a
// division by zero.
func certWeightScore(rec *model.Supplier) float64 {
	var sum float64
	var n int
	for _, c := range rec.KnownCertifications() {
		if w, ok := certRiskWeights[c.Code]; ok {
			sum += w
			n++
		}
	}
	if n == 0 {
		return missingCertPenalty
	}
	return sum / float64(n)
}

func (s *Scorer) complianceScore(rec *model.Supplier) float64 {
	if sc, ok := levelScore(rec.ComplianceOverride); ok {
		return sc
	}
	adj, ok := s.countryRisk[strings.ToLower(strings.TrimSpace(rec.Country))]
	if !ok {
		adj = unknownCountryRisk
	}
	return clamp01(complianceBaseRisk + adj)
}

// factorScore applies the override > enrichment precedence on the [0,1]
// scale.
func factorScore(override model.RiskLevel, enrichScore float64) float64 {
	if sc, ok := levelScore(override); ok {
		return sc
	}
	return clamp01(enrichScore)
}

func levelScore(level model.RiskLevel) (float64, bool) {
	switch level {
	case model.RiskLevelLow:
		return 0.2, true
	case model.RiskLevelModerate:
		return 0.5, true
	case model.RiskLevelHigh:
		return 0.8, true
	case model.RiskLevelCritical:
		return 0.95, true
	}
	return 0, false
}

// capacityScore rates committed production capacity per head against a fixed
// reference. Missing employees or capacity yields the neutral midpoint; the
// ratio can never divide by zero.
func capacityScore(employees int, capacity float64) float64 {
	if employees <= 0 || capacity <= 0 {
		return 0.5
	}
	perHead := capacity / float64(employees)
	return clamp01(0.5 * perHead / defaultUnitsPerEmployee)
}

func operationalScore(hasIncident bool) float64 {
	if hasIncident {
		return 0.8
	}
	return 0.2
}

// Round2 rounds a score to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
