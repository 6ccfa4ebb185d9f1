// Package scorer implements the supplier risk scoring and classification
// engine: pure functions from a supplier record plus location enrichment to
// a set of sub-scores, a normalized composite, and a risk tier.
package scorer

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/maison-group/supplier-risk-cli/internal/config"
	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// Strategy names accepted by ScoringConfig.Strategy.
const (
	StrategyExpiry        = "expiry"
	StrategyCertification = "certification"
)

// certRiskWeights maps each recognized certification scheme to its risk
// contribution for the certification strategy. Lower is better; holding
// stronger schemes (GOTS) pulls the sub-score down further.
var certRiskWeights = map[model.CertCode]float64{
	model.CertGOTS: 0.10,
	model.CertGRS:  0.15,
	model.CertZDHC: 0.15,
	model.CertRWS:  0.20,
	model.CertWRAP: 0.20,
}

// missingCertPenalty is the certification sub-score for a record holding no
// recognized certification. Fixed rather than an average of zero terms, so
// absence of data is never rewarded.
const missingCertPenalty = 0.60

// defaultCountryRisk is the built-in compliance adjustment per country,
// keyed by lowercased country name. Unknown countries use
// unknownCountryRisk.
var defaultCountryRisk = map[string]float64{
	"france":     0.05,
	"italy":      0.05,
	"germany":    0.05,
	"portugal":   0.10,
	"spain":      0.10,
	"japan":      0.10,
	"thailand":   0.25,
	"morocco":    0.25,
	"brazil":     0.25,
	"china":      0.30,
	"vietnam":    0.30,
	"indonesia":  0.30,
	"mexico":     0.30,
	"tunisia":    0.30,
	"india":      0.35,
	"turkey":     0.35,
	"bangladesh": 0.45,
	"pakistan":   0.45,
	"ethiopia":   0.50,
	"myanmar":    0.60,
}

const (
	unknownCountryRisk = 0.20
	complianceBaseRisk = 0.30
)

// DefaultScoringConfig returns the scoring configuration matching the
// shipped dashboard behavior: expiry strategy, legacy-derived weights,
// tier thresholds at the 1.5 / 2.0 / 2.5 points of the 0-3 scale.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Strategy: StrategyExpiry,
		Expiry: config.ExpiryWeights{
			Certification: 0.25,
			Audit:         0.20,
			Geopolitical:  0.20,
			Environmental: 0.15,
			Incident:      0.15,
		},
		Cert: config.CertWeights{
			Certification: 0.25,
			Compliance:    0.20,
			Geopolitical:  0.20,
			Environmental: 0.20,
			Capacity:      0.10,
			Operational:   0.05,
		},
		MediumAt:   0.5,
		HighAt:     2.0 / 3.0,
		CriticalAt: 2.5 / 3.0,
		TopN:       5,
	}
}

// ExpiryWeightSum returns the sum of the expiry-strategy weights.
func ExpiryWeightSum(c config.ScoringConfig) float64 {
	return c.Expiry.Certification + c.Expiry.Audit + c.Expiry.Geopolitical +
		c.Expiry.Environmental + c.Expiry.Incident
}

// CertWeightSum returns the sum of the certification-strategy weights.
func CertWeightSum(c config.ScoringConfig) float64 {
	return c.Cert.Certification + c.Cert.Compliance + c.Cert.Geopolitical +
		c.Cert.Environmental + c.Cert.Capacity + c.Cert.Operational
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	if c.Strategy != StrategyExpiry && c.Strategy != StrategyCertification {
		errs = append(errs, fmt.Sprintf("strategy must be %q or %q, got %q",
			StrategyExpiry, StrategyCertification, c.Strategy))
	}

	weights := map[string]float64{
		"expiry.certification": c.Expiry.Certification,
		"expiry.audit":         c.Expiry.Audit,
		"expiry.geopolitical":  c.Expiry.Geopolitical,
		"expiry.environmental": c.Expiry.Environmental,
		"expiry.incident":      c.Expiry.Incident,
		"cert.certification":   c.Cert.Certification,
		"cert.compliance":      c.Cert.Compliance,
		"cert.geopolitical":    c.Cert.Geopolitical,
		"cert.environmental":   c.Cert.Environmental,
		"cert.capacity":        c.Cert.Capacity,
		"cert.operational":     c.Cert.Operational,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	switch c.Strategy {
	case StrategyExpiry:
		if ExpiryWeightSum(c) <= 0 {
			errs = append(errs, "expiry weight sum must be > 0")
		}
	case StrategyCertification:
		if CertWeightSum(c) <= 0 {
			errs = append(errs, "cert weight sum must be > 0")
		}
	}

	// Thresholds must ascend and partition (0,1].
	if c.MediumAt <= 0 || c.MediumAt > 1 {
		errs = append(errs, "medium_at must be in (0,1]")
	}
	if c.HighAt <= c.MediumAt {
		errs = append(errs, "high_at must be > medium_at")
	}
	if c.CriticalAt <= c.HighAt {
		errs = append(errs, "critical_at must be > high_at")
	}
	if c.CriticalAt > 1 {
		errs = append(errs, "critical_at must be <= 1")
	}

	if c.TopN < 0 {
		errs = append(errs, "top_n must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadCountryRisk reads a YAML map of country name to compliance risk
// adjustment. Keys are lowercased and values clamped to [0,1].
func LoadCountryRisk(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read country risk file %s", path)
	}

	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "scorer: parse country risk file %s", path)
	}

	table := make(map[string]float64, len(raw))
	for country, adj := range raw {
		table[strings.ToLower(strings.TrimSpace(country))] = clamp01(adj)
	}
	return table, nil
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
