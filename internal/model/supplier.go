// Package model defines the core domain types shared across the scoring
// engine, enrichment cache, store, and CLI layers.
package model

import (
	"math"
	"strings"
	"time"
)

// CertCode identifies a certification scheme tracked for scoring.
type CertCode string

const (
	CertGOTS CertCode = "GOTS"
	CertGRS  CertCode = "GRS"
	CertRWS  CertCode = "RWS"
	CertZDHC CertCode = "ZDHC"
	CertWRAP CertCode = "WRAP"
)

// KnownCertCodes lists the certification schemes the engine scores.
// Unknown codes on a record are preserved for display but ignored for scoring.
var KnownCertCodes = []CertCode{CertGOTS, CertGRS, CertRWS, CertZDHC, CertWRAP}

// ParseCertCode canonicalizes a raw certification label. "WRAP GOLD" and
// similar variants collapse to the base scheme. Returns ok=false for codes
// the engine does not score.
func ParseCertCode(raw string) (CertCode, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case s == "GOTS":
		return CertGOTS, true
	case s == "GRS":
		return CertGRS, true
	case s == "RWS" || s == "RWAS":
		return CertRWS, true
	case s == "ZDHC":
		return CertZDHC, true
	case strings.HasPrefix(s, "WRAP"):
		return CertWRAP, true
	}
	return CertCode(s), false
}

// Certification is one certification held by a supplier, optionally dated.
type Certification struct {
	Code   CertCode   `json:"code"`
	Known  bool       `json:"known"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// AuditStatus is the outcome of the most recent audit.
type AuditStatus string

const (
	AuditPassed  AuditStatus = "Passed"
	AuditPending AuditStatus = "Pending"
	AuditFailed  AuditStatus = "Failed"
	AuditUnknown AuditStatus = "unknown"
)

// ParseAuditStatus maps a raw status string to an AuditStatus, defaulting to
// AuditUnknown for anything unrecognized.
func ParseAuditStatus(raw string) AuditStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "passed":
		return AuditPassed
	case "pending":
		return AuditPending
	case "failed":
		return AuditFailed
	}
	return AuditUnknown
}

// Incident captures a reported supplier incident. Type, Severity, and Status
// are free-form strings; the Known* lists below are the conventional values
// and callers may supply others.
type Incident struct {
	Type     string `json:"type,omitempty"`
	Severity string `json:"severity,omitempty"`
	Status   string `json:"status,omitempty"`
}

// KnownIncidentTypes are the conventional incident categories.
var KnownIncidentTypes = []string{
	"Labor Violation",
	"Environmental Breach",
	"Quality Issue",
	"Safety Incident",
	"Sanction/Blacklist",
	"Bankruptcy/Financial",
	"Media Coverage",
	"Regulatory Fine",
	"Other",
}

// KnownIncidentSeverities are the conventional severity levels.
var KnownIncidentSeverities = []string{"Low", "Medium", "High", "Critical"}

// KnownIncidentStatuses are the conventional incident lifecycle states.
var KnownIncidentStatuses = []string{
	"Open",
	"Under Investigation",
	"Resolved",
	"Monitoring",
}

// Supplier is the normalized record for one supplier. Name and Country are
// required; everything else is optional and defaults are applied at scoring
// time so a sparse record never fails to score.
type Supplier struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	City     string `json:"city,omitempty"`
	Category string `json:"category,omitempty"`
	SubCat   string `json:"subcategory,omitempty"`

	Employees          int     `json:"employees,omitempty"`
	ProductionCapacity float64 `json:"production_capacity,omitempty"`

	Certifications []Certification `json:"certifications,omitempty"`

	LastAuditDate *time.Time  `json:"last_audit_date,omitempty"`
	AuditStatus   AuditStatus `json:"audit_status,omitempty"`
	NextAuditDate *time.Time  `json:"next_audit_date,omitempty"`

	HasIncident bool      `json:"has_incident"`
	Incident    *Incident `json:"incident,omitempty"`

	// Manual overrides. When set, they win over enrichment-derived values.
	GeopoliticalOverride  RiskLevel `json:"geopolitical_override,omitempty"`
	EnvironmentalOverride RiskLevel `json:"environmental_override,omitempty"`
	ComplianceOverride    RiskLevel `json:"compliance_override,omitempty"`
}

// KnownCertifications returns the subset of certifications the engine scores.
func (s *Supplier) KnownCertifications() []Certification {
	var out []Certification
	for _, c := range s.Certifications {
		if c.Known {
			out = append(out, c)
		}
	}
	return out
}

// DaysToNearestExpiry returns the smallest days-until-expiry across all dated
// certifications, negative when already expired. The boolean is false when no
// certification carries an expiry date.
func (s *Supplier) DaysToNearestExpiry(now time.Time) (int, bool) {
	min, found := 0, false
	for _, c := range s.Certifications {
		if c.Expiry == nil {
			continue
		}
		// Floor rather than truncate so a cert expired by less than a
		// day still reports a negative day count.
		days := int(math.Floor(c.Expiry.Sub(now).Hours() / 24))
		if !found || days < min {
			min = days
			found = true
		}
	}
	return min, found
}
