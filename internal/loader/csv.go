// Package loader parses raw supplier rows into normalized records. It only
// cares about the CSV column contract; where rows came from (file, upload,
// export) is the caller's business.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// expiryColumns maps the per-scheme expiry columns of the source data to
// certification codes. A populated expiry column implies the certification
// is held even when the certifications list omits it.
var expiryColumns = map[string]model.CertCode{
	"gots_expiry": model.CertGOTS,
	"grs_expiry":  model.CertGRS,
	"rwas_expiry": model.CertRWS,
	"rws_expiry":  model.CertRWS,
	"zdhc_expiry": model.CertZDHC,
	"wrap_expiry": model.CertWRAP,
}

var titleCaser = cases.Title(language.English)

// LoadFile reads a supplier CSV from disk.
func LoadFile(path string) ([]model.Supplier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Load parses supplier rows from a CSV stream. The first row must be a
// header; columns are matched case-insensitively, unknown columns are
// ignored, and missing optional columns default. Records missing identity
// fields are kept as-is so the scoring pass can flag them individually.
func Load(r io.Reader) ([]model.Supplier, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "loader: read header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var suppliers []model.Supplier
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "loader: read row")
		}
		suppliers = append(suppliers, parseRow(cols, record))
	}
	return suppliers, nil
}

func parseRow(cols map[string]int, record []string) model.Supplier {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	s := model.Supplier{
		Name:     get("name"),
		Country:  CanonicalCountry(get("country")),
		City:     get("city"),
		Category: get("category"),
		SubCat:   get("subcategory"),

		AuditStatus:   model.ParseAuditStatus(get("audit_status")),
		LastAuditDate: parseDate(get("last_audit_date")),
		NextAuditDate: parseDate(get("next_audit_date")),

		GeopoliticalOverride:  model.ParseRiskLevel(get("geopolitical_risk")),
		EnvironmentalOverride: model.ParseRiskLevel(get("environmental_risk")),
		ComplianceOverride:    model.ParseRiskLevel(get("compliance_risk")),
	}

	if v, err := strconv.Atoi(get("employees")); err == nil && v > 0 {
		s.Employees = v
	}
	if v, err := strconv.ParseFloat(get("production_capacity"), 64); err == nil && v > 0 {
		s.ProductionCapacity = v
	}

	s.Certifications = parseCertifications(get, cols)

	if b, err := strconv.ParseBool(strings.ToLower(get("has_incidents"))); err == nil && b {
		s.HasIncident = true
		s.Incident = &model.Incident{
			Type:     get("incident_type"),
			Severity: get("incident_severity"),
			Status:   get("incident_status"),
		}
	}

	return s
}

// parseCertifications unions the free-form certifications list with the
// per-scheme expiry columns. Unknown codes are preserved (Known=false) for
// display but never scored.
func parseCertifications(get func(string) string, cols map[string]int) []model.Certification {
	type certEntry struct {
		cert  model.Certification
		order int
	}
	byCode := make(map[model.CertCode]*certEntry)
	order := 0

	for _, label := range strings.Split(get("certifications"), ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		code, known := model.ParseCertCode(label)
		if _, ok := byCode[code]; !ok {
			byCode[code] = &certEntry{cert: model.Certification{Code: code, Known: known}, order: order}
			order++
		}
	}

	for col, code := range expiryColumns {
		if _, ok := cols[col]; !ok {
			continue
		}
		expiry := parseDate(get(col))
		if expiry == nil {
			continue
		}
		if entry, ok := byCode[code]; ok {
			entry.cert.Expiry = expiry
		} else {
			byCode[code] = &certEntry{cert: model.Certification{Code: code, Known: true, Expiry: expiry}, order: order}
			order++
		}
	}

	certs := make([]model.Certification, len(byCode))
	for _, entry := range byCode {
		certs[entry.order] = entry.cert
	}
	return certs
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// CanonicalCountry normalizes a country name for stable grouping: collapsed
// whitespace, short acronyms uppercased, everything else title-cased.
func CanonicalCountry(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}
	if len(s) <= 3 {
		return strings.ToUpper(s)
	}
	return titleCaser.String(strings.ToLower(s))
}
