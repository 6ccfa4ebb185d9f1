// Package report renders scored portfolios to CSV and XLSX for downstream
// review. Output column order is stable so exports diff cleanly between runs.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// baseHeader is the fixed prefix of every export row. Component columns
// follow, in sorted key order across the whole result set.
var baseHeader = []string{
	"supplier", "country", "city", "category",
	"composite_score", "risk_tier", "strategy",
	"enrichment_provenance", "days_to_expiry", "audit_status", "has_incident",
}

// componentColumns returns the sorted union of component names present in
// the results. Mixed-strategy result sets keep every column.
func componentColumns(results []model.RiskResult) []string {
	seen := map[string]struct{}{}
	for _, r := range results {
		for name := range r.Components {
			seen[name] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func resultRow(r model.RiskResult, components []string) []string {
	row := []string{
		r.Name, r.Country, r.City, r.Category,
		strconv.FormatFloat(r.Composite, 'f', 2, 64),
		string(r.Tier),
		r.Strategy,
		string(r.EnrichmentProvenance),
		strconv.Itoa(r.DaysToExpiry),
		string(r.AuditStatus),
		strconv.FormatBool(r.HasIncident),
	}
	for _, name := range components {
		if v, ok := r.Components[name]; ok {
			row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
		} else {
			row = append(row, "")
		}
	}
	return row
}

// WriteCSV writes the scored portfolio as CSV.
func WriteCSV(w io.Writer, results []model.RiskResult) error {
	components := componentColumns(results)
	cw := csv.NewWriter(w)

	if err := cw.Write(append(append([]string{}, baseHeader...), components...)); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(resultRow(r, components)); err != nil {
			return eris.Wrapf(err, "report: write csv row %s", r.Name)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteXLSX writes a workbook with a Suppliers sheet and a Summary sheet.
func WriteXLSX(path string, results []model.RiskResult, summary model.PortfolioSummary) error {
	f := xlsx.NewFile()

	if err := addSupplierSheet(f, results); err != nil {
		return err
	}
	if err := addSummarySheet(f, summary); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "report: save workbook %s", path)
}

func addSupplierSheet(f *xlsx.File, results []model.RiskResult) error {
	sheet, err := f.AddSheet("Suppliers")
	if err != nil {
		return eris.Wrap(err, "report: add suppliers sheet")
	}

	components := componentColumns(results)
	header := sheet.AddRow()
	for _, col := range append(append([]string{}, baseHeader...), components...) {
		header.AddCell().SetString(col)
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Country)
		row.AddCell().SetString(r.City)
		row.AddCell().SetString(r.Category)
		row.AddCell().SetFloatWithFormat(r.Composite, "0.00")
		row.AddCell().SetString(string(r.Tier))
		row.AddCell().SetString(r.Strategy)
		row.AddCell().SetString(string(r.EnrichmentProvenance))
		row.AddCell().SetInt(r.DaysToExpiry)
		row.AddCell().SetString(string(r.AuditStatus))
		row.AddCell().SetString(strconv.FormatBool(r.HasIncident))
		for _, name := range components {
			cell := row.AddCell()
			if v, ok := r.Components[name]; ok {
				cell.SetFloatWithFormat(v, "0.00")
			}
		}
	}
	return nil
}

func addSummarySheet(f *xlsx.File, summary model.PortfolioSummary) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	kv := func(key string, value any) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(fmt.Sprint(value))
	}

	kv("total_suppliers", summary.TotalSuppliers)
	kv("mean_composite", strconv.FormatFloat(summary.MeanComposite, 'f', 2, 64))
	kv("median_composite", strconv.FormatFloat(summary.MedianComposite, 'f', 2, 64))
	for _, tier := range model.AllTiers {
		kv("tier_"+string(tier), summary.TierCounts[tier])
	}
	kv("expiring_within_30d", summary.ExpiringSoon)
	kv("open_incidents", summary.IncidentCount)
	kv("compliance_rate", strconv.FormatFloat(summary.ComplianceRate, 'f', 2, 64))
	kv("fallback_lookups", summary.FallbackLookups)

	sheet.AddRow()
	header := sheet.AddRow()
	for _, col := range []string{"country", "suppliers", "mean_composite", "high_or_worse"} {
		header.AddCell().SetString(col)
	}
	for _, country := range summary.Countries {
		stats := summary.ByCountry[country]
		row := sheet.AddRow()
		row.AddCell().SetString(country)
		row.AddCell().SetInt(stats.Count)
		row.AddCell().SetFloatWithFormat(stats.MeanComposite, "0.00")
		row.AddCell().SetInt(stats.HighOrWorse)
	}

	sheet.AddRow()
	top := sheet.AddRow()
	for _, col := range []string{"top_risk", "country", "composite", "tier"} {
		top.AddCell().SetString(col)
	}
	for _, r := range summary.TopRisks {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Country)
		row.AddCell().SetFloatWithFormat(r.Composite, "0.00")
		row.AddCell().SetString(string(r.Tier))
	}
	return nil
}
