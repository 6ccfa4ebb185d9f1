package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/maison-group/supplier-risk-cli/internal/model"
	"github.com/maison-group/supplier-risk-cli/internal/portfolio"
)

func sampleResults() []model.RiskResult {
	return []model.RiskResult{
		{
			Name:      "Mill A",
			Country:   "Portugal",
			City:      "Porto",
			Category:  "Spinning",
			Strategy:  "expiry",
			Composite: 0.42,
			Tier:      model.TierLow,
			Components: map[string]float64{
				"certification": 0.17,
				"audit":         0.17,
				"geopolitical":  0.5,
				"environmental": 0.5,
				"incident":      0.17,
			},
			EnrichmentProvenance: model.ProvenanceFetched,
			DaysToExpiry:         240,
			AuditStatus:          model.AuditPassed,
		},
		{
			Name:      "Dye House B",
			Country:   "Bangladesh",
			Strategy:  "expiry",
			Composite: 0.81,
			Tier:      model.TierHigh,
			Components: map[string]float64{
				"certification": 1.0,
				"audit":         1.0,
				"geopolitical":  0.5,
				"environmental": 0.5,
				"incident":      0.83,
			},
			EnrichmentProvenance: model.ProvenanceFallback,
			DaysToExpiry:         999,
			AuditStatus:          model.AuditFailed,
			HasIncident:          true,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, "supplier", header[0])
	assert.Contains(t, header, "composite_score")
	assert.Contains(t, header, "risk_tier")
	// Component columns come after the fixed prefix, sorted.
	assert.Equal(t, append(baseHeader,
		"audit", "certification", "environmental", "geopolitical", "incident"), header)

	assert.Equal(t, "Mill A", rows[1][0])
	assert.Equal(t, "0.42", rows[1][4])
	assert.Equal(t, "Low", rows[1][5])
	assert.Equal(t, "Dye House B", rows[2][0])
	assert.Equal(t, "fallback", rows[2][7])
	assert.Equal(t, "999", rows[2][8])
	assert.Equal(t, "true", rows[2][10])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, baseHeader, rows[0])
}

func TestWriteXLSX(t *testing.T) {
	results := sampleResults()
	summary := portfolio.Aggregate(results, 5)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, WriteXLSX(path, results, summary))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	suppliers := f.Sheets[0]
	assert.Equal(t, "Suppliers", suppliers.Name)
	require.Len(t, suppliers.Rows, 3)
	assert.Equal(t, "supplier", suppliers.Rows[0].Cells[0].String())
	assert.Equal(t, "Mill A", suppliers.Rows[1].Cells[0].String())
	assert.Equal(t, "High", suppliers.Rows[2].Cells[5].String())

	summarySheet := f.Sheets[1]
	assert.Equal(t, "Summary", summarySheet.Name)
	assert.Equal(t, "total_suppliers", summarySheet.Rows[0].Cells[0].String())
	assert.Equal(t, "2", summarySheet.Rows[0].Cells[1].String())
}
