package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/maison-group/supplier-risk-cli/internal/config"
	"github.com/maison-group/supplier-risk-cli/internal/enrich"
	"github.com/maison-group/supplier-risk-cli/internal/model"
	"github.com/maison-group/supplier-risk-cli/internal/portfolio"
	"github.com/maison-group/supplier-risk-cli/internal/scorer"
	"github.com/maison-group/supplier-risk-cli/internal/store"
	"github.com/maison-group/supplier-risk-cli/pkg/anthropic"
)

// openStore opens the configured store and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// buildEngine assembles the scorer, enrichment cache, and engine from
// configuration. noEnrich forces fallback-only enrichment regardless of
// config, which keeps scoring runnable offline.
func buildEngine(scoringCfg config.ScoringConfig, noEnrich bool) (*portfolio.Engine, *enrich.Cache, error) {
	if err := scorer.ValidateConfig(scoringCfg); err != nil {
		return nil, nil, err
	}

	var countryRisk map[string]float64
	if scoringCfg.CountryRiskFile != "" {
		var err error
		countryRisk, err = scorer.LoadCountryRisk(scoringCfg.CountryRiskFile)
		if err != nil {
			return nil, nil, err
		}
	}
	s := scorer.New(scoringCfg, countryRisk)

	var provider enrich.Provider
	if cfg.Enrichment.Enabled && !noEnrich {
		if cfg.Enrichment.Key == "" {
			// No credentials: fallback-only enrichment, surfaced via the
			// provenance column rather than a hard failure.
			zap.L().Warn("no enrichment API key set, running with fallback enrichment only",
				zap.String("env", "SUPPLIER_ENRICHMENT_KEY"))
		} else {
			client := anthropic.NewClient(cfg.Enrichment.Key)
			provider = enrich.NewAnthropicProvider(client, cfg.Enrichment)
		}
	}
	cache := enrich.NewCache(provider, time.Duration(cfg.Enrichment.TimeoutSecs)*time.Second)

	engine := portfolio.NewEngine(s, cache, cfg.Enrichment.MaxConcurrentLookups, scoringCfg.TopN)
	return engine, cache, nil
}

// outputWriter resolves --output: empty means stdout, anything else a file.
// The returned closer is a no-op for stdout.
func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, f.Close, nil
}

func printResultsTable(w io.Writer, results []model.RiskResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUPPLIER\tCOUNTRY\tCOMPOSITE\tTIER\tENRICHMENT\tAUDIT\tINCIDENT")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
			r.Name, r.Country, r.Composite, r.Tier,
			r.EnrichmentProvenance, r.AuditStatus, strconv.FormatBool(r.HasIncident))
	}
	tw.Flush()
}

func printSummary(w io.Writer, summary model.PortfolioSummary) {
	fmt.Fprintf(w, "\nSuppliers scored: %d\n", summary.TotalSuppliers)
	fmt.Fprintf(w, "Composite mean %.2f, median %.2f\n", summary.MeanComposite, summary.MedianComposite)
	for _, tier := range model.AllTiers {
		fmt.Fprintf(w, "  %-8s %d\n", tier, summary.TierCounts[tier])
	}
	if summary.ExpiringSoon > 0 {
		fmt.Fprintf(w, "Certifications expiring within 30 days: %d\n", summary.ExpiringSoon)
	}
	if summary.IncidentCount > 0 {
		fmt.Fprintf(w, "Open incidents: %d\n", summary.IncidentCount)
	}
	fmt.Fprintf(w, "Compliance rate: %.0f%%\n", summary.ComplianceRate*100)
	if summary.FallbackLookups > 0 {
		fmt.Fprintf(w, "Locations on fallback enrichment: %d\n", summary.FallbackLookups)
	}
	if len(summary.TopRisks) > 0 {
		fmt.Fprintln(w, "\nTop risks:")
		for i, r := range summary.TopRisks {
			fmt.Fprintf(w, "  %d. %s (%s) %.2f %s\n", i+1, r.Name, r.Country, r.Composite, r.Tier)
		}
	}
}
