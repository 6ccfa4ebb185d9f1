package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maison-group/supplier-risk-cli/internal/loader"
	"github.com/maison-group/supplier-risk-cli/internal/model"
	"github.com/maison-group/supplier-risk-cli/internal/report"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score suppliers and classify them into risk tiers",
	Long: `Score suppliers using the configured strategy and print each supplier's
composite score, sub-scores, and risk tier plus a portfolio summary.

Suppliers come from a CSV file (--input) or from the supplier directory
(--from-store). Location risk is enriched through the AI provider when
enrichment is enabled; every provider failure degrades to a fixed fallback
profile, so a scoring pass always completes.

Examples:
  # Score a CSV without network access
  score --input suppliers.csv --no-enrich

  # Score the stored directory with the certification strategy
  score --from-store --strategy certification

  # Export scores to CSV
  score --input suppliers.csv --format csv --output scores.csv`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "supplier CSV file")
	f.Bool("from-store", false, "score suppliers from the directory instead of a CSV")
	f.String("strategy", "", "scoring strategy: expiry or certification (overrides config)")
	f.String("format", "table", "output format: table, csv, or json")
	f.String("output", "", "output file path (default: stdout)")
	f.Int("top", 0, "ranked-list size in the summary (overrides config)")
	f.Bool("no-enrich", false, "skip AI enrichment and use fallback location risk")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	fromStore, _ := cmd.Flags().GetBool("from-store")
	strategy, _ := cmd.Flags().GetString("strategy")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	top, _ := cmd.Flags().GetInt("top")
	noEnrich, _ := cmd.Flags().GetBool("no-enrich")

	if input == "" && !fromStore {
		return eris.New("score: either --input or --from-store is required")
	}
	if format != "table" && format != "csv" && format != "json" {
		return eris.Errorf("score: --format must be table, csv, or json (got %q)", format)
	}

	scoringCfg := cfg.Scoring
	if strategy != "" {
		scoringCfg.Strategy = strategy
	}
	if top > 0 {
		scoringCfg.TopN = top
	}

	var records []model.Supplier
	var err error
	if fromStore {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		records, err = st.ListSuppliers(ctx)
		if err != nil {
			return err
		}
	} else {
		records, err = loader.LoadFile(input)
		if err != nil {
			return err
		}
	}
	if len(records) == 0 {
		fmt.Println("No suppliers to score.")
		return nil
	}

	engine, _, err := buildEngine(scoringCfg, noEnrich)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "score"))
	log.Info("starting scoring pass",
		zap.Int("suppliers", len(records)),
		zap.String("strategy", scoringCfg.Strategy),
		zap.Bool("enrichment", cfg.Enrichment.Enabled && !noEnrich),
	)

	results, skipped := engine.ScoreAll(ctx, records)
	summary := engine.Aggregate(results)

	log.Info("scoring pass complete",
		zap.Int("scored", len(results)),
		zap.Int("skipped", len(skipped)),
		zap.Int("fallback_lookups", summary.FallbackLookups),
	)

	w, closeOut, err := outputWriter(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	switch format {
	case "csv":
		if err := report.WriteCSV(w, results); err != nil {
			return err
		}
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Results []model.RiskResult     `json:"results"`
			Summary model.PortfolioSummary `json:"summary"`
		}{results, summary}); err != nil {
			return eris.Wrap(err, "score: encode json")
		}
	default:
		printResultsTable(w, results)
		printSummary(w, summary)
	}

	for _, name := range skipped {
		fmt.Printf("skipped malformed record: %q\n", name)
	}
	return nil
}
