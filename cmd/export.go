package main

import (
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

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Score suppliers and export the results to CSV or XLSX",
	Long: `Score suppliers and write a report file. XLSX output includes a
Suppliers sheet with per-supplier scores and a Summary sheet with tier
counts, per-country statistics, and the ranked top risks.

Examples:
  export --from-store --output risk-report.xlsx
  export --input suppliers.csv --format csv --output scores.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		fromStore, _ := cmd.Flags().GetBool("from-store")
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")
		noEnrich, _ := cmd.Flags().GetBool("no-enrich")

		if input == "" && !fromStore {
			return eris.New("export: either --input or --from-store is required")
		}
		if outputPath == "" {
			return eris.New("export: --output is required")
		}
		if format != "csv" && format != "xlsx" {
			return eris.Errorf("export: --format must be csv or xlsx (got %q)", format)
		}

		var records []model.Supplier
		if fromStore {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if records, err = st.ListSuppliers(ctx); err != nil {
				return err
			}
		} else {
			var err error
			if records, err = loader.LoadFile(input); err != nil {
				return err
			}
		}
		if len(records) == 0 {
			return eris.New("export: no suppliers to score")
		}

		engine, _, err := buildEngine(cfg.Scoring, noEnrich)
		if err != nil {
			return err
		}

		results, skipped := engine.ScoreAll(ctx, records)
		summary := engine.Aggregate(results)
		if len(skipped) > 0 {
			zap.L().Warn("skipped malformed records", zap.Strings("names", skipped))
		}

		switch format {
		case "xlsx":
			if err := report.WriteXLSX(outputPath, results, summary); err != nil {
				return err
			}
		case "csv":
			w, closeOut, err := outputWriter(outputPath)
			if err != nil {
				return err
			}
			defer closeOut()
			if err := report.WriteCSV(w, results); err != nil {
				return err
			}
		}

		fmt.Printf("Exported %d scored suppliers to %s\n", len(results), outputPath)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.String("input", "", "supplier CSV file")
	f.Bool("from-store", false, "score suppliers from the directory instead of a CSV")
	f.String("format", "xlsx", "output format: csv or xlsx")
	f.String("output", "", "output file path (required)")
	f.Bool("no-enrich", false, "skip AI enrichment and use fallback location risk")
	rootCmd.AddCommand(exportCmd)
}
