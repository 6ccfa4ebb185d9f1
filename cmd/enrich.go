package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <country> [city]",
	Short: "Look up AI location-risk enrichment for one location",
	Long: `Fetch the geopolitical and environmental risk profile for a sourcing
location and print it as JSON. A provider failure (or --no-enrich, or
enrichment disabled in config) yields the neutral fallback profile with
provenance "fallback".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		noEnrich, _ := cmd.Flags().GetBool("no-enrich")

		engine, _, err := buildEngine(cfg.Scoring, noEnrich)
		if err != nil {
			return err
		}

		country := args[0]
		city := ""
		if len(args) == 2 {
			city = args[1]
		}

		result := engine.ResolveLocation(ctx, country, city)
		return printEnrichment(result)
	},
}

func printEnrichment(e model.Enrichment) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return eris.Wrap(err, "enrich: encode result")
	}
	return nil
}

func init() {
	enrichCmd.Flags().Bool("no-enrich", false, "skip the provider and return the fallback profile")
	rootCmd.AddCommand(enrichCmd)
}
