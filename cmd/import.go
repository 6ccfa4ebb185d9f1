package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maison-group/supplier-risk-cli/internal/loader"
	"github.com/maison-group/supplier-risk-cli/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import suppliers from CSV into the directory",
	Long: `Import supplier records from a CSV file into the supplier directory.
Existing suppliers with the same name are replaced. Records missing a name
are dropped with a warning; everything else is kept, because scoring
tolerates sparse records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		records, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("import: no records found in %s", args[0])
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		kept := records[:0]
		for _, rec := range records {
			if rec.Name == "" {
				zap.L().Warn("dropping record without a name", zap.String("country", rec.Country))
				continue
			}
			kept = append(kept, rec)
		}

		count, err := st.UpsertSuppliers(ctx, kept)
		if err != nil {
			return err
		}

		if err := st.AppendActivity(ctx, store.ActivityEntry{
			Action: store.ActionImport,
			Detail: map[string]any{"file": args[0], "imported": count},
		}); err != nil {
			return err
		}

		fmt.Printf("Imported %d suppliers from %s\n", count, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
