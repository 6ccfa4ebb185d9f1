package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/maison-group/supplier-risk-cli/internal/model"
	"github.com/maison-group/supplier-risk-cli/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit <supplier>",
	Short: "Record an audit result for a supplier",
	Long: `Record the outcome of a supplier audit. Status must be one of
passed, pending, or failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		statusRaw, _ := cmd.Flags().GetString("status")
		dateRaw, _ := cmd.Flags().GetString("date")
		nextRaw, _ := cmd.Flags().GetString("next")

		status := model.ParseAuditStatus(statusRaw)
		if status == model.AuditUnknown {
			return eris.Errorf("audit: --status must be passed, pending, or failed (got %q)", statusRaw)
		}

		parseDay := func(raw string) (*time.Time, error) {
			if raw == "" {
				return nil, nil
			}
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, eris.Errorf("audit: dates must be YYYY-MM-DD (got %q)", raw)
			}
			return &t, nil
		}

		date, err := parseDay(dateRaw)
		if err != nil {
			return err
		}
		if date == nil {
			now := time.Now().UTC().Truncate(24 * time.Hour)
			date = &now
		}
		next, err := parseDay(nextRaw)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		supplier, err := st.GetSupplier(ctx, args[0])
		if err != nil {
			return err
		}

		supplier.AuditStatus = status
		supplier.LastAuditDate = date
		if next != nil {
			supplier.NextAuditDate = next
		}

		if _, err := st.UpsertSuppliers(ctx, []model.Supplier{*supplier}); err != nil {
			return err
		}
		if err := st.AppendActivity(ctx, store.ActivityEntry{
			Action:   store.ActionAuditUpdate,
			Supplier: supplier.Name,
			Detail:   map[string]any{"status": string(status), "date": date.Format("2006-01-02")},
		}); err != nil {
			return err
		}

		fmt.Printf("Audit %s recorded for %s\n", status, supplier.Name)
		return nil
	},
}

func init() {
	auditCmd.Flags().String("status", "", "audit outcome: passed, pending, or failed (required)")
	auditCmd.Flags().String("date", "", "audit date (YYYY-MM-DD, default today)")
	auditCmd.Flags().String("next", "", "next scheduled audit date (YYYY-MM-DD)")
	auditCmd.MarkFlagRequired("status")
	rootCmd.AddCommand(auditCmd)
}
