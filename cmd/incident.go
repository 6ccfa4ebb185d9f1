package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maison-group/supplier-risk-cli/internal/model"
	"github.com/maison-group/supplier-risk-cli/internal/store"
)

var incidentCmd = &cobra.Command{
	Use:   "incident",
	Short: "Report or clear supplier incidents",
}

var incidentReportCmd = &cobra.Command{
	Use:   "report <supplier>",
	Short: "Flag a supplier with an open incident",
	Long: "Flag a supplier with an open incident.\n\n" +
		"Conventional types: " + strings.Join(model.KnownIncidentTypes, ", ") + "\n" +
		"Conventional severities: " + strings.Join(model.KnownIncidentSeverities, ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		incType, _ := cmd.Flags().GetString("type")
		severity, _ := cmd.Flags().GetString("severity")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		supplier, err := st.GetSupplier(ctx, args[0])
		if err != nil {
			return err
		}

		supplier.HasIncident = true
		supplier.Incident = &model.Incident{
			Type:     incType,
			Severity: severity,
			Status:   "Open",
		}

		if _, err := st.UpsertSuppliers(ctx, []model.Supplier{*supplier}); err != nil {
			return err
		}
		if err := st.AppendActivity(ctx, store.ActivityEntry{
			Action:   store.ActionIncidentOpen,
			Supplier: supplier.Name,
			Detail:   map[string]any{"type": incType, "severity": severity},
		}); err != nil {
			return err
		}

		fmt.Printf("Incident reported for %s\n", supplier.Name)
		return nil
	},
}

var incidentClearCmd = &cobra.Command{
	Use:   "clear <supplier>",
	Short: "Clear a supplier's open incident",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		supplier, err := st.GetSupplier(ctx, args[0])
		if err != nil {
			return err
		}

		supplier.HasIncident = false
		supplier.Incident = nil

		if _, err := st.UpsertSuppliers(ctx, []model.Supplier{*supplier}); err != nil {
			return err
		}
		if err := st.AppendActivity(ctx, store.ActivityEntry{
			Action:   store.ActionIncidentClear,
			Supplier: supplier.Name,
		}); err != nil {
			return err
		}

		fmt.Printf("Incident cleared for %s\n", supplier.Name)
		return nil
	},
}

func init() {
	incidentReportCmd.Flags().String("type", "Other", "incident type")
	incidentReportCmd.Flags().String("severity", "Medium", "incident severity")
	incidentCmd.AddCommand(incidentReportCmd, incidentClearCmd)
	rootCmd.AddCommand(incidentCmd)
}
