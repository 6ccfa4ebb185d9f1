package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var suppliersCmd = &cobra.Command{
	Use:   "suppliers",
	Short: "Inspect the supplier directory",
}

var suppliersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored suppliers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		suppliers, err := st.ListSuppliers(ctx)
		if err != nil {
			return err
		}
		if len(suppliers) == 0 {
			fmt.Println("No suppliers stored. Run 'import' first.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SUPPLIER\tCOUNTRY\tCITY\tCATEGORY\tCERTS\tAUDIT\tINCIDENT")
		for _, s := range suppliers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%v\n",
				s.Name, s.Country, s.City, s.Category,
				len(s.Certifications), s.AuditStatus, s.HasIncident)
		}
		tw.Flush()
		return nil
	},
}

var suppliersShowCmd = &cobra.Command{
	Use:   "show <supplier>",
	Short: "Show one supplier record as JSON",
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

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(supplier)
	},
}

var suppliersDeleteCmd = &cobra.Command{
	Use:   "delete <supplier>",
	Short: "Delete a supplier from the directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteSupplier(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	suppliersCmd.AddCommand(suppliersListCmd, suppliersShowCmd, suppliersDeleteCmd)
	rootCmd.AddCommand(suppliersCmd)
}
