package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maison-group/supplier-risk-cli/internal/model"
	"github.com/maison-group/supplier-risk-cli/internal/store"
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Manage supplier certifications",
}

var certSetCmd = &cobra.Command{
	Use:   "set <supplier> <code>",
	Short: "Add or update a certification on a supplier",
	Long: `Add a certification to a supplier, or update its expiry date if the
supplier already holds it. Codes outside the scored set (GOTS, GRS, RWS,
ZDHC, WRAP) are kept on the record but ignored by scoring.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		expiryRaw, _ := cmd.Flags().GetString("expiry")
		var expiry *time.Time
		if expiryRaw != "" {
			t, err := time.Parse("2006-01-02", expiryRaw)
			if err != nil {
				return eris.Errorf("cert: --expiry must be YYYY-MM-DD (got %q)", expiryRaw)
			}
			expiry = &t
		}

		code, known := model.ParseCertCode(args[1])
		if !known {
			zap.L().Warn("certification code is not scored", zap.String("code", string(code)))
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

		updated := false
		for i := range supplier.Certifications {
			if supplier.Certifications[i].Code == code {
				supplier.Certifications[i].Expiry = expiry
				updated = true
				break
			}
		}
		if !updated {
			supplier.Certifications = append(supplier.Certifications, model.Certification{
				Code: code, Known: known, Expiry: expiry,
			})
		}

		if _, err := st.UpsertSuppliers(ctx, []model.Supplier{*supplier}); err != nil {
			return err
		}
		if err := st.AppendActivity(ctx, store.ActivityEntry{
			Action:   store.ActionCertUpdate,
			Supplier: supplier.Name,
			Detail:   map[string]any{"code": string(code), "expiry": expiryRaw},
		}); err != nil {
			return err
		}

		fmt.Printf("Certification %s recorded for %s\n", code, supplier.Name)
		return nil
	},
}

var certRemoveCmd = &cobra.Command{
	Use:   "remove <supplier> <code>",
	Short: "Remove a certification from a supplier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		code, _ := model.ParseCertCode(args[1])

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		supplier, err := st.GetSupplier(ctx, args[0])
		if err != nil {
			return err
		}

		kept := supplier.Certifications[:0]
		removed := false
		for _, c := range supplier.Certifications {
			if c.Code == code {
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		if !removed {
			return eris.Errorf("cert: %s does not hold %s", supplier.Name, code)
		}
		supplier.Certifications = kept

		if _, err := st.UpsertSuppliers(ctx, []model.Supplier{*supplier}); err != nil {
			return err
		}
		if err := st.AppendActivity(ctx, store.ActivityEntry{
			Action:   store.ActionCertUpdate,
			Supplier: supplier.Name,
			Detail:   map[string]any{"code": string(code), "removed": true},
		}); err != nil {
			return err
		}

		fmt.Printf("Certification %s removed from %s\n", code, supplier.Name)
		return nil
	},
}

func init() {
	certSetCmd.Flags().String("expiry", "", "expiry date (YYYY-MM-DD)")
	certCmd.AddCommand(certSetCmd, certRemoveCmd)
	rootCmd.AddCommand(certCmd)
}
