package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/maison-group/supplier-risk-cli/internal/store"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the data-collection activity log",
	Long: `List recorded data changes: imports, certification updates, audit
results, and incident reports. Newest entries first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		action, _ := cmd.Flags().GetString("action")
		supplier, _ := cmd.Flags().GetString("supplier")
		sinceRaw, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		var since time.Time
		if sinceRaw != "" {
			var err error
			if since, err = time.Parse("2006-01-02", sinceRaw); err != nil {
				return eris.Errorf("activity: --since must be YYYY-MM-DD (got %q)", sinceRaw)
			}
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListActivity(ctx, store.ActivityFilter{
			Action:   action,
			Supplier: supplier,
			Since:    since,
			Limit:    limit,
		})
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(entries), "activity: encode json")
		}

		if len(entries) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tSUPPLIER\tDETAIL")
		for _, e := range entries {
			detail := ""
			if len(e.Detail) > 0 {
				b, _ := json.Marshal(e.Detail)
				detail = string(b)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, e.Supplier, detail)
		}
		tw.Flush()
		return nil
	},
}

func init() {
	f := activityCmd.Flags()
	f.String("action", "", "filter by action (import, certification_update, audit_update, incident_report, incident_clear)")
	f.String("supplier", "", "filter by supplier name")
	f.String("since", "", "only entries on or after this date (YYYY-MM-DD)")
	f.Int("limit", 50, "maximum entries to show (0 = all)")
	f.Bool("json", false, "output JSON")
	rootCmd.AddCommand(activityCmd)
}
