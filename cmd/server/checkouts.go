package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/report"
)

func checkoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkouts",
		Short: "Print the check-out report for a day or week",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			day := dates.Day(a.now())
			if s, _ := cmd.Flags().GetString("date"); s != "" {
				if day, err = dates.Parse(s); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			week, _ := cmd.Flags().GetBool("week")
			asCSV, _ := cmd.Flags().GetBool("csv")

			ctx := cmd.Context()
			props, err := a.catalog.Properties(ctx)
			if err != nil {
				return err
			}
			loaded, err := a.sync.Events(ctx)
			if err != nil {
				return err
			}
			if loaded.Failed > 0 {
				fmt.Fprintf(os.Stderr, "warning: %d calendar source(s) failed, report may be incomplete\n", loaded.Failed)
			}

			lang := report.WithLanguage(cfg.Language())
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			if week {
				w := report.WeeklyCheckouts(day, loaded.Events, props, lang)
				if asCSV {
					return report.WriteWeeklyCSV(out, w)
				}
				return enc.Encode(w)
			}

			records := report.CheckoutsForDate(day, loaded.Events, props, lang)
			if asCSV {
				return report.WriteDailyCSV(out, records)
			}
			return enc.Encode(struct {
				Summary   report.Summary          `json:"summary"`
				Checkouts []report.CheckoutRecord `json:"checkouts"`
			}{report.Summarize(day, records), records})
		},
	}
	cmd.Flags().String("date", "", "Report date, YYYY-MM-DD (default today)")
	cmd.Flags().Bool("week", false, "Report the Monday-based week containing --date")
	cmd.Flags().Bool("csv", false, "Write CSV instead of JSON")
	return cmd
}

func healthcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check a running server (for container HEALTHCHECK)",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			return runHealthCheck(addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "Server address")
	return cmd
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}
