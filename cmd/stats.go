package cmd

import (
	"fmt"
	"time"

	"github.com/launchbrief/campaigner/internal/config"
	"github.com/launchbrief/campaigner/internal/ledger"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var (
		ledgerDir string
		since     string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the asset generation run ledger",
		Long: `Summarize the asset generation run ledger.

Reads every parquet file under the ledger directory and prints aggregate
counts per campaign and per failed stage. Use --since to limit the window,
either as a duration (72h) or a date (2026-08-01).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ledger") {
				ledgerDir = cfg.Ledger.Dir
			}

			l := ledger.New(ledgerDir)

			var records []ledger.Record
			if since != "" {
				cutoff, err := parseSince(since)
				if err != nil {
					return err
				}
				records, err = l.LoadSince(cutoff)
				if err != nil {
					return err
				}
			} else {
				records, err = l.Load()
				if err != nil {
					return err
				}
			}

			if len(records) == 0 {
				fmt.Println("No run records found")
				return nil
			}

			stats := ledger.Aggregate(records)

			if outPath != "" {
				if err := writeYAML(stats, outPath); err != nil {
					return err
				}
				fmt.Printf("Stats written to %s\n", outPath)
			}

			stats.PrintSummary()
			return nil
		},
	}

	cmd.Flags().StringVar(&ledgerDir, "ledger", "output/ledger", "directory holding the run ledger")
	cmd.Flags().StringVar(&since, "since", "", "only count runs after this duration (72h) or date (2026-08-01)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the aggregate stats as YAML")

	return cmd
}

func parseSince(s string) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q: use a duration like 72h or a date like 2006-01-02", s)
}
