package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ecomap/internal/status"
	"github.com/sells-group/ecomap/internal/store"
)

var (
	loadsDB    string
	loadsID    string
	loadsTier  string
	loadsLimit int
)

var loadsCmd = &cobra.Command{
	Use:   "loads",
	Short: "List datasets saved by sqlite exports",
	Long: `Lists the loads stored in a SQLite export with per-tier counts.
With --id, prints the locations of one load, optionally narrowed by --tier.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := loadsDB
		if path == "" && cfg.Export.Format == "sqlite" {
			path = cfg.Export.Out
		}
		if path == "" {
			return eris.New("loads: --db is required")
		}
		if _, err := os.Stat(path); err != nil {
			return eris.Wrapf(err, "loads: open %s", path)
		}
		tier, err := parseTier(loadsTier)
		if err != nil {
			return err
		}

		st, err := store.NewSQLite(path)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if loadsID != "" {
			return printLoadLocations(cmd.Context(), cmd.OutOrStdout(), st, loadsID, store.LocationFilter{Tier: tier, Limit: loadsLimit})
		}
		return printLoads(cmd.Context(), cmd.OutOrStdout(), st, loadsLimit)
	},
}

// parseTier accepts a tier name or label in any case. Blank means all tiers.
func parseTier(s string) (status.Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, t := range status.Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", eris.Errorf("loads: unknown tier %q (want good, moderate or critical)", s)
}

func printLoads(ctx context.Context, w io.Writer, st store.Store, limit int) error {
	loads, err := st.ListLoads(ctx, limit)
	if err != nil {
		return err
	}
	if len(loads) == 0 {
		_, err := fmt.Fprintln(w, "No loads stored")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"ID", "LOADED", "SOURCE", "RECORDS", "DROPPED"}
	for _, t := range status.Tiers {
		header = append(header, strings.ToUpper(status.ForTier(t).Label))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, l := range loads {
		counts, err := st.TierCounts(ctx, l.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d", l.ID, l.LoadedAt.Format(time.RFC3339), l.Source, l.Records, l.RowsDropped)
		for _, t := range status.Tiers {
			fmt.Fprintf(tw, "\t%d", counts[t])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func printLoadLocations(ctx context.Context, w io.Writer, st store.Store, id string, filter store.LocationFilter) error {
	l, err := st.GetLoad(ctx, id)
	if err != nil {
		return eris.Wrapf(err, "loads: %s", id)
	}
	locs, err := st.Locations(ctx, l.ID, filter)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%s, %d records)\n", l.Source, l.LoadedAt.Format(time.RFC3339), l.Records)
	return printMatches(w, locs)
}

func init() {
	loadsCmd.Flags().StringVar(&loadsDB, "db", "", "sqlite export to read (default export.out when export.format is sqlite)")
	loadsCmd.Flags().StringVar(&loadsID, "id", "", "print the locations of this load")
	loadsCmd.Flags().StringVar(&loadsTier, "tier", "", "only locations in this tier: good, moderate or critical")
	loadsCmd.Flags().IntVar(&loadsLimit, "limit", 0, "max rows")
	rootCmd.AddCommand(loadsCmd)
}
