package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ecomap/internal/aggregate"
	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/status"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the dataset and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), cfg, nil)
		if err != nil {
			return eris.New(dataset.UserMessage(err))
		}
		printSummary(cmd.OutOrStdout(), ds, aggregate.Summarize(ds.Records, viewOptions(cfg).MaxBounds))
		return nil
	},
}

var tierColors = map[status.Tier]*color.Color{
	status.TierGood:     color.New(color.FgGreen, color.Bold),
	status.TierModerate: color.New(color.FgYellow, color.Bold),
	status.TierCritical: color.New(color.FgRed, color.Bold),
}

func printSummary(w io.Writer, ds *dataset.Dataset, s aggregate.Summary) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Loaded %d locations from %s\n", s.Total, ds.Source) //nolint:errcheck
	fmt.Fprintf(w, "  rows read %d, dropped %d\n", ds.Read, ds.Dropped)

	for _, t := range status.Tiers {
		cls := status.ForTier(t)
		tierColors[t].Fprintf(w, "  %-9s", cls.Label) //nolint:errcheck
		fmt.Fprintf(w, " %d\n", s.Counts[t])
	}
	if s.Total > 0 {
		fmt.Fprintf(w, "  score mean %.1f, min %.1f, max %.1f\n", s.MeanScore, s.MinScore, s.MaxScore)
		fmt.Fprintf(w, "  centroid %.4f, %.4f\n", s.Centroid.Lat, s.Centroid.Lon)
	}
	if s.OutsideExtent > 0 {
		color.New(color.FgYellow).Fprintf(w, "  %d locations fall outside the map bounds\n", s.OutsideExtent) //nolint:errcheck
	}
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
