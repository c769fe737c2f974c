package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/mapview"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/search"
	"github.com/sells-group/ecomap/internal/status"
)

var (
	searchLimit int
	searchAll   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search locations by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), cfg, nil)
		if err != nil {
			return eris.New(dataset.UserMessage(err))
		}

		query := strings.Join(args, " ")
		var matches []model.Location
		if searchAll {
			matches = search.Filter(ds.Records, query)
		} else {
			limit := searchLimit
			if limit <= 0 {
				limit = cfg.Search.MaxSuggestions
			}
			matches = search.Suggestions(ds.Records, query, limit)
		}
		return printMatches(cmd.OutOrStdout(), matches)
	},
}

func printMatches(w io.Writer, matches []model.Location) error {
	if len(matches) == 0 {
		_, err := fmt.Fprintln(w, mapview.NoResults)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCORE\tSTATUS\tLAT\tLON")
	for _, r := range matches {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%.4f\t%.4f\n", r.Name, r.Score, status.Classify(r.Score).Label, r.Lat, r.Lon)
	}
	return tw.Flush()
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default search.max_suggestions)")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "print every match instead of the suggestion list")
	rootCmd.AddCommand(searchCmd)
}
