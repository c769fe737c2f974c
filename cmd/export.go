package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export normalized locations to GeoJSON, SQLite or a shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "" {
			cfg.Export.Format = exportFormat
		}
		if exportOut != "" {
			cfg.Export.Out = exportOut
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		format, err := export.ParseFormat(cfg.Export.Format)
		if err != nil {
			return err
		}

		ds, err := loadDataset(cmd.Context(), cfg, nil)
		if err != nil {
			return eris.New(dataset.UserMessage(err))
		}
		if err := export.Write(cmd.Context(), format, cfg.Export.Out, ds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d locations to %s (%s)\n", len(ds.Records), cfg.Export.Out, format)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "geojson, sqlite or shapefile (default export.format)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default export.out)")
	rootCmd.AddCommand(exportCmd)
}
