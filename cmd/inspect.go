package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/fetcher"
	"github.com/sells-group/ecomap/internal/model"
)

// roleMatch is one line of the column resolution report.
type roleMatch struct {
	Role     dataset.Role `yaml:"role"`
	Column   string       `yaml:"column,omitempty"`
	Required bool         `yaml:"required,omitempty"`
}

type inspectReport struct {
	Source  string         `yaml:"source"`
	Format  fetcher.Format `yaml:"format"`
	Columns []string       `yaml:"columns"`
	Roles   []roleMatch    `yaml:"roles"`
	Missing []dataset.Role `yaml:"missing,omitempty"`
	Rows    int            `yaml:"rows"`
	Valid   int            `yaml:"valid"`
	Dropped int            `yaml:"dropped"`
	Error   string         `yaml:"error,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report how dataset columns resolve to roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("inspect"); err != nil {
			return err
		}
		opts := datasetOptions(cfg)
		table, err := newLoader(cfg, nil).ReadTable(cmd.Context(), opts)
		if err != nil {
			return eris.New(dataset.UserMessage(err))
		}

		report := buildInspectReport(opts, table)
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "inspect: encode report")
		}
		return enc.Close()
	},
}

func buildInspectReport(opts dataset.Options, table *model.Table) inspectReport {
	format := opts.Format
	if format == "" {
		format = fetcher.DetectFormat(opts.Source)
	}
	cols := dataset.ResolveColumns(table.Columns)
	report := inspectReport{
		Source:  opts.Source,
		Format:  format,
		Columns: table.Columns,
		Missing: cols.Missing(),
	}
	for _, role := range dataset.Roles() {
		col, _ := cols.Get(role)
		report.Roles = append(report.Roles, roleMatch{Role: role, Column: col, Required: role.Required()})
	}

	ds, err := dataset.Build(table)
	if err != nil {
		report.Error = dataset.UserMessage(err)
		var empty *dataset.EmptyDatasetError
		if eris.As(err, &empty) {
			report.Rows = empty.Rows
			report.Dropped = empty.Rows
		}
		return report
	}
	report.Rows = ds.Read
	report.Valid = len(ds.Records)
	report.Dropped = ds.Dropped
	return report
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
