package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/session"
	"github.com/sells-group/ecomap/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and select locations in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("browse"); err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), cfg, nil)
		if err != nil {
			return eris.New(dataset.UserMessage(err))
		}

		vp := session.NewViewport(session.ViewportOptions{
			Zoom:     cfg.Map.SelectZoom,
			Duration: cfg.Map.FlyDuration(),
		})
		sess := session.New("browse", ds.Records, vp, nil)

		p := tea.NewProgram(tui.New(sess), tea.WithContext(cmd.Context()), tea.WithOutput(cmd.OutOrStdout()), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return eris.Wrap(err, "browse: run")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
