package main

import (
	"io"

	"rawcull/internal/log"
	"rawcull/internal/rating"
	"rawcull/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [directory]",
		Short: "Start the terminal browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.debug {
				// log lines would corrupt the screen
				log.Configure(log.WithOutput(io.Discard))
			}

			ratings, err := rating.Open(e.cfg)
			if err != nil {
				return err
			}
			defer ratings.Close()

			m := tui.New(e.cfg, ratings)
			if err := m.Open(e.directory(args)); err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}
