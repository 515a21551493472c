package main

import (
	"rawcull/internal/gui"
	"rawcull/internal/rating"

	"github.com/spf13/cobra"
)

func newGUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "gui [directory]",
		Short: "Launch the graphical browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(e, args)
		},
	}
}

func runGUI(e *env, args []string) error {
	e.cfg.Library.Default = e.directory(args)

	ratings, err := rating.Open(e.cfg)
	if err != nil {
		return err
	}
	defer ratings.Close()

	app, err := gui.NewFactory(e.cfg, ratings).Create()
	if err != nil {
		return err
	}
	app.Run()
	return nil
}
