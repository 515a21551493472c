package main

import (
	"io"

	"rawcull/internal/config"
	"rawcull/internal/log"
	"rawcull/internal/rating"

	"github.com/spf13/cobra"
)

// env is the state shared by every subcommand once flags are parsed.
type env struct {
	cfgFile  string
	debug    bool
	jsonLogs bool
	cfg      *config.Config
}

// NewRootCmd creates the root command. Without a subcommand it opens the GUI.
func NewRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "rawcull [directory]",
		Short: "Browse, rate and export RAW photos",
		Long: `rawcull shows a folder of camera RAW files as a thumbnail grid or one
image at a time, lets you score them from 0 to 5 stars and exports the
scored ones as full-size JPEGs.`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(e, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.cfgFile, "config", "", "config file (default is $HOME/.config/rawcull/config.yaml)")
	flags.BoolVar(&e.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&e.jsonLogs, "json-logs", false, "log as JSON")

	rootCmd.AddCommand(newGUICmd(e))
	rootCmd.AddCommand(newTUICmd(e))
	rootCmd.AddCommand(newScanCmd(e))
	rootCmd.AddCommand(newRateCmd(e))
	rootCmd.AddCommand(newExportCmd(e))

	return rootCmd
}

// load reads the configuration and sets up logging.
func (e *env) load(logOut io.Writer) error {
	var err error
	if e.cfgFile != "" {
		e.cfg, err = config.LoadConfigFile(e.cfgFile)
	} else {
		e.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	debug := e.debug || e.cfg.Log.Debug
	opts := []log.Option{log.WithOutput(logOut), log.WithLevel("info")}
	if debug {
		opts = append(opts, log.WithLevel("debug"))
	}
	if e.jsonLogs || e.cfg.Log.JSON {
		opts = append(opts, log.WithJSON())
	}
	log.Configure(opts...)
	log.SetDebug(debug)
	return nil
}

// directory picks the folder argument, falling back to library.default.
func (e *env) directory(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return e.cfg.Library.Default
}

// persistentRatings opens the SQLite store regardless of ratings.persist;
// command-line ratings are useless if they vanish on exit.
func (e *env) persistentRatings() (*rating.SQLiteStore, error) {
	return rating.OpenSQLite(e.cfg.Ratings.Database)
}
