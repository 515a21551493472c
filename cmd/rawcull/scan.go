package main

import (
	"fmt"
	"text/tabwriter"

	"rawcull/internal/analysis"
	"rawcull/internal/catalog"
	"rawcull/internal/raw"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newScanCmd(e *env) *cobra.Command {
	var withExif bool

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "List the RAW files of a folder with their ratings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Scan(e.directory(args), catalog.Options{
				Extensions:  e.cfg.Library.Extensions,
				NaturalSort: e.cfg.Library.NaturalSort,
			})
			if err != nil {
				return err
			}
			ratings, err := e.persistentRatings()
			if err != nil {
				return err
			}
			defer ratings.Close()

			out := cmd.OutOrStdout()
			printHeader(out, fmt.Sprintf("%s: %d RAW files", cat.Dir(), cat.Len()))

			decoder := raw.NewDecoder()
			var engine *analysis.Engine
			if withExif {
				engine = analysis.New(decoder)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, entry := range cat.Entries() {
				r := ratings.Get(entry.Path)
				line := fmt.Sprintf("%s\t%s\t%s\t%s", entry.Name, r.Stars(), humanize.Bytes(uint64(entry.Size)), entry.ModTime.Format("2006-01-02 15:04:05"))
				if engine != nil {
					if info, err := decoder.Inspect(cmd.Context(), entry.Path); err != nil {
						line += "\t" + dimStyle.Render("no preview")
					} else {
						line += fmt.Sprintf("\t%dx%d", info.Width, info.Height)
					}
					meta, err := engine.Analyze(cmd.Context(), entry.Path)
					if err != nil {
						line += "\t" + dimStyle.Render("no exif")
					} else {
						line += "\t" + meta.Summary()
					}
				}
				fmt.Fprintln(tw, line)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&withExif, "exif", false, "read camera and exposure from each file")
	return cmd
}
