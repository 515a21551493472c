package main

import (
	"fmt"
	"path/filepath"

	"rawcull/internal/catalog"
	"rawcull/internal/errors"
	"rawcull/internal/export"
	"rawcull/internal/raw"
	"rawcull/pkg/types"

	"github.com/spf13/cobra"
)

func newExportCmd(e *env) *cobra.Command {
	var (
		dest      string
		minRating int
		quality   int
		collision string
	)

	cmd := &cobra.Command{
		Use:   "export [directory]",
		Short: "Export scored RAW files as JPEG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Scan(e.directory(args), catalog.Options{
				Extensions:  e.cfg.Library.Extensions,
				NaturalSort: e.cfg.Library.NaturalSort,
			})
			if err != nil {
				return err
			}

			opts := export.OptionsFromConfig(e.cfg)
			if cmd.Flags().Changed("min-rating") {
				r := types.Rating(minRating)
				if r < 1 || !r.Valid() {
					return errors.NewRatingError(minRating)
				}
				opts.MinRating = r
			}
			if cmd.Flags().Changed("quality") {
				if quality < 1 || quality > 100 {
					return errors.NewConfigError("quality must be between 1 and 100", "quality", errors.InvalidConfig, nil)
				}
				opts.Quality = quality
			}
			if collision != "" {
				opts.Collision = collision
			}
			if dest == "" {
				dest = e.cfg.Export.Directory
			}
			if dest == "" {
				dest = filepath.Join(cat.Dir(), "export")
			}

			ratings, err := e.persistentRatings()
			if err != nil {
				return err
			}
			defer ratings.Close()

			out := cmd.OutOrStdout()
			exporter := export.New(raw.NewDecoder(), ratings, opts)
			if len(exporter.Select(cat.Entries())) == 0 {
				printWarning(out, "No scored images found to export")
				return nil
			}

			results, err := exporter.Export(cmd.Context(), cat.Entries(), dest, func(done, total int) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\rExporting %d/%d", done, total)
			})
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var exported, skipped, failed int
			for _, r := range results {
				switch {
				case r.Exported:
					exported++
				case r.Skipped:
					skipped++
					printWarning(out, fmt.Sprintf("%s: JPEG already exists, skipped", filepath.Base(r.SourcePath)))
				case r.Error != nil:
					failed++
					printError(out, fmt.Sprintf("%s: %v", filepath.Base(r.SourcePath), r.Error))
				}
			}
			printSuccess(out, fmt.Sprintf("Exported %d images to %s", exported, dest))
			if skipped+failed > 0 {
				printWarning(out, fmt.Sprintf("%d skipped, %d failed", skipped, failed))
			}
			if failed > 0 {
				return errors.Newf("%d of %d images failed to export", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "to", "", "destination folder (default export.directory or <folder>/export)")
	cmd.Flags().IntVar(&minRating, "min-rating", 1, "lowest rating to export")
	cmd.Flags().IntVar(&quality, "quality", 95, "JPEG quality 1-100")
	cmd.Flags().StringVar(&collision, "on-collision", "", "rename, skip or overwrite when the JPEG exists")
	return cmd
}
