package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"rawcull/internal/catalog"
	"rawcull/internal/errors"
	"rawcull/pkg/types"

	"github.com/spf13/cobra"
)

func newRateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <file> <0-5>",
		Short: "Store a star rating for a RAW file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Wrap(err, "resolve path")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Wrapf(errors.ErrInvalidRating, "rating %q is not a number", args[1])
			}
			r := types.Rating(n)
			if !r.Valid() {
				return errors.NewRatingError(n)
			}

			cat, err := catalog.Scan(filepath.Dir(path), catalog.Options{Extensions: e.cfg.Library.Extensions})
			if err != nil {
				return err
			}
			if _, ok := cat.Lookup(path); !ok {
				return errors.NewFileError("not a RAW file", path, errors.InvalidPath, nil)
			}

			ratings, err := e.persistentRatings()
			if err != nil {
				return err
			}
			defer ratings.Close()

			if err := ratings.Set(path, r); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s - Score: %s", filepath.Base(path), r))
			return nil
		},
	}
}
