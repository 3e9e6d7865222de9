package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitabwire/ucomparison/internal/definition"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the comparison files and report problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ds, err := loadDataset(cmd.Context(), cfg)
			if err != nil {
				var verr *definition.ValidationError
				if errors.As(err, &verr) {
					for _, ve := range verr.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", ve.Error())
					}
					return fmt.Errorf("%d validation errors", len(verr.Errors))
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ok: %s\n", ds.Configuration.Title)
			fmt.Fprintf(out, "  criteria: %d\n", ds.Configuration.Criteria.Len())
			fmt.Fprintf(out, "  entities: %d\n", len(ds.Entities))
			fmt.Fprintf(out, "  checksum: %s\n", ds.Checksum)
			return nil
		},
	}
}
