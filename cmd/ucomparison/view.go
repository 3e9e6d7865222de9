package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitabwire/ucomparison/internal/render"
	"github.com/pitabwire/ucomparison/internal/state"
)

func newViewCmd() *cobra.Command {
	var (
		query string
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the comparison table for a query string",
		Example: `  ucomparison view --query 'search=license:MIT&order=-stars'
  ucomparison view --query 'columns=id,license&maximized' --plain`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ds, err := loadDataset(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			s := state.Reduce(state.New(), state.DataLoaded{Dataset: ds})
			s = state.Reduce(s, state.RouteChanged{QueryParams: state.QueryParams(query)})

			styles := render.DefaultStyles()
			if plain {
				styles = render.PlainStyles()
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Table(state.View(s), styles))
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "view query string (search, filter, columns, order, maximized)")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors")
	return cmd
}
