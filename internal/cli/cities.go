package cli

import (
	"fmt"
	"strings"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal/crawler"

	"github.com/spf13/cobra"
)

func newCitiesCmd(build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the supported cities of every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			app, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			cities := app.orch.Cities()
			for _, src := range crawler.Sources {
				names, ok := cities[src]
				if !ok {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", src, strings.Join(names, ", "))
			}
			return nil
		},
	}
}
