// Package cmd - seed command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/carbon-engine/api"
	"github.com/warp/carbon-engine/generic"
)

// seedCmd loads the demo company
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo company with six months of readings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		company, err := api.SeedDemo(cmd.Context(), e.Directory, e.Ledger, generic.Today())
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Seeded %s (%s)\n", company.Name, company.ID)
		return nil
	},
}
