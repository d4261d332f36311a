// Package cmd - regions and companies commands
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/carbon-engine/carbon"
)

var greenestFirst bool

// regionsCmd lists the region carbon intensities
var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List region carbon intensities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry()
		if err != nil {
			return err
		}
		regions := reg.All()
		if greenestFirst {
			regions = reg.Greenest()
		}

		tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "CODE\tNAME\tINTENSITY (%s)\n", carbon.IntensityUnit)
		for _, r := range regions {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Code, r.Name, r.Intensity.String())
		}
		return tw.Flush()
	},
}

// companiesCmd lists companies in the database
var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List companies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		companies, err := e.Directory.Companies(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tREGION\tBASE AI %")
		for _, c := range companies {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Region, c.BaseAIPercentage.Shift(2).String())
		}
		return tw.Flush()
	},
}

func init() {
	regionsCmd.Flags().BoolVar(&greenestFirst, "greenest", false, "sort by ascending intensity")
}
