// Package cmd - forecast command
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/carbon-engine/analytics"
)

var (
	forecastCompany string
	forecastMonths  int
	forecastHistory int
)

// forecastCmd projects AI energy use
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast monthly AI energy, carbon and cost",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		points, err := e.Analytics.Forecast(cmd.Context(), forecastCompany, forecastHistory, forecastMonths)
		if err != nil {
			return err
		}
		if len(points) == 0 {
			fmt.Fprintln(out(cmd), "Not enough history to forecast.")
			return nil
		}

		tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MONTH\tAI KWH\tLOW\tHIGH\tAI CO2E KG\tAI COST")
		for _, p := range points {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Label,
				p.PredictedAIKwh.StringFixed(1), p.ConfidenceLow.StringFixed(1), p.ConfidenceHigh.StringFixed(1),
				p.PredictedAICo2eKg.StringFixed(1), p.PredictedAICost.StringFixed(2))
		}
		return tw.Flush()
	},
}

func init() {
	forecastCmd.Flags().StringVarP(&forecastCompany, "company", "c", "", "company id")
	forecastCmd.Flags().IntVarP(&forecastMonths, "months", "m", analytics.DefaultForecastMonths, "months to forecast")
	forecastCmd.Flags().IntVar(&forecastHistory, "history", analytics.DefaultHistoryMonths, "months of history to fit")
	_ = forecastCmd.MarkFlagRequired("company")
}
