// Package cmd - simulate commands
package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/carbon-engine/simulation"
)

var (
	simCompany    string
	simPercent    float64
	simMonths     int
	simFromRegion string
	simToRegion   string
	simPrice      float64
)

// simulateCmd groups the what-if scenarios
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run what-if scenarios against the last 30 days",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var simulateGrowthCmd = &cobra.Command{
	Use:   "growth",
	Short: "Project AI usage growth",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd, func(e *engine) (simulation.Result, error) {
			return e.Simulation.SimulateGrowth(cmd.Context(), simCompany, simulation.GrowthInput{
				GrowthPercent: decimal.NewFromFloat(simPercent),
				MonthsAhead:   simMonths,
			})
		})
	},
}

var simulateRegionCmd = &cobra.Command{
	Use:   "region",
	Short: "Move AI workloads to another region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd, func(e *engine) (simulation.Result, error) {
			in := simulation.RegionChangeInput{FromRegion: simFromRegion, ToRegion: simToRegion}
			if cmd.Flags().Changed("price") {
				p := decimal.NewFromFloat(simPrice)
				in.TargetPricePerKwh = &p
			}
			return e.Simulation.SimulateRegionChange(cmd.Context(), simCompany, in)
		})
	},
}

var simulateEfficiencyCmd = &cobra.Command{
	Use:   "efficiency",
	Short: "Apply a model efficiency improvement",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd, func(e *engine) (simulation.Result, error) {
			return e.Simulation.SimulateEfficiency(cmd.Context(), simCompany, simulation.EfficiencyInput{
				EfficiencyPercent: decimal.NewFromFloat(simPercent),
			})
		})
	},
}

func init() {
	simulateCmd.PersistentFlags().StringVarP(&simCompany, "company", "c", "", "company id")
	_ = simulateCmd.MarkPersistentFlagRequired("company")

	simulateGrowthCmd.Flags().Float64VarP(&simPercent, "percent", "p", 0, "growth percent")
	simulateGrowthCmd.Flags().IntVarP(&simMonths, "months", "m", simulation.DefaultMonthsAhead, "months ahead")
	_ = simulateGrowthCmd.MarkFlagRequired("percent")

	simulateRegionCmd.Flags().StringVar(&simFromRegion, "from", "", "current region (default: recorded intensities)")
	simulateRegionCmd.Flags().StringVar(&simToRegion, "to", "", "target region")
	simulateRegionCmd.Flags().Float64Var(&simPrice, "price", 0, "electricity price per kWh in the target region")
	_ = simulateRegionCmd.MarkFlagRequired("to")

	simulateEfficiencyCmd.Flags().Float64VarP(&simPercent, "percent", "p", 0, "efficiency improvement percent (0-100)")
	_ = simulateEfficiencyCmd.MarkFlagRequired("percent")

	simulateCmd.AddCommand(simulateGrowthCmd, simulateRegionCmd, simulateEfficiencyCmd)
}

func runSimulation(cmd *cobra.Command, run func(*engine) (simulation.Result, error)) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.Directory.Company(cmd.Context(), simCompany); err != nil {
		return err
	}
	result, err := run(e)
	if err != nil {
		return err
	}

	w := out(cmd)
	fmt.Fprintln(w, result.Description)
	fmt.Fprintf(w, "  %-10s %14s %14s %14s\n", "", "ENERGY KWH", "CO2E KG", "COST")
	fmt.Fprintf(w, "  %-10s %14s %14s %14s\n", "baseline",
		result.Baseline.Kwh.StringFixed(1), result.Baseline.Co2eKg.StringFixed(1), result.Baseline.Cost.StringFixed(2))
	fmt.Fprintf(w, "  %-10s %14s %14s %14s\n", "projected",
		result.Projected.Kwh.StringFixed(1), result.Projected.Co2eKg.StringFixed(1), result.Projected.Cost.StringFixed(2))
	fmt.Fprintf(w, "  %-10s %14s %14s %14s\n", "delta",
		result.EnergyDelta.StringFixed(1), result.CarbonDelta.StringFixed(1), result.CostDelta.StringFixed(2))
	fmt.Fprintf(w, "Change: %s%%\n", result.PercentChange.StringFixed(1))
	return nil
}
