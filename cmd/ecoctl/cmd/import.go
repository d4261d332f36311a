// Package cmd - import command
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/carbon-engine/generic"
)

var importCompany string

// importCmd bulk-imports a CSV file of readings
var importCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import energy readings from CSV",
	Long: `Import meter readings into a company's ledger.

The file needs a header row with at least date and totalKwh columns;
departmentName and region are optional. Invalid rows are reported and
skipped, valid rows are imported.

Example:
  date,totalKwh,departmentName,region
  2025-01-15,1250.5,Machine Learning,US`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importCompany, "company", "c", "", "company id")
	_ = importCmd.MarkFlagRequired("company")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.Ledger.Import(cmd.Context(), importCompany, f)
	if err != nil && !generic.IsPartialImport(err) {
		return err
	}

	w := out(cmd)
	fmt.Fprintf(w, "Imported %d records\n", result.RecordsImported)
	if len(result.Rejected) > 0 {
		fmt.Fprintf(w, "Rejected %d rows:\n", len(result.Rejected))
		for _, r := range result.Rejected {
			fmt.Fprintf(w, "  row %d: %s\n", r.Row, r.Reason)
		}
	}
	if !result.Success {
		return fmt.Errorf("no rows imported")
	}
	return nil
}
