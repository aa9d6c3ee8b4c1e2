package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quorumworks/govledger/pkg/register"
)

var exportDir string

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the register (CSV, JSON)",
	Long: `Fetch every entry of every record type and export the results.

Default output directory: ./govledger-out/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := cliRegister(cmd.Context())
		if err != nil {
			return err
		}

		var all []register.Entry
		for _, t := range register.AllRecordTypes() {
			entries, err := reg.Entries(cmd.Context(), t)
			if err != nil {
				return err
			}
			all = append(all, entries...)
		}

		if err := os.MkdirAll(exportDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		csvPath := filepath.Join(exportDir, "register.csv")
		jsonPath := filepath.Join(exportDir, "register.json")
		if err := register.GenerateCSV(all, csvPath); err != nil {
			return err
		}
		if err := register.GenerateJSON(all, jsonPath); err != nil {
			return err
		}

		fmt.Printf("Exported %d entries.\n", len(all))
		fmt.Printf("   CSV:  %s\n", csvPath)
		fmt.Printf("   JSON: %s\n", jsonPath)
		return nil
	},
}

func init() {
	ExportCmd.Flags().StringVar(&exportDir, "out", "./govledger-out", "Output directory")
}
