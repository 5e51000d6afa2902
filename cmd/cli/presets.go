package cli

import (
	"github.com/spf13/cobra"

	"github.com/anstrom/portprobe/internal/services"
)

var presetsOutput string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in port presets",
	Long: `List the named port selections usable with "portprobe scan --preset".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateOutput(presetsOutput); err != nil {
			return err
		}

		presets := services.Presets()
		if presetsOutput == outputJSON {
			return writeJSON(cmd.OutOrStdout(), presets)
		}

		rows := make([][]string, 0, len(presets))
		for _, p := range presets {
			rows = append(rows, []string{p.Label, p.Ports, p.Protocol})
		}
		renderTable(cmd.OutOrStdout(), []string{"Preset", "Ports", "Protocol"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.Flags().StringVarP(&presetsOutput, "output", "o", outputTable, "Output format (table, json)")
}
