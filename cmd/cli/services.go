package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anstrom/portprobe/internal/services"
	"github.com/anstrom/portprobe/internal/targets"
)

var (
	servicesProtocol string
	servicesOutput   string
)

var servicesCmd = &cobra.Command{
	Use:     "services",
	Aliases: []string{"common-ports"},
	Short:   "Show the well-known port to service table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateOutput(servicesOutput); err != nil {
			return err
		}

		table := services.Common()
		if servicesProtocol != "" {
			proto, err := targets.ParseProtocol(servicesProtocol)
			if err != nil {
				return err
			}
			table = services.Table{proto.String(): table[proto.String()]}
		}

		if servicesOutput == outputJSON {
			return writeJSON(cmd.OutOrStdout(), table)
		}

		var rows [][]string
		for _, proto := range []string{"tcp", "udp"} {
			names, ok := table[proto]
			if !ok {
				continue
			}
			for _, port := range table.Ports(proto) {
				rows = append(rows, []string{proto, strconv.Itoa(port), names[port]})
			}
		}
		renderTable(cmd.OutOrStdout(), []string{"Protocol", "Port", "Service"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)

	servicesCmd.Flags().StringVar(&servicesProtocol, "protocol", "", "only show one protocol (tcp, udp)")
	servicesCmd.Flags().StringVarP(&servicesOutput, "output", "o", outputTable, "Output format (table, json)")
}
