package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/scanner"
	"github.com/anstrom/portprobe/internal/targets"
)

var (
	expandIPs      string
	expandPorts    string
	expandProtocol string
	expandOutput   string
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand address and port ranges into targets",
	Long: `Expand an IPv4 address specification and a port specification into the
list of targets a scan would probe, without sending any traffic.

Addresses accept a single address, CIDR notation or a hyphenated range.
Ports accept a comma separated list of ports and ranges.`,
	Example: `  portprobe expand --ips 192.168.1.0/30 --ports 22,80
  portprobe expand --ips 10.0.0.1-10.0.0.5 --ports 53 --protocol udp -o json`,
	RunE: runExpand,
}

func runExpand(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(expandOutput); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := scanner.NewEngine(cfg.EngineConfig(), nil, logging.Default())
	exp, err := engine.Expand(expandIPs, expandPorts, expandProtocol)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if expandOutput == outputJSON {
		return writeJSON(out, exp)
	}

	renderTable(out, []string{"IP", "Port", "Protocol"}, targetRows(exp.Targets))
	_, err = fmt.Fprintf(out, "Total: %d targets\n", exp.Total)
	return err
}

func targetRows(ts []targets.Target) [][]string {
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		rows = append(rows, []string{t.IP, strconv.Itoa(t.Port), t.Protocol.String()})
	}
	return rows
}

func init() {
	rootCmd.AddCommand(expandCmd)

	expandCmd.Flags().StringVar(&expandIPs, "ips", "", "IPv4 address, CIDR or range (required)")
	expandCmd.Flags().StringVarP(&expandPorts, "ports", "p", "", "ports, e.g. 22,80,8000-8010 (required)")
	expandCmd.Flags().StringVar(&expandProtocol, "protocol", "tcp", "protocol (tcp, udp)")
	expandCmd.Flags().StringVarP(&expandOutput, "output", "o", outputTable, "Output format (table, json)")
	_ = expandCmd.MarkFlagRequired("ips")
	_ = expandCmd.MarkFlagRequired("ports")
}
