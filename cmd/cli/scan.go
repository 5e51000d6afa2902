package cli

import (
	"cmp"
	"context"
	"fmt"
	"net/netip"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/metrics"
	"github.com/anstrom/portprobe/internal/probe"
	"github.com/anstrom/portprobe/internal/scanner"
	"github.com/anstrom/portprobe/internal/services"
	"github.com/anstrom/portprobe/internal/targets"
)

const defaultBatchSize = 10

var (
	scanIPs       string
	scanPorts     string
	scanProtocol  string
	scanPreset    string
	scanBatchSize int
	scanOpenOnly  bool
	scanOutput    string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan address and port ranges",
	Long: `Expand the given address and port ranges and probe every target.

Targets are sent to the engine in batches of --batch-size. Within a batch
probes run concurrently, bounded by scanning.concurrency. A preset supplies
the ports and protocol unless --ports or --protocol are given.`,
	Example: `  portprobe scan --ips 192.168.1.1 --ports 22,80,443
  portprobe scan --ips 10.0.0.0/29 --preset "Web Ports" --open-only
  portprobe scan --ips 192.168.1.1 --ports 53,123 --protocol udp -o json`,
	RunE: runScan,
}

// scanReport is the JSON form of a completed scan.
type scanReport struct {
	Total      int            `json:"total"`
	Results    []probe.Result `json:"results"`
	DurationMS int64          `json:"duration_ms"`
}

// scanEngine is the part of the engine the scan command drives.
type scanEngine interface {
	Expand(ipSpec, portSpec, protocol string) (*targets.Expansion, error)
	Scan(ctx context.Context, batch []targets.Target) []probe.Result
}

func runScan(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(scanOutput); err != nil {
		return err
	}
	if scanBatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", scanBatchSize)
	}

	ports, protocol, err := resolvePorts(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := scanner.NewEngine(cfg.EngineConfig(), metrics.Nop{}, logging.Default())

	start := time.Now()
	results, err := runBatches(ctx, engine, scanIPs, ports, protocol, scanBatchSize)
	if err != nil {
		return err
	}

	sortResults(results)
	if scanOpenOnly {
		results = slices.DeleteFunc(results, func(r probe.Result) bool {
			return r.State != probe.StateOpen && r.State != probe.StateOpenFiltered
		})
	}

	out := cmd.OutOrStdout()
	if scanOutput == outputJSON {
		return writeJSON(out, scanReport{
			Total:      len(results),
			Results:    results,
			DurationMS: time.Since(start).Milliseconds(),
		})
	}

	renderTable(out, []string{"IP", "Port", "Protocol", "State", "Service", "Banner", "RTT"}, resultRows(results))
	_, err = fmt.Fprintf(out, "Scanned %d targets in %s\n", len(results), time.Since(start).Round(time.Millisecond))
	return err
}

// resolvePorts picks the port list and protocol from flags or the preset.
func resolvePorts(cmd *cobra.Command) (string, string, error) {
	ports, protocol := scanPorts, scanProtocol
	if scanPreset == "" {
		if ports == "" {
			return "", "", fmt.Errorf("either --ports or --preset is required")
		}
		return ports, protocol, nil
	}

	preset, ok := services.FindPreset(scanPreset)
	if !ok {
		return "", "", fmt.Errorf("unknown preset %q", scanPreset)
	}
	if !cmd.Flags().Changed("ports") {
		ports = preset.Ports
	}
	if !cmd.Flags().Changed("protocol") {
		protocol = preset.Protocol
	}
	return ports, protocol, nil
}

// runBatches expands the ranges and scans the targets batch by batch. It
// stops early when ctx is cancelled and returns what was collected.
func runBatches(ctx context.Context, engine scanEngine, ips, ports, protocol string, size int) ([]probe.Result, error) {
	exp, err := engine.Expand(ips, ports, protocol)
	if err != nil {
		return nil, err
	}

	logger := logging.Default().WithComponent("cli").WithBatchID(uuid.NewString())
	logger.Info("Starting scan",
		"targets", exp.Total,
		"batch_size", size)

	results := make([]probe.Result, 0, exp.Total)
	for batch := range slices.Chunk(exp.Targets, size) {
		if ctx.Err() != nil {
			logger.Warn("Scan interrupted", "completed", len(results), "total", exp.Total)
			break
		}
		results = append(results, engine.Scan(ctx, batch)...)
		logger.Debug("Batch finished", "completed", len(results), "total", exp.Total)
	}
	return results, nil
}

// sortResults orders results by address, then port, then protocol.
func sortResults(results []probe.Result) {
	slices.SortStableFunc(results, func(a, b probe.Result) int {
		if c := compareIP(a.IP, b.IP); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Port, b.Port); c != 0 {
			return c
		}
		return cmp.Compare(a.Protocol, b.Protocol)
	})
}

func compareIP(a, b string) int {
	addrA, errA := netip.ParseAddr(a)
	addrB, errB := netip.ParseAddr(b)
	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}
	return addrA.Compare(addrB)
}

func resultRows(results []probe.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		detail := r.Banner
		if r.Error != "" {
			detail = r.Error
		}
		rows = append(rows, []string{
			r.IP,
			strconv.Itoa(r.Port),
			r.Protocol.String(),
			string(r.State),
			r.Service,
			detail,
			fmt.Sprintf("%dms", r.RTTMillis),
		})
	}
	return rows
}

func init() {
	rootCmd.AddCommand(scanCmd)

	flags := scanCmd.Flags()
	flags.StringVar(&scanIPs, "ips", "", "IPv4 address, CIDR or range (required)")
	flags.StringVarP(&scanPorts, "ports", "p", "", "ports, e.g. 22,80,8000-8010")
	flags.StringVar(&scanProtocol, "protocol", "tcp", "protocol (tcp, udp)")
	flags.StringVar(&scanPreset, "preset", "", `port preset label, e.g. "Web Ports" (see "portprobe presets")`)
	flags.IntVar(&scanBatchSize, "batch-size", defaultBatchSize, "targets per engine batch")
	flags.BoolVar(&scanOpenOnly, "open-only", false, "only show open and open|filtered ports")
	flags.StringVarP(&scanOutput, "output", "o", outputTable, "Output format (table, json)")
	_ = scanCmd.MarkFlagRequired("ips")

	flags.Int("concurrency", 0, "probes in flight per batch (overrides scanning.concurrency)")
	flags.Duration("timeout", 0, "TCP connect timeout (overrides scanning.tcp_timeout)")
	flags.Float64("rate", 0, "probe starts per second (overrides scanning.rate_limit)")
	bindFlag("scanning.concurrency", flags.Lookup("concurrency"))
	bindFlag("scanning.tcp_timeout", flags.Lookup("timeout"))
	bindFlag("scanning.rate_limit", flags.Lookup("rate"))
}
