package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anstrom/portprobe/internal/api"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/metrics"
	"github.com/anstrom/portprobe/internal/scanner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the portprobe HTTP API server in the foreground.

The server exposes target expansion, batch and streaming scans, the service
table and presets under /api/v1, plus Prometheus metrics when enabled.
It shuts down gracefully on SIGINT or SIGTERM.`,
	Example: `  portprobe serve
  portprobe serve --host 0.0.0.0 --port 9090
  PORTPROBE_API_AUTH_ENABLED=true portprobe serve --config portprobe.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.Default().WithComponent("serve")

	var pm *metrics.PrometheusMetrics
	var rec metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		pm = metrics.GetGlobalMetrics()
		rec = pm
	}

	engine := scanner.NewEngine(cfg.EngineConfig(), rec, logging.Default())

	server, err := api.New(cfg, engine, pm, version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("portprobe API server starting",
		"address", server.GetAddress(),
		"version", version,
		"concurrency", cfg.Scanning.Concurrency)

	return server.Start(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "listen address (overrides api.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
	bindFlag("api.host", serveCmd.Flags().Lookup("host"))
	bindFlag("api.port", serveCmd.Flags().Lookup("port"))
}

// contextOrBackground guards commands executed without a context.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
