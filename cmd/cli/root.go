// Package cli provides command-line interface commands for portprobe.
// This package implements the Cobra-based CLI structure with commands for
// expanding targets, scanning, serving the API, and inspecting the catalogues.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anstrom/portprobe/internal/config"
	"github.com/anstrom/portprobe/internal/logging"
)

const envPrefix = "PORTPROBE"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// overridable lists the configuration keys that flags and PORTPROBE_*
// environment variables may set, e.g. PORTPROBE_SCANNING_CONCURRENCY.
var overridable = []string{
	"scanning.concurrency",
	"scanning.tcp_timeout",
	"scanning.banner_timeout",
	"scanning.udp_timeout",
	"scanning.max_hosts",
	"scanning.max_ports",
	"scanning.rate_limit",
	"api.host",
	"api.port",
	"api.max_batch_size",
	"api.auth.enabled",
	"api.rate_limit.enabled",
	"metrics.enabled",
	"metrics.path",
	"logging.level",
	"logging.format",
	"logging.output",
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "portprobe",
	Short: "Concurrent TCP/UDP port scanner",
	Long: `portprobe expands IPv4 ranges and port lists into targets and probes them
concurrently over TCP and UDP, reporting open, closed, filtered and
open|filtered ports with a best-effort service banner.

It runs as a one-shot CLI scanner or as an HTTP API server.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: text, json")

	bindFlag("logging.level", flags.Lookup("log-level"))
	bindFlag("logging.format", flags.Lookup("log-format"))
}

// initConfig wires environment variables and initializes logging.
func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range overridable {
		if err := viper.BindEnv(key); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s: %v\n", key, err)
		}
	}

	initLogging()
}

// loadConfig reads the config file, if any, and overlays flags and
// environment variables before validating the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	applyOverrides(cfg, viper.GetViper())
	if verbose {
		cfg.Logging.Level = logging.LevelDebug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, v *viper.Viper) {
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	setString := func(key string, dst *string) {
		if v.IsSet(key) && v.GetString(key) != "" {
			*dst = v.GetString(key)
		}
	}

	setInt("scanning.concurrency", &cfg.Scanning.Concurrency)
	setDuration("scanning.tcp_timeout", &cfg.Scanning.TCPTimeout)
	setDuration("scanning.banner_timeout", &cfg.Scanning.BannerTimeout)
	setDuration("scanning.udp_timeout", &cfg.Scanning.UDPTimeout)
	setInt("scanning.max_hosts", &cfg.Scanning.MaxHosts)
	setInt("scanning.max_ports", &cfg.Scanning.MaxPorts)
	if v.IsSet("scanning.rate_limit") {
		cfg.Scanning.RateLimit = v.GetFloat64("scanning.rate_limit")
	}

	setString("api.host", &cfg.API.Host)
	setInt("api.port", &cfg.API.Port)
	setInt("api.max_batch_size", &cfg.API.MaxBatchSize)
	setBool("api.auth.enabled", &cfg.API.Auth.Enabled)
	setBool("api.rate_limit.enabled", &cfg.API.RateLimit.Enabled)

	setBool("metrics.enabled", &cfg.Metrics.Enabled)
	setString("metrics.path", &cfg.Metrics.Path)

	level := string(cfg.Logging.Level)
	setString("logging.level", &level)
	cfg.Logging.Level = logging.LogLevel(level)

	format := string(cfg.Logging.Format)
	setString("logging.format", &format)
	cfg.Logging.Format = logging.LogFormat(format)

	setString("logging.output", &cfg.Logging.Output)
}

// bindFlag binds a flag to a configuration key. viper only reports the key as
// set when the flag was given on the command line.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", flag.Name, err)
	}
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	cfg, err := loadConfig()
	if err != nil {
		// Commands report the error themselves; log with defaults meanwhile.
		logging.SetDefault(logging.NewDefault())
		return
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)

	if verbose {
		logging.Debug("Structured logging initialized",
			"level", cfg.Logging.Level,
			"format", cfg.Logging.Format)
	}
}
