// Command portprobe is a concurrent TCP/UDP port scanner with an HTTP API.
package main

import "github.com/anstrom/portprobe/cmd/cli"

// Build information, set via -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
