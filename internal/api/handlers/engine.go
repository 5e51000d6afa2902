package handlers

import (
	"context"

	"github.com/anstrom/portprobe/internal/probe"
	"github.com/anstrom/portprobe/internal/services"
	"github.com/anstrom/portprobe/internal/targets"
)

//go:generate mockgen -destination=mocks/mock_engine.go -package=mocks . Engine

// Engine is the scanning surface the handlers depend on. *scanner.Engine
// satisfies it.
type Engine interface {
	Expand(ipSpec, portSpec, protocol string) (*targets.Expansion, error)
	Scan(ctx context.Context, batch []targets.Target) []probe.Result
	Stream(ctx context.Context, batch []targets.Target) <-chan probe.Result
	ServiceTable() services.Table
	Presets() []services.Preset
}
