package bundle

import (
	"math"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerweave/pkg/errors"
)

// ElectroMode selects how the attraction term of the force rule is computed.
type ElectroMode string

const (
	// ElectroSameIndex attracts waypoint k of one edge only to waypoint k
	// of the other.
	ElectroSameIndex ElectroMode = "same-index"

	// ElectroLegacySum sums the attraction over every waypoint index of the
	// pair and applies that total at each index. It reproduces older output
	// exactly.
	ElectroLegacySum ElectroMode = "legacy-sum"
)

// Default bundling parameters.
const (
	DefaultMaxLoops        = 6
	DefaultStiffness       = 0.5
	DefaultStepSize        = 0.04
	DefaultCompatThreshold = 0.05
)

// MaxLoopsLimit bounds MaxLoops. Each cycle doubles the waypoint count, so
// a path carries 2^MaxLoops+1 points at the end.
const MaxLoopsLimit = 16

// Options configures a Bundler.
type Options struct {
	// MaxLoops is the number of subdivide-and-relax cycles. Zero only
	// resets paths to straight segments.
	MaxLoops int `json:"max_loops" toml:"max_loops"`

	// Stiffness is the global spring constant k. Larger values resist
	// bundling.
	Stiffness float64 `json:"stiffness" toml:"stiffness"`

	// StepSize is the initial step s0. Cycle c moves waypoints by at most
	// s0/2^c times the force.
	StepSize float64 `json:"step_size" toml:"step_size"`

	// CompatThreshold gates attraction: only pairs whose compatibility is
	// strictly greater interact. Values above 1 disable all forces.
	CompatThreshold float64 `json:"compat_threshold" toml:"compat_threshold"`

	Electro ElectroMode `json:"electro" toml:"electro"`

	// MaxEdges rejects candidate sets larger than this. Zero is unbounded.
	MaxEdges int `json:"max_edges" toml:"max_edges"`

	// Workers bounds the goroutines computing compatibilities. Zero uses
	// GOMAXPROCS.
	Workers int `json:"workers" toml:"workers"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// DefaultOptions returns the standard bundling parameters.
func DefaultOptions() Options {
	return Options{
		MaxLoops:        DefaultMaxLoops,
		Stiffness:       DefaultStiffness,
		StepSize:        DefaultStepSize,
		CompatThreshold: DefaultCompatThreshold,
		Electro:         ElectroSameIndex,
	}
}

// Validate checks the options and reports every rejected field at once.
func (o Options) Validate() error {
	var v errors.ValidationError
	if o.MaxLoops < 0 || o.MaxLoops > MaxLoopsLimit {
		v.Add("max_loops", "must be in [0, %d], got %d", MaxLoopsLimit, o.MaxLoops)
	}
	if !(o.Stiffness > 0) || math.IsInf(o.Stiffness, 0) {
		v.Add("stiffness", "must be a positive number, got %v", o.Stiffness)
	}
	if !(o.StepSize > 0) || math.IsInf(o.StepSize, 0) {
		v.Add("step_size", "must be a positive number, got %v", o.StepSize)
	}
	if !(o.CompatThreshold >= 0) {
		v.Add("compat_threshold", "must be >= 0, got %v", o.CompatThreshold)
	}
	switch o.Electro {
	case "", ElectroSameIndex, ElectroLegacySum:
	default:
		v.Add("electro", "must be %q or %q, got %q", ElectroSameIndex, ElectroLegacySum, o.Electro)
	}
	if o.MaxEdges < 0 {
		v.Add("max_edges", "must be >= 0, got %d", o.MaxEdges)
	}
	if o.Workers < 0 {
		v.Add("workers", "must be >= 0, got %d", o.Workers)
	}
	return v.Err("bundle options")
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) electro() ElectroMode {
	if o.Electro == "" {
		return ElectroSameIndex
	}
	return o.Electro
}
