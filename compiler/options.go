package compiler

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/op"
)

// TagPolicy decides what a tag condition means when every participant that
// could activate the tag is already being resolved further up the call
// chain.
type TagPolicy uint8

const (
	// AbsentTagFalse treats such a tag as inactive. Cycles of surfaces that
	// only activate each other resolve to false.
	AbsentTagFalse TagPolicy = iota
	// AbsentTagTrue treats such a tag as active. Cycles of surfaces that
	// only activate each other resolve to the conjunction of their object
	// conditions.
	AbsentTagTrue
)

func (p TagPolicy) String() string {
	if p == AbsentTagTrue {
		return "true"
	}
	return "false"
}

// Optimizer rewrites the per-state roots of a generated program. It must not
// mutate shared operations in place.
type Optimizer func(roots []op.Op) []op.Op

// Options control compilation.
type Options struct {
	// IgnoreStates compiles a single "Default" state regardless of the states
	// declared by objects.
	IgnoreStates bool

	// ImageTiling is the tile size in pixels used to split large block
	// images. Zero disables tiling.
	ImageTiling uint16

	// EmbeddedDataBytesLimit is the largest constant kept inside the program.
	// Bigger constants are packaged as roms.
	EmbeddedDataBytesLimit uint64

	// MaxRuntimeParameters is the number of runtime parameters a state can
	// declare before a warning is issued. It cannot exceed
	// MaxStateRuntimeParams.
	MaxRuntimeParameters int

	// ClampUVIslands assigns all the vertices of a UV island to the layout
	// block holding most of them.
	ClampUVIslands bool

	// NormalizeUVs wraps texture coordinates into [0,1) before block
	// assignment.
	NormalizeUVs bool

	// EnsureAllVerticesHaveLayoutBlock assigns vertices outside every block
	// to the first block instead of leaving them unassigned.
	EnsureAllVerticesHaveLayoutBlock bool

	// Workers bounds the parallelism of rom packaging. Zero uses GOMAXPROCS.
	Workers int

	// VacuousTagPolicy resolves tag cycles. See TagPolicy.
	VacuousTagPolicy TagPolicy

	// MaxPerSpamBin limits the messages emitted per spam bin.
	MaxPerSpamBin int

	// Optimizer, when set, runs between code generation and linking.
	Optimizer Optimizer
}

// MaxStateRuntimeParams is the number of runtime parameters a state can
// track. Each one owns a bit of the dynamic resource masks.
const MaxStateRuntimeParams = 64

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		EmbeddedDataBytesLimit:           1024,
		MaxRuntimeParameters:             64,
		EnsureAllVerticesHaveLayoutBlock: true,
		Workers:                          runtime.GOMAXPROCS(0),
		VacuousTagPolicy:                 AbsentTagFalse,
		MaxPerSpamBin:                    errlog.DefaultMaxPerSpamBin,
	}
}

// Validate reports the options Compile cannot honour.
func (o *Options) Validate() error {
	var errs []error
	if o.MaxRuntimeParameters < 0 || o.MaxRuntimeParameters > MaxStateRuntimeParams {
		errs = append(errs, fmt.Errorf("MaxRuntimeParameters must be between 0 and %d, got %d",
			MaxStateRuntimeParams, o.MaxRuntimeParameters))
	}
	if o.Workers < 0 {
		errs = append(errs, fmt.Errorf("Workers must not be negative, got %d", o.Workers))
	}
	return errors.Join(errs...)
}

func (o *Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}
