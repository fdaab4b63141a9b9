// Package compiler translates a customization node graph into a linked
// program.
//
// Compilation runs in three stages. The first pass walks the object
// hierarchy and records every surface, modifier and tag together with the
// conditions inherited from switches, groups and variations. The second pass
// resolves the final condition of every surface and modifier, including
// cycles of surfaces whose tags activate each other. Code generation then
// builds one operation DAG per state, which is linked into a program.
//
// Problems in the node graph never abort compilation: they are recorded in
// an errlog.Log and the affected value is replaced by a neutral default.
package compiler

import (
	"context"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/program"
)

var log = commonlog.GetLogger("mutable.compiler")

// CompileError reports an input that cannot be compiled at all.
type CompileError struct {
	Reason string
}

func (e *CompileError) Error() string {
	return "compile: " + e.Reason
}

// Compile builds the program for the object graph below root. The returned
// log holds the diagnostics of the compilation; a nil error does not mean
// the log is free of errors.
func Compile(ctx context.Context, root node.Node, opts Options) (*program.Program, *errlog.Log, error) {
	obj, ok := root.(node.Object)
	if !ok || root == nil {
		return nil, nil, &CompileError{Reason: "root is not an object node"}
	}
	switch n := obj.(type) {
	case *node.ObjectNew:
		if n == nil {
			return nil, nil, &CompileError{Reason: "root is nil"}
		}
	case *node.ObjectGroup:
		if n == nil {
			return nil, nil, &CompileError{Reason: "root is nil"}
		}
	}

	if err := opts.Validate(); err != nil {
		return nil, nil, fmt.Errorf("compile: invalid options: %w", err)
	}

	elog := errlog.New()
	g := newCodeGenerator(&opts, elog)

	log.Debugf("generating code for %q", node.ObjectName(obj))
	roots := g.generateRoot(obj)
	log.Debugf("generated %d states, %d operations", len(roots), op.Count(roots...))

	if opts.Optimizer != nil {
		optimized := opts.Optimizer(roots)
		if len(optimized) != len(roots) {
			return nil, elog, fmt.Errorf("compile: optimizer returned %d roots for %d states", len(optimized), len(roots))
		}
		roots = optimized
		log.Debugf("optimized to %d operations", op.Count(roots...))
	}

	params := collectParams(roots)
	linker := program.NewLinker(params)
	prog := linker.Link(roots)
	log.Debugf("linked %d operations, %d parameters", prog.OpCount(), len(prog.Params))

	for s := range g.fp.states {
		st := &g.fp.states[s]
		runtime := runtimeParams(elog, st, prog.Params)
		cache, dynamic := analyzeState(roots[s], runtime, prog.Params, linker.Address)
		prog.States = append(prog.States, program.State{
			Name:             st.Name,
			Root:             linker.Address(roots[s]),
			RuntimeParams:    runtime,
			UpdateCache:      cache,
			DynamicResources: dynamic,
		})
	}

	romOpts := program.RomOptions{
		EmbeddedLimit: opts.EmbeddedDataBytesLimit,
		Workers:       opts.workers(),
	}
	if err := program.PackageRoms(ctx, prog, romOpts); err != nil {
		return nil, elog, fmt.Errorf("compile: packaging roms: %w", err)
	}

	log.Debugf("compiled with %d errors, %d warnings", elog.Count(errlog.Error), elog.Count(errlog.Warning))
	return prog, elog, nil
}
