package compiler

import (
	"cmp"
	"slices"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/program"
)

// ---------------------------------------------------------------------------
// Program parameters and per-state runtime analysis
// ---------------------------------------------------------------------------

// collectParams returns the parameters read by roots sorted by name and uid.
func collectParams(roots []op.Op) []*op.ParamDesc {
	seen := make(map[*op.ParamDesc]bool)
	var params []*op.ParamDesc
	op.Walk(roots, func(o op.Op) bool {
		if p, ok := o.(*op.Parameter); ok && p.Desc != nil && !seen[p.Desc] {
			seen[p.Desc] = true
			params = append(params, p.Desc)
		}
		return true
	})
	slices.SortStableFunc(params, func(a, b *op.ParamDesc) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.UID, b.UID)
	})
	return params
}

// isResource reports whether values of category c are worth caching or
// tracking between runtime updates.
func isResource(c op.Category) bool {
	return c == op.CatImage || c == op.CatMesh || c == op.CatInstance
}

// runtimeParams resolves the runtime parameter names of st against the
// program parameters.
func runtimeParams(elog *errlog.Log, st *stateEntry, params []*op.ParamDesc) []int {
	var ctx any
	if st.Source != nil {
		ctx = st.Source
	}
	var indices []int
	for _, name := range st.RuntimeParams {
		i := slices.IndexFunc(params, func(p *op.ParamDesc) bool { return p.Name == name })
		if i < 0 {
			elog.Warnf(ctx, "The state [%s] refers to a parameter [%s] that has not been found in the model. "+
				"This warning can be safely dismissed in case of partial compilation.", st.Name, name)
			continue
		}
		if len(indices) == MaxStateRuntimeParams {
			elog.Warnf(ctx, "The state [%s] tracks at most %d runtime parameters. Parameter [%s] is ignored.",
				st.Name, MaxStateRuntimeParams, name)
			continue
		}
		indices = append(indices, i)
	}
	return indices
}

// analyzeState computes the update cache and the dynamic resources of one
// state. runtime indexes params; bit i of a mask stands for runtime[i].
func analyzeState(root op.Op, runtime []int, params []*op.ParamDesc, addr func(op.Op) uint32) (cache []uint32, dynamic []program.DynamicResource) {
	bit := make(map[*op.ParamDesc]uint64)
	for i, pi := range runtime[:min(len(runtime), MaxStateRuntimeParams)] {
		bit[params[pi]] |= 1 << i
	}

	masks := make(map[op.Op]uint64)
	var maskOf func(o op.Op) uint64
	maskOf = func(o op.Op) uint64 {
		if m, ok := masks[o]; ok {
			return m
		}
		var m uint64
		if p, ok := o.(*op.Parameter); ok {
			m = bit[p.Desc]
		}
		for _, c := range o.Children() {
			if c = op.Deref(c); c != nil {
				m |= maskOf(c)
			}
		}
		masks[o] = m
		return m
	}

	var order []op.Op
	op.Walk([]op.Op{root}, func(o op.Op) bool {
		maskOf(o)
		order = append(order, o)
		return true
	})

	cached := make(map[op.Op]bool)
	for _, o := range order {
		m := masks[o]
		if m == 0 || !isResource(o.Type().Category()) {
			continue
		}
		dynamic = append(dynamic, program.DynamicResource{Address: addr(o), Mask: m})
		// Constant resources below a dynamic one are kept between updates.
		for _, c := range o.Children() {
			c = op.Deref(c)
			if c == nil || cached[c] || masks[c] != 0 || !isResource(c.Type().Category()) {
				continue
			}
			cached[c] = true
			cache = append(cache, addr(c))
		}
	}

	slices.Sort(cache)
	slices.SortFunc(dynamic, func(a, b program.DynamicResource) int {
		return cmp.Compare(a.Address, b.Address)
	})
	return cache, dynamic
}
