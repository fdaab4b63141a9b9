package compiler

import (
	"fmt"
	"strings"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Code generator: translate the node graph into operations
// ---------------------------------------------------------------------------

// genOptions is the context shared by the generators of plain values.
type genOptions struct {
	State      int
	ActiveTags []string
}

// genKey identifies a cached value operation.
type genKey struct {
	n     node.Node
	state int
	tags  string
}

func tagsKey(tags []string) string {
	return strings.Join(tags, "\x00")
}

func (o genOptions) key(n node.Node) genKey {
	return genKey{n: n, state: o.State, tags: tagsKey(o.ActiveTags)}
}

type componentKey struct {
	n     node.Component
	state int
	base  op.Op
}

// codeGenerator holds the caches and the walk context of one compilation.
// It is not safe for concurrent use.
type codeGenerator struct {
	opts *Options
	log  *errlog.Log
	fp   *firstPass

	// paramNodes maps parameter nodes, groups and toggled objects to the
	// parameter operation created for them.
	paramNodes map[node.Node]*op.Parameter

	// Walk context
	state               int
	lod                 int
	modifiersInProgress []node.Modifier

	// Caches
	scalars    map[genKey]op.Op
	colors     map[genKey]op.Op
	bools      map[genKey]op.Op
	strings    map[genKey]op.Op
	matrices   map[genKey]op.Op
	projectors map[genKey]op.Op
	extensions map[genKey]op.Op
	ranges     map[genKey]op.Op
	images     map[imageKey]op.Op
	meshes     map[meshKey]meshResult
	layouts    map[layoutKey]*resource.Layout
	tableVars  map[tableVarKey]op.Op
	components map[componentKey]op.Op
	surfaces   map[surfaceKey]surfaceResult
	shared     map[sharedKey]*sharedSurface

	constantMeshes map[[2]int][]*constantMeshEntry
	meshPrefixes   map[uint32]bool
}

func newCodeGenerator(opts *Options, log *errlog.Log) *codeGenerator {
	g := &codeGenerator{
		opts:           opts,
		log:            log,
		paramNodes:     make(map[node.Node]*op.Parameter),
		scalars:        make(map[genKey]op.Op),
		colors:         make(map[genKey]op.Op),
		bools:          make(map[genKey]op.Op),
		strings:        make(map[genKey]op.Op),
		matrices:       make(map[genKey]op.Op),
		projectors:     make(map[genKey]op.Op),
		extensions:     make(map[genKey]op.Op),
		ranges:         make(map[genKey]op.Op),
		images:         make(map[imageKey]op.Op),
		meshes:         make(map[meshKey]meshResult),
		layouts:        make(map[layoutKey]*resource.Layout),
		tableVars:      make(map[tableVarKey]op.Op),
		components:     make(map[componentKey]op.Op),
		surfaces:       make(map[surfaceKey]surfaceResult),
		shared:         make(map[sharedKey]*sharedSurface),
		constantMeshes: make(map[[2]int][]*constantMeshEntry),
		meshPrefixes:   make(map[uint32]bool),
	}
	g.fp = newFirstPass(g)
	return g
}

// generateRoot runs both passes and returns one root operation per state.
func (g *codeGenerator) generateRoot(root node.Object) []op.Op {
	g.fp.run(root)
	newSecondPass(g.fp, g.log, g.opts.VacuousTagPolicy).run()

	roots := make([]op.Op, len(g.fp.states))
	for s := range g.fp.states {
		g.state = s
		head, _ := g.generateObject(root)
		roots[s] = head
	}
	return roots
}

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

// generateObject returns the instance operations added by o. They are chained
// on top of the returned placeholder, which the caller resolves to the
// instance built so far. A nil head means o adds nothing.
func (g *codeGenerator) generateObject(o node.Object) (op.Op, *op.Placeholder) {
	hole := &op.Placeholder{Code: op.InstanceAddComponent}
	var last op.Op = hole

	switch n := o.(type) {
	case nil:
		return nil, nil

	case *node.ObjectNew:
		for _, c := range n.Components {
			last = g.generateComponent(c, last)
		}
		for _, child := range n.Children {
			last = g.attachChild(child, last)
		}
		cond := g.objectCondition(n)
		for _, slot := range n.ExtensionData {
			data := g.generateExtensionData(genOptions{State: g.state}, slot.Value)
			if data == nil {
				continue
			}
			add := &op.InstanceAdd{
				Code:     op.InstanceAddExtensionData,
				Instance: last,
				Value:    data,
				Name:     slot.Name,
			}
			last = op.NewConditional(op.CatInstance, cond, add, last)
		}

	case *node.ObjectGroup:
		names := make(map[string]bool)
		for _, child := range n.Children {
			name := node.ObjectName(child)
			if names[name] {
				g.log.Warnf(n, "Object group has more than one children with the same name [%s].", name)
			}
			names[name] = true
			last = g.attachChild(child, last)
		}

	default:
		panic("compiler: unexpected object node " + o.Kind().String())
	}

	if last == hole {
		return nil, nil
	}
	return last, hole
}

func (g *codeGenerator) objectCondition(o node.Object) op.Op {
	if c, ok := g.fp.objCond[o]; ok {
		return c
	}
	return op.True()
}

// attachChild appends the instance operations of child on top of last,
// enabled by the condition of child.
func (g *codeGenerator) attachChild(child node.Object, last op.Op) op.Op {
	head, hole := g.generateObject(child)
	if head == nil {
		return last
	}
	hole.Resolve(last)
	return op.NewConditional(op.CatInstance, g.objectCondition(child), head, last)
}

// ---------------------------------------------------------------------------
// Components
// ---------------------------------------------------------------------------

func (g *codeGenerator) componentEntry(n *node.ComponentNew) *componentEntry {
	for i := range g.fp.components {
		if g.fp.components[i].Node == n {
			return &g.fp.components[i]
		}
	}
	return nil
}

// generateComponent adds component c on top of base.
func (g *codeGenerator) generateComponent(c node.Component, base op.Op) op.Op {
	if c == nil {
		return base
	}
	key := componentKey{n: c, state: g.state, base: base}
	if r, ok := g.components[key]; ok {
		return r
	}

	var result op.Op
	switch n := c.(type) {
	case *node.ComponentNew:
		lods := &op.AddLOD{}
		for i := range n.LODs {
			lods.LODs = append(lods.LODs, g.generateLOD(n, i))
		}
		add := &op.InstanceAdd{
			Code:     op.InstanceAddComponent,
			Instance: base,
			Value:    lods,
			ID:       uint32(n.ID),
			Name:     n.Name,
		}
		cond := op.Op(op.True())
		if e := g.componentEntry(n); e != nil && e.ComponentCondition != nil {
			cond = e.ComponentCondition
		}
		result = op.NewConditional(op.CatInstance, cond, add, base)

	case *node.ComponentEdit:
		// Edited surfaces are generated with the LODs of the parent.
		result = base

	case *node.ComponentSwitch:
		if len(n.Options) == 0 {
			result = base
			break
		}
		sw := op.NewSwitch(op.CatInstance, g.switchVariable(n, n.Parameter))
		sw.Default = base
		for i, o := range n.Options {
			sw.Cases = append(sw.Cases, op.Case{Value: int32(i), Branch: g.generateComponent(o, base)})
		}
		result = sw

	case *node.ComponentVariation:
		current := g.generateComponent(n.Default, base)
		for i := len(n.Variations) - 1; i >= 0; i-- {
			v := n.Variations[i]
			tag := g.fp.findTag(v.Tag)
			if tag == nil {
				g.unknownTag(n, "component", v.Tag)
				continue
			}
			current = op.NewConditional(op.CatInstance, tag.GenericCondition,
				g.generateComponent(v.Node, base), current)
		}
		result = current

	default:
		panic("compiler: unexpected component node " + c.Kind().String())
	}

	g.components[key] = result
	return result
}

// generateLOD builds the instance operations of one LOD of comp from the
// surfaces collected by the first pass.
func (g *codeGenerator) generateLOD(comp *node.ComponentNew, lod int) op.Op {
	prevLOD := g.lod
	g.lod = lod
	defer func() { g.lod = prevLOD }()

	var lastInstance, lastMesh op.Op
	for i := range g.fp.surfaces {
		s := &g.fp.surfaces[i]
		if s.Component != comp || s.LOD != lod {
			continue
		}
		if op.IsFalse(s.FinalCondition) || !s.StateCondition.has(g.state) {
			continue
		}

		id := uint32(i + 1)
		r := g.generateSurface(i, int32(comp.ID))

		add := &op.InstanceAdd{
			Code:            op.InstanceAddSurface,
			Instance:        lastInstance,
			Value:           r.SurfaceOp,
			ID:              id,
			ExternalID:      s.Node.ExternalID,
			SharedSurfaceID: s.Node.SharedSurfaceID,
			Name:            s.Node.Name,
		}
		lastInstance = op.NewConditional(op.CatInstance, s.FinalCondition, add, lastInstance)

		if r.MeshOp != nil {
			merge := &op.MeshMergeOp{Base: lastMesh, Added: r.MeshOp, NewSurfaceID: id}
			lastMesh = op.NewConditional(op.CatMesh, s.FinalCondition, merge, lastMesh)
		}
	}

	if lastMesh != nil {
		lastMesh = op.NewFixed(op.MeshOptimizeSkinning, lastMesh)
		lastInstance = &op.InstanceAdd{Code: op.InstanceAddMesh, Instance: lastInstance, Value: lastMesh}
	}
	return lastInstance
}

// ---------------------------------------------------------------------------
// Modifier selection
// ---------------------------------------------------------------------------

// modifiersFor returns the indices of the modifiers that apply to data of
// component compID with the given active tags.
func (g *codeGenerator) modifiersFor(compID int32, tags []string, before bool) []int {
	if len(tags) == 0 {
		return nil
	}
	var out []int
	seen := make(map[node.Modifier]bool)
	for i := range g.fp.modifiers {
		m := &g.fp.modifiers[i]
		b := m.Node.Base()
		if b.ApplyBeforeNormalOperations != before {
			continue
		}
		if b.RequiredComponentID >= 0 && b.RequiredComponentID != compID {
			continue
		}
		if seen[m.Node] || !m.StateCondition.has(g.state) {
			continue
		}
		if !tagsMatch(b.RequiredTags, tags, b.Policy) {
			continue
		}
		seen[m.Node] = true
		out = append(out, i)
	}
	return out
}

func tagsMatch(required, active []string, policy node.TagsPolicy) bool {
	if len(required) == 0 {
		return false
	}
	has := func(t string) bool {
		for _, a := range active {
			if a == t {
				return true
			}
		}
		return false
	}
	switch policy {
	case node.AllRequired:
		for _, r := range required {
			if !has(r) {
				return false
			}
		}
		return true
	default:
		for _, r := range required {
			if has(r) {
				return true
			}
		}
		return false
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func (g *codeGenerator) unknownTag(ctx node.Node, what, tag string) {
	g.log.Add(errlog.Message{
		Severity: errlog.Warning,
		Text:     fmt.Sprintf("Unknown tag found in %s variation [%s].", what, tag),
		Context:  ctx,
		Bin:      errlog.SpamUnknownTag,
	})
}

// switchVariable returns the operation selecting a switch branch.
func (g *codeGenerator) switchVariable(ctx node.Node, param node.Scalar) op.Op {
	if param == nil {
		return g.missingScalar(ctx, "Switch variable", 0)
	}
	return g.generateScalar(genOptions{State: g.state}, param)
}

func (g *codeGenerator) missingConnection(ctx node.Node, what string) {
	g.log.Errorf(ctx, "Required connection not found: %s", what)
}
