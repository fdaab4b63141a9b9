package compiler

import (
	"slices"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
)

// ---------------------------------------------------------------------------
// First pass: collect objects, components, surfaces, modifiers, tags, states
// ---------------------------------------------------------------------------

// stateMask selects the states a surface or modifier exists in. A nil mask
// selects every state.
type stateMask []bool

func (m stateMask) has(state int) bool {
	if m == nil {
		return true
	}
	return state < len(m) && m[state]
}

type objectEntry struct {
	Node      node.Object
	Condition op.Op
}

type componentEntry struct {
	Node            *node.ComponentNew
	ObjectCondition op.Op
	PositiveTags    []string
	NegativeTags    []string

	// ComponentCondition is set by the second pass.
	ComponentCondition op.Op
}

type surfaceEntry struct {
	Node      *node.SurfaceNew
	Component *node.ComponentNew
	LOD       int

	ObjectCondition op.Op
	StateCondition  stateMask
	PositiveTags    []string
	NegativeTags    []string

	// FinalCondition is set by the second pass.
	FinalCondition op.Op
}

type modifierEntry struct {
	Node node.Modifier

	ObjectCondition op.Op
	StateCondition  stateMask
	PositiveTags    []string
	NegativeTags    []string

	// FinalCondition is set by the second pass.
	FinalCondition op.Op
}

type tagEntry struct {
	Name      string
	Surfaces  []int
	Modifiers []int

	// GenericCondition is set by the second pass.
	GenericCondition op.Op
}

type stateEntry struct {
	Name          string
	RuntimeParams []string
	Source        *node.ObjectNew
}

// firstPass walks the object hierarchy once and records every piece of data
// that can be enabled, together with the conditions inherited from switches,
// groups and variations above it.
type firstPass struct {
	gen  *codeGenerator
	opts *Options
	log  *errlog.Log

	objects    []objectEntry
	components []componentEntry
	surfaces   []surfaceEntry
	modifiers  []modifierEntry
	tags       []tagEntry
	states     []stateEntry

	tagIndex map[string]int
	objCond  map[node.Object]op.Op

	// Walk context
	conditions      []op.Op
	stateConditions []stateMask
	positiveTags    []string
	negativeTags    []string
	component       *node.ComponentNew
	lod             int
}

func newFirstPass(gen *codeGenerator) *firstPass {
	return &firstPass{
		gen:      gen,
		opts:     gen.opts,
		log:      gen.log,
		tagIndex: make(map[string]int),
		objCond:  make(map[node.Object]op.Op),
	}
}

func (f *firstPass) currentCondition() op.Op {
	return f.conditions[len(f.conditions)-1]
}

func (f *firstPass) currentStateCondition() stateMask {
	return f.stateConditions[len(f.stateConditions)-1]
}

func (f *firstPass) pushCondition(c op.Op) {
	f.conditions = append(f.conditions, c)
}

func (f *firstPass) popCondition() {
	f.conditions = f.conditions[:len(f.conditions)-1]
}

// run walks root and builds the tag table and the state list.
func (f *firstPass) run(root node.Object) {
	f.conditions = []op.Op{op.True()}
	f.stateConditions = []stateMask{nil}

	f.object(root)

	for i, s := range f.surfaces {
		for _, t := range s.Node.Tags {
			e := f.tag(t)
			e.Surfaces = append(e.Surfaces, i)
		}
	}
	for i, m := range f.modifiers {
		for _, t := range m.Node.Base().EnableTags {
			e := f.tag(t)
			e.Modifiers = append(e.Modifiers, i)
		}
	}

	if f.opts.IgnoreStates {
		f.states = nil
		for i := range f.surfaces {
			f.surfaces[i].StateCondition = nil
		}
		for i := range f.modifiers {
			f.modifiers[i].StateCondition = nil
		}
	}
	if len(f.states) == 0 {
		f.states = append(f.states, stateEntry{Name: "Default"})
	}
}

// tag returns the entry for name, creating it if needed.
func (f *firstPass) tag(name string) *tagEntry {
	i, ok := f.tagIndex[name]
	if !ok {
		i = len(f.tags)
		f.tags = append(f.tags, tagEntry{Name: name})
		f.tagIndex[name] = i
	}
	return &f.tags[i]
}

// findTag returns the entry for name or nil if no data activates it.
func (f *firstPass) findTag(name string) *tagEntry {
	if i, ok := f.tagIndex[name]; ok {
		return &f.tags[i]
	}
	return nil
}

func (f *firstPass) findState(name string) int {
	for i, s := range f.states {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

func (f *firstPass) object(o node.Object) {
	switch n := o.(type) {
	case nil:
	case *node.ObjectNew:
		f.objectNew(n)
	case *node.ObjectGroup:
		f.objectGroup(n)
	default:
		panic("compiler: unexpected object node " + o.Kind().String())
	}
}

func (f *firstPass) objectNew(n *node.ObjectNew) {
	cond := f.currentCondition()
	f.objects = append(f.objects, objectEntry{Node: n, Condition: cond})
	f.objCond[n] = cond

	for _, s := range n.States {
		if f.findState(s.Name) >= 0 {
			continue
		}
		if f.opts.MaxRuntimeParameters > 0 && len(s.RuntimeParams) > f.opts.MaxRuntimeParameters {
			f.log.Warnf(n, "State [%s] has more than %d runtime parameters. Their update may fail.",
				s.Name, f.opts.MaxRuntimeParameters)
		}
		f.states = append(f.states, stateEntry{
			Name:          s.Name,
			RuntimeParams: slices.Clone(s.RuntimeParams),
			Source:        n,
		})
	}

	for _, c := range n.Components {
		f.componentNode(c)
	}
	for _, m := range n.Modifiers {
		f.modifier(m)
	}
	for _, c := range n.Children {
		f.object(c)
	}
}

func (f *firstPass) objectGroup(n *node.ObjectGroup) {
	cond := f.currentCondition()
	f.objects = append(f.objects, objectEntry{Node: n, Condition: cond})
	f.objCond[n] = cond

	var enumParam *op.Parameter
	if n.Type == node.GroupAlwaysOne || n.Type == node.GroupOneOrNone {
		desc := &op.ParamDesc{
			Name:       n.Name,
			UID:        n.UID,
			Type:       op.ParamInt,
			DefaultInt: n.DefaultValue,
		}
		if n.Type == node.GroupOneOrNone {
			desc.Options = append(desc.Options, op.IntOption{Value: -1, Name: "None"})
		}
		for t, c := range n.Children {
			desc.Options = append(desc.Options, op.IntOption{Value: int32(t), Name: node.ObjectName(c)})
		}
		enumParam = op.NewParameter(desc)
		f.gen.paramNodes[n] = enumParam
	}

	for t, child := range n.Children {
		var childCond op.Op
		switch n.Type {
		case node.GroupAlwaysOne, node.GroupOneOrNone:
			childCond = &op.EqualIntConst{Value: enumParam, Constant: int32(t)}
		case node.GroupToggleEach:
			if _, isGroup := child.(*node.ObjectGroup); isGroup {
				f.log.Errorf(n, "The Group Node [%s] has type Toggle and its direct child is a Group node, which is not allowed. Change the type or add a Child Object node in between them.", n.Name)
				childCond = op.True()
				break
			}
			p, ok := f.gen.paramNodes[child]
			if !ok {
				p = op.NewParameter(&op.ParamDesc{
					Name: node.ObjectName(child),
					UID:  node.ObjectUID(child),
					Type: op.ParamBool,
				})
				f.gen.paramNodes[child] = p
			}
			childCond = p
		default:
			childCond = op.True()
		}

		f.pushCondition(op.And(f.currentCondition(), childCond))
		f.object(child)
		f.popCondition()
	}
}

// ---------------------------------------------------------------------------
// Components
// ---------------------------------------------------------------------------

func (f *firstPass) componentNode(c node.Component) {
	switch n := c.(type) {
	case nil:
	case *node.ComponentNew:
		f.components = append(f.components, componentEntry{
			Node:            n,
			ObjectCondition: f.currentCondition(),
			PositiveTags:    slices.Clone(f.positiveTags),
			NegativeTags:    slices.Clone(f.negativeTags),
		})
		f.lods(n, n.LODs)

	case *node.ComponentEdit:
		if n.Parent == nil {
			f.log.Errorf(n, "Component edit has no parent component.")
			return
		}
		f.lods(n.Parent, n.LODs)

	case *node.ComponentSwitch:
		f.switchOptions(n, n.Parameter, len(n.Options), func(i int) {
			f.componentNode(n.Options[i])
		})

	case *node.ComponentVariation:
		tags := make([]string, len(n.Variations))
		for i, v := range n.Variations {
			tags[i] = v.Tag
		}
		f.tagVariation(tags, func() {
			f.componentNode(n.Default)
		}, func(i int) {
			f.componentNode(n.Variations[i].Node)
		})

	default:
		panic("compiler: unexpected component node " + c.Kind().String())
	}
}

func (f *firstPass) lods(comp *node.ComponentNew, lods []*node.LOD) {
	prevComp, prevLOD := f.component, f.lod
	f.component = comp
	for i, l := range lods {
		if l == nil {
			continue
		}
		f.lod = i
		for _, s := range l.Surfaces {
			f.surface(s)
		}
	}
	f.component, f.lod = prevComp, prevLOD
}

// ---------------------------------------------------------------------------
// Surfaces and modifiers
// ---------------------------------------------------------------------------

func (f *firstPass) surface(s node.Surface) {
	switch n := s.(type) {
	case nil:
	case *node.SurfaceNew:
		f.surfaces = append(f.surfaces, surfaceEntry{
			Node:            n,
			Component:       f.component,
			LOD:             f.lod,
			ObjectCondition: f.currentCondition(),
			StateCondition:  f.currentStateCondition(),
			PositiveTags:    slices.Clone(f.positiveTags),
			NegativeTags:    slices.Clone(f.negativeTags),
		})

	case *node.SurfaceSwitch:
		f.switchOptions(n, n.Parameter, len(n.Options), func(i int) {
			f.surface(n.Options[i])
		})

	case *node.SurfaceVariation:
		switch n.Type {
		case node.VariationTag:
			tags := make([]string, len(n.Variations))
			for i, v := range n.Variations {
				tags[i] = v.Tag
			}
			f.tagVariation(tags, func() {
				f.surfaceList(n.Defaults, n.DefaultModifiers)
			}, func(i int) {
				f.surfaceList(n.Variations[i].Surfaces, n.Variations[i].Modifiers)
			})

		case node.VariationState:
			f.stateVariation(n)
		}

	default:
		panic("compiler: unexpected surface node " + s.Kind().String())
	}
}

func (f *firstPass) surfaceList(surfaces []node.Surface, modifiers []node.Modifier) {
	for _, s := range surfaces {
		f.surface(s)
	}
	for _, m := range modifiers {
		f.modifier(m)
	}
}

func (f *firstPass) stateVariation(n *node.SurfaceVariation) {
	count := len(f.states)

	// The default branch is enabled in every state not named by a variation.
	def := make(stateMask, count)
	if cur := f.currentStateCondition(); cur != nil {
		copy(def, cur)
	} else {
		for i := range def {
			def[i] = true
		}
	}
	for _, v := range n.Variations {
		if s := f.findState(v.Tag); s >= 0 {
			def[s] = false
		}
	}
	f.stateConditions = append(f.stateConditions, def)
	f.surfaceList(n.Defaults, n.DefaultModifiers)
	f.stateConditions = f.stateConditions[:len(f.stateConditions)-1]

	for _, v := range n.Variations {
		mask := make(stateMask, count)
		if s := f.findState(v.Tag); s >= 0 {
			mask[s] = true
		} else {
			f.log.Warnf(n, "Unknown state found in surface variation [%s].", v.Tag)
		}
		f.stateConditions = append(f.stateConditions, mask)
		f.surfaceList(v.Surfaces, v.Modifiers)
		f.stateConditions = f.stateConditions[:len(f.stateConditions)-1]
	}
}

func (f *firstPass) modifier(m node.Modifier) {
	if m == nil {
		return
	}
	f.modifiers = append(f.modifiers, modifierEntry{
		Node:            m,
		ObjectCondition: f.currentCondition(),
		StateCondition:  f.currentStateCondition(),
		PositiveTags:    slices.Clone(f.positiveTags),
		NegativeTags:    slices.Clone(f.negativeTags),
	})
}

// ---------------------------------------------------------------------------
// Shared branch helpers
// ---------------------------------------------------------------------------

// switchOptions walks the options of a switch node, each gated on the switch
// parameter being equal to its index.
func (f *firstPass) switchOptions(ctx node.Node, param node.Scalar, count int, walk func(int)) {
	if count == 0 {
		return
	}
	var variable op.Op
	if param != nil {
		variable = f.gen.generateScalar(genOptions{}, param)
	} else {
		variable = f.gen.missingScalar(ctx, "Switch variable", 0)
	}
	for t := 0; t < count; t++ {
		cond := op.And(f.currentCondition(), op.EqualInt(variable, int32(t)))
		f.pushCondition(cond)
		walk(t)
		f.popCondition()
	}
}

// tagVariation walks the default branch with every variation tag negative,
// then each variation with its own tag positive and the tags of the
// variations before it negative.
func (f *firstPass) tagVariation(tags []string, walkDefault func(), walkVariation func(int)) {
	savedPos, savedNeg := len(f.positiveTags), len(f.negativeTags)

	f.negativeTags = append(f.negativeTags, tags...)
	walkDefault()
	f.negativeTags = f.negativeTags[:savedNeg]

	for i, t := range tags {
		f.positiveTags = append(f.positiveTags, t)
		walkVariation(i)
		f.positiveTags = f.positiveTags[:savedPos]
		f.negativeTags = append(f.negativeTags, t)
	}
	f.negativeTags = f.negativeTags[:savedNeg]
}
