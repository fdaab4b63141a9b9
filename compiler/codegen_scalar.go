package compiler

import (
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
)

// ---------------------------------------------------------------------------
// Parameters and ranges
// ---------------------------------------------------------------------------

// parameter returns the single parameter operation of node n, creating it
// with desc on first use.
func (g *codeGenerator) parameter(o genOptions, n node.Node, desc *op.ParamDesc, ranges []node.Range) *op.Parameter {
	if p, ok := g.paramNodes[n]; ok {
		return p
	}
	var rangeOps []op.Op
	for _, r := range ranges {
		rn, ok := r.(*node.RangeFromScalar)
		if !ok || rn == nil {
			continue
		}
		desc.Ranges = append(desc.Ranges, rn.Name)
		rangeOps = append(rangeOps, g.generateRange(o, rn))
	}
	p := op.NewParameter(desc, rangeOps...)
	g.paramNodes[n] = p
	return p
}

// generateRange returns the size operation of a parameter dimension.
func (g *codeGenerator) generateRange(o genOptions, r *node.RangeFromScalar) op.Op {
	key := o.key(r)
	if v, ok := g.ranges[key]; ok {
		return v
	}
	var size op.Op
	if r.Size != nil {
		size = g.generateScalar(o, r.Size)
	} else {
		size = g.missingScalar(r, "Range size", 1)
	}
	g.ranges[key] = size
	return size
}

// ---------------------------------------------------------------------------
// Scalars
// ---------------------------------------------------------------------------

// missingScalar reports a missing connection and returns a constant in its
// place.
func (g *codeGenerator) missingScalar(ctx node.Node, what string, value float32) op.Op {
	g.missingConnection(ctx, what)
	return &op.ConstantScalar{Value: value}
}

func (g *codeGenerator) generateScalar(o genOptions, n node.Scalar) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.scalars[key]; ok {
		return v
	}

	var result op.Op
	switch v := n.(type) {
	case *node.ScalarConstant:
		result = &op.ConstantScalar{Value: v.Value}

	case *node.ScalarParameter:
		result = g.parameter(o, v, &op.ParamDesc{
			Name:         v.Name,
			UID:          v.UID,
			Type:         op.ParamFloat,
			DefaultFloat: v.Default,
		}, v.Ranges)

	case *node.ScalarEnumParameter:
		desc := &op.ParamDesc{
			Name:       v.Name,
			UID:        v.UID,
			Type:       op.ParamInt,
			DefaultInt: v.Default,
		}
		for _, opt := range v.Options {
			desc.Options = append(desc.Options, op.IntOption{Value: opt.Value, Name: opt.Name})
		}
		result = g.parameter(o, v, desc, v.Ranges)

	case *node.ScalarSwitch:
		if len(v.Options) == 0 {
			result = g.missingScalar(v, "Switch option", 1)
			break
		}
		sw := op.NewSwitch(op.CatScalar, g.switchVariable(v, v.Parameter))
		for i, opt := range v.Options {
			var branch op.Op
			if opt != nil {
				branch = g.generateScalar(o, opt)
			} else {
				branch = g.missingScalar(v, "Switch option", 1)
			}
			sw.Cases = append(sw.Cases, op.Case{Value: int32(i), Branch: branch})
		}
		result = sw

	case *node.ScalarVariation:
		var current op.Op
		if v.Default != nil {
			current = g.generateScalar(o, v.Default)
		} else {
			current = g.missingScalar(v, "Variation default", 0)
		}
		for i := len(v.Variations) - 1; i >= 0; i-- {
			b := v.Variations[i]
			tag := g.fp.findTag(b.Tag)
			if tag == nil {
				g.unknownTag(v, "scalar", b.Tag)
				continue
			}
			var yes op.Op
			if b.Node != nil {
				yes = g.generateScalar(o, b.Node)
			} else {
				yes = g.missingScalar(v, "Variation option", 0)
			}
			current = op.NewConditional(op.CatScalar, tag.GenericCondition, yes, current)
		}
		result = current

	case *node.ScalarCurve:
		var input op.Op
		if v.Input != nil {
			input = g.generateScalar(o, v.Input)
		} else {
			input = g.missingScalar(v, "Curve T", 0.5)
		}
		result = &op.Curve{Input: input, Curve: v.Curve}

	case *node.ScalarArithmetic:
		a := g.generateScalar(o, v.A)
		if a == nil {
			a = g.missingScalar(v, "ScalarArithmetic A", 1)
		}
		b := g.generateScalar(o, v.B)
		if b == nil {
			b = g.missingScalar(v, "ScalarArithmetic B", 1)
		}
		result = &op.Arithmetic{
			Code:      op.ScalarArithmetic,
			Operation: op.ArithmeticOperation(v.Operation),
			A:         a,
			B:         b,
		}

	case *node.ScalarTable:
		result = g.generateTableSwitch(v, &v.TableSource, node.ColumnScalar, op.CatScalar,
			func(row int, cell node.Cell) op.Op {
				return &op.ConstantScalar{Value: cell.Scalar}
			})

	default:
		panic("compiler: unexpected scalar node " + n.Kind().String())
	}

	g.scalars[key] = result
	return result
}
