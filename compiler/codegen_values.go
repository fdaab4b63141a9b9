package compiler

import (
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/op"
	"github.com/chazu/mutable/resource"
)

// ---------------------------------------------------------------------------
// Colours
// ---------------------------------------------------------------------------

func (g *codeGenerator) missingColor(ctx node.Node, what string) op.Op {
	g.missingConnection(ctx, what)
	return &op.ConstantColor{Value: resource.Vec4{1, 1, 0, 1}}
}

func (g *codeGenerator) generateColor(o genOptions, n node.Color) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.colors[key]; ok {
		return v
	}

	var result op.Op
	switch v := n.(type) {
	case *node.ColorConstant:
		result = &op.ConstantColor{Value: v.Value}

	case *node.ColorParameter:
		result = g.parameter(o, v, &op.ParamDesc{
			Name:         v.Name,
			UID:          v.UID,
			Type:         op.ParamColor,
			DefaultColor: v.Default,
		}, v.Ranges)

	case *node.ColorSwitch:
		if len(v.Options) == 0 {
			result = g.missingColor(v, "Switch option")
			break
		}
		sw := op.NewSwitch(op.CatColor, g.switchVariable(v, v.Parameter))
		for i, opt := range v.Options {
			branch := g.generateColor(o, opt)
			if branch == nil {
				branch = g.missingColor(v, "Switch option")
			}
			sw.Cases = append(sw.Cases, op.Case{Value: int32(i), Branch: branch})
		}
		result = sw

	case *node.ColorVariation:
		current := g.generateColor(o, v.Default)
		if current == nil {
			current = g.missingColor(v, "Variation default")
		}
		for i := len(v.Variations) - 1; i >= 0; i-- {
			b := v.Variations[i]
			tag := g.fp.findTag(b.Tag)
			if tag == nil {
				g.unknownTag(v, "color", b.Tag)
				continue
			}
			yes := g.generateColor(o, b.Node)
			if yes == nil {
				yes = g.missingColor(v, "Variation option")
			}
			current = op.NewConditional(op.CatColor, tag.GenericCondition, yes, current)
		}
		result = current

	case *node.ColorSampleImage:
		img := g.generateImage(imageOptions{State: o.State, ActiveTags: o.ActiveTags}, v.Image)
		if img == nil {
			img = g.missingImage(v, "Sample image")
		}
		x := g.generateScalar(o, v.X)
		if x == nil {
			x = g.missingScalar(v, "Sample X", 0.5)
		}
		y := g.generateScalar(o, v.Y)
		if y == nil {
			y = g.missingScalar(v, "Sample Y", 0.5)
		}
		result = op.NewFixed(op.ColorSampleImage, img, x, y)

	case *node.ColorFromScalars:
		channel := func(s node.Scalar, def float32) op.Op {
			if s == nil {
				return &op.ConstantScalar{Value: def}
			}
			return g.generateScalar(o, s)
		}
		result = op.NewFixed(op.ColorFromScalars,
			channel(v.R, 0), channel(v.G, 0), channel(v.B, 0), channel(v.A, 1))

	case *node.ColorArithmetic:
		a := g.generateColor(o, v.A)
		if a == nil {
			a = g.missingColor(v, "ColorArithmetic A")
		}
		b := g.generateColor(o, v.B)
		if b == nil {
			b = g.missingColor(v, "ColorArithmetic B")
		}
		result = &op.Arithmetic{
			Code:      op.ColorArithmetic,
			Operation: op.ArithmeticOperation(v.Operation),
			A:         a,
			B:         b,
		}

	case *node.ColorTable:
		result = g.generateTableSwitch(v, &v.TableSource, node.ColumnColor, op.CatColor,
			func(row int, cell node.Cell) op.Op {
				return &op.ConstantColor{Value: cell.Color}
			})

	default:
		panic("compiler: unexpected colour node " + n.Kind().String())
	}

	g.colors[key] = result
	return result
}

// ---------------------------------------------------------------------------
// Bools
// ---------------------------------------------------------------------------

func (g *codeGenerator) generateBool(o genOptions, n node.Bool) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.bools[key]; ok {
		return v
	}

	var result op.Op
	switch v := n.(type) {
	case *node.BoolConstant:
		result = &op.ConstantBool{Value: v.Value}

	case *node.BoolParameter:
		result = g.parameter(o, v, &op.ParamDesc{
			Name:        v.Name,
			UID:         v.UID,
			Type:        op.ParamBool,
			DefaultBool: v.Default,
		}, v.Ranges)

	case *node.BoolNot:
		src := g.generateBool(o, v.Source)
		if src == nil {
			g.missingConnection(v, "Not source")
			src = op.True()
		}
		result = op.Not(src)

	case *node.BoolAnd:
		a := g.generateBool(o, v.A)
		if a == nil {
			g.missingConnection(v, "And A")
			a = op.True()
		}
		b := g.generateBool(o, v.B)
		if b == nil {
			g.missingConnection(v, "And B")
			b = op.True()
		}
		result = op.And(a, b)

	default:
		panic("compiler: unexpected bool node " + n.Kind().String())
	}

	g.bools[key] = result
	return result
}

// ---------------------------------------------------------------------------
// Strings, matrices and projectors
// ---------------------------------------------------------------------------

func (g *codeGenerator) generateString(o genOptions, n node.String) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.strings[key]; ok {
		return v
	}

	var result op.Op
	switch v := n.(type) {
	case *node.StringConstant:
		result = &op.ConstantString{Value: v.Value}
	case *node.StringParameter:
		result = g.parameter(o, v, &op.ParamDesc{
			Name:          v.Name,
			UID:           v.UID,
			Type:          op.ParamString,
			DefaultString: v.Default,
		}, v.Ranges)
	default:
		panic("compiler: unexpected string node " + n.Kind().String())
	}

	g.strings[key] = result
	return result
}

func (g *codeGenerator) generateMatrix(o genOptions, n node.Matrix) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.matrices[key]; ok {
		return v
	}

	var result op.Op
	switch v := n.(type) {
	case *node.MatrixConstant:
		result = &op.ConstantMatrix{Value: v.Value}
	case *node.MatrixParameter:
		result = g.parameter(o, v, &op.ParamDesc{
			Name:          v.Name,
			UID:           v.UID,
			Type:          op.ParamMatrix,
			DefaultMatrix: v.Default,
		}, v.Ranges)
	default:
		panic("compiler: unexpected matrix node " + n.Kind().String())
	}

	g.matrices[key] = result
	return result
}

func (g *codeGenerator) generateProjector(o genOptions, n node.Projector) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.projectors[key]; ok {
		return v
	}

	var result op.Op
	switch v := n.(type) {
	case *node.ProjectorConstant:
		result = &op.ConstantProjector{Value: v.Value}
	case *node.ProjectorParameter:
		result = g.parameter(o, v, &op.ParamDesc{
			Name:             v.Name,
			UID:              v.UID,
			Type:             op.ParamProjector,
			DefaultProjector: v.Default,
		}, v.Ranges)
	default:
		panic("compiler: unexpected projector node " + n.Kind().String())
	}

	g.projectors[key] = result
	return result
}

// ---------------------------------------------------------------------------
// Extension data
// ---------------------------------------------------------------------------

func (g *codeGenerator) generateExtensionData(o genOptions, n node.ExtensionData) op.Op {
	if n == nil {
		return nil
	}
	key := o.key(n)
	if v, ok := g.extensions[key]; ok {
		return v
	}

	var result op.Op
	switch v := n.(type) {
	case *node.ExtensionDataConstant:
		if v.Value == nil {
			g.log.Warnf(v, "Constant extension data not set.")
			break
		}
		result = &op.ConstantExtensionData{Value: v.Value}

	case *node.ExtensionDataSwitch:
		if len(v.Options) == 0 {
			break
		}
		sw := op.NewSwitch(op.CatExtensionData, g.switchVariable(v, v.Parameter))
		for i, opt := range v.Options {
			if branch := g.generateExtensionData(o, opt); branch != nil {
				sw.Cases = append(sw.Cases, op.Case{Value: int32(i), Branch: branch})
			}
		}
		result = sw

	case *node.ExtensionDataVariation:
		current := g.generateExtensionData(o, v.Default)
		for i := len(v.Variations) - 1; i >= 0; i-- {
			b := v.Variations[i]
			tag := g.fp.findTag(b.Tag)
			if tag == nil {
				g.unknownTag(v, "extension data", b.Tag)
				continue
			}
			yes := g.generateExtensionData(o, b.Node)
			if yes == nil && current == nil {
				continue
			}
			current = op.NewConditional(op.CatExtensionData, tag.GenericCondition, yes, current)
		}
		result = current

	default:
		panic("compiler: unexpected extension data node " + n.Kind().String())
	}

	g.extensions[key] = result
	return result
}
