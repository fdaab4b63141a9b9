// Package op defines the operation DAG produced by code generation.
//
// Operations are immutable once built and may be shared by any number of
// parents. Rewrites must go through a Placeholder handle so that every
// parent observes the replacement.
package op

import "fmt"

// Op is a single instruction of the output program.
type Op interface {
	Type() Type
	// Children returns the direct operands. Entries may be nil.
	Children() []Op
	// EncodeArgs writes the instruction operands, including child
	// addresses, to w.
	EncodeArgs(w *ArgWriter)
}

// Placeholder is a handle whose target can be set after parents referencing
// it have been built. It is transparent to linking and walking.
type Placeholder struct {
	Code   Type
	Target Op
}

func (p *Placeholder) Type() Type { return p.Code }

func (p *Placeholder) Children() []Op { return []Op{p.Target} }

func (p *Placeholder) EncodeArgs(w *ArgWriter) {
	panic("op: placeholder must be dereferenced before encoding")
}

// Resolve points the handle at target. Every parent of p now sees target.
func (p *Placeholder) Resolve(target Op) {
	if target == p {
		panic("op: placeholder resolved to itself")
	}
	p.Target = target
}

// Deref follows placeholder handles until a concrete op or nil is reached.
func Deref(o Op) Op {
	for {
		p, ok := o.(*Placeholder)
		if !ok {
			return o
		}
		if p.Target == nil {
			return nil
		}
		o = p.Target
	}
}

// Walk visits every distinct op reachable from roots exactly once, parents
// before children. Returning false from visit skips the children of that op.
func Walk(roots []Op, visit func(Op) bool) {
	seen := make(map[Op]bool)
	var stack []Op
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		o := Deref(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
		if o == nil || seen[o] {
			continue
		}
		seen[o] = true
		if !visit(o) {
			continue
		}
		kids := o.Children()
		for i := len(kids) - 1; i >= 0; i-- {
			if kids[i] != nil {
				stack = append(stack, kids[i])
			}
		}
	}
}

// Count returns the number of distinct ops reachable from roots.
func Count(roots ...Op) int {
	n := 0
	Walk(roots, func(Op) bool { n++; return true })
	return n
}

// ---------------------------------------------------------------------------
// Fixed operations
// ---------------------------------------------------------------------------

// Fixed is an operation defined only by its type and ordered operands.
type Fixed struct {
	Code Type
	Args []Op
}

// NewFixed builds a Fixed operation.
func NewFixed(code Type, args ...Op) *Fixed {
	return &Fixed{Code: code, Args: args}
}

func (f *Fixed) Type() Type { return f.Code }

func (f *Fixed) Children() []Op { return f.Args }

func (f *Fixed) EncodeArgs(w *ArgWriter) {
	w.Uint8(uint8(len(f.Args)))
	for _, a := range f.Args {
		w.Child(a)
	}
}

// ---------------------------------------------------------------------------
// Boolean helpers
// ---------------------------------------------------------------------------

// ConstantBool is a boolean literal.
type ConstantBool struct {
	Value bool
}

func (c *ConstantBool) Type() Type      { return BoolConstant }
func (c *ConstantBool) Children() []Op  { return nil }
func (c *ConstantBool) EncodeArgs(w *ArgWriter) { w.Bool(c.Value) }

// True returns a constant true condition.
func True() *ConstantBool { return &ConstantBool{Value: true} }

// False returns a constant false condition.
func False() *ConstantBool { return &ConstantBool{Value: false} }

// BoolValue reports the value of a constant boolean op.
func BoolValue(o Op) (value, ok bool) {
	c, ok := Deref(o).(*ConstantBool)
	if !ok {
		return false, false
	}
	return c.Value, true
}

// IsTrue reports whether o is the constant true.
func IsTrue(o Op) bool {
	v, ok := BoolValue(o)
	return ok && v
}

// IsFalse reports whether o is the constant false.
func IsFalse(o Op) bool {
	v, ok := BoolValue(o)
	return ok && !v
}

func mustCondition(o Op) {
	if o == nil {
		panic("op: nil condition")
	}
	if c := o.Type().Category(); c != CatBool {
		panic(fmt.Sprintf("op: condition of type %v", o.Type()))
	}
}

// And returns a AND b, folding constant operands.
func And(a, b Op) Op {
	mustCondition(a)
	mustCondition(b)
	if IsFalse(a) || IsFalse(b) {
		return False()
	}
	if IsTrue(a) {
		return b
	}
	if IsTrue(b) {
		return a
	}
	if a == b {
		return a
	}
	return NewFixed(BoolAnd, a, b)
}

// Or returns a OR b, folding constant operands.
func Or(a, b Op) Op {
	mustCondition(a)
	mustCondition(b)
	if IsTrue(a) || IsTrue(b) {
		return True()
	}
	if IsFalse(a) {
		return b
	}
	if IsFalse(b) {
		return a
	}
	if a == b {
		return a
	}
	return NewFixed(BoolOr, a, b)
}

// Not returns the negation of a, folding constants.
func Not(a Op) Op {
	mustCondition(a)
	if v, ok := BoolValue(a); ok {
		return &ConstantBool{Value: !v}
	}
	if f, ok := Deref(a).(*Fixed); ok && f.Code == BoolNot {
		return f.Args[0]
	}
	return NewFixed(BoolNot, a)
}

// EqualIntConst compares an integer operation with a constant.
type EqualIntConst struct {
	Value    Op
	Constant int32
}

func (e *EqualIntConst) Type() Type     { return BoolEqualIntConst }
func (e *EqualIntConst) Children() []Op { return []Op{e.Value} }
func (e *EqualIntConst) EncodeArgs(w *ArgWriter) {
	w.Child(e.Value)
	w.Int32(e.Constant)
}

// EqualInt returns a condition comparing value with c. Constant values are
// folded.
func EqualInt(value Op, c int32) Op {
	switch v := Deref(value).(type) {
	case *ConstantInt:
		return &ConstantBool{Value: v.Value == c}
	case *ConstantScalar:
		return &ConstantBool{Value: int32(v.Value) == c}
	}
	return &EqualIntConst{Value: value, Constant: c}
}
