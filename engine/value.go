// Package engine is a tiny reverse-mode automatic differentiation engine
// over scalar values.
//
// Every arithmetic builder returns a fresh *Value that remembers its operands
// and which operation produced it. Calling Backward on any node walks that
// graph once and fills in the gradient of the root with respect to every
// node it depends on.
package engine

import (
	"fmt"
	"sync/atomic"
)

var nextID atomic.Uint64

// Value is the core unit of the engine: a "number with memory".
//
//   - data is the forward result and never changes for derived nodes.
//   - grad is d(root)/d(this node) after a backward pass. It accumulates.
//   - prev holds the operands this node was derived from (empty for leaves).
//   - op says which rule produced the node; exponent is only used by OpPow.
//
// Operands are shared, not owned: one parameter can feed many expressions.
type Value struct {
	id       uint64
	data     float64
	grad     float64
	prev     []*Value
	op       Op
	exponent float64
	label    string
}

// NewValue creates a leaf node (a plain number with no operands).
func NewValue(data float64) *Value {
	return &Value{id: nextID.Add(1), data: data}
}

func newNode(data float64, op Op, prev ...*Value) *Value {
	return &Value{id: nextID.Add(1), data: data, op: op, prev: prev}
}

// ID is unique per node for the lifetime of the process.
func (v *Value) ID() uint64 { return v.id }

// Data returns the forward value.
func (v *Value) Data() float64 { return v.data }

// Grad returns the accumulated gradient.
func (v *Value) Grad() float64 { return v.grad }

// Op returns the operation that produced v.
func (v *Value) Op() Op { return v.op }

// Exponent is the constant power of an OpPow node and 0 otherwise.
func (v *Value) Exponent() float64 { return v.exponent }

// Tag is the operator label used for display, e.g. "+", "**2" or "tanh".
// Leaves have an empty tag.
func (v *Value) Tag() string {
	if v.op == OpPow {
		return fmt.Sprintf("**%g", v.exponent)
	}
	return v.op.String()
}

// Label returns the optional display name.
func (v *Value) Label() string { return v.label }

// SetLabel names the node for display purposes only.
func (v *Value) SetLabel(label string) { v.label = label }

// WithLabel sets the label and returns v, handy when building expressions.
func (v *Value) WithLabel(label string) *Value {
	v.label = label
	return v
}

// Operands returns a copy of the nodes v was derived from.
func (v *Value) Operands() []*Value {
	return append([]*Value(nil), v.prev...)
}

// IsLeaf reports whether v was created from a raw number.
func (v *Value) IsLeaf() bool { return v.op == OpLeaf }

// ZeroGrad resets the gradient to 0.
func (v *Value) ZeroGrad() { v.grad = 0 }

// SetData replaces the value of a leaf, which is how optimizers move
// parameters between passes. Derived nodes are immutable; calling SetData on
// one is a programming error and panics.
func (v *Value) SetData(x float64) {
	if !v.IsLeaf() {
		panic(fmt.Sprintf("engine: SetData on derived %q node %d", v.Tag(), v.id))
	}
	v.data = x
}

func (v *Value) String() string {
	return fmt.Sprintf("Value(data=%g, grad=%g)", v.data, v.grad)
}
