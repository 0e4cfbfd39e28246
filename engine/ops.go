package engine

import (
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// ErrInvalidExponent is returned by Power when the exponent is not a finite
// real constant. Node-valued exponents are never accepted.
var ErrInvalidExponent = errors.New("engine: exponent must be a real constant")

// Operand is anything a builder accepts as an input: an existing node or a
// raw number wrapped in Scalar.
type Operand interface {
	node() *Value
}

// Scalar is a raw number used where a node is expected. It becomes a new
// leaf every time it is used.
type Scalar float64

func (s Scalar) node() *Value { return NewValue(float64(s)) }

func (v *Value) node() *Value { return v }

// Lift promotes an operand to a node. It is the only place raw numbers turn
// into leaves.
func Lift(o Operand) *Value { return o.node() }

// Add creates node z = a + b.
// dz/da = 1, dz/db = 1
func Add(a, b Operand) *Value {
	x, y := Lift(a), Lift(b)
	return newNode(x.data+y.data, OpAdd, x, y)
}

// Mul creates node z = a * b.
// dz/da = b, dz/db = a
func Mul(a, b Operand) *Value {
	x, y := Lift(a), Lift(b)
	return newNode(x.data*y.data, OpMul, x, y)
}

// Pow creates node z = a^p for a constant p.
// dz/da = p * a^(p-1)
//
// Pow does not validate p: NaN and infinite exponents follow math.Pow. Use
// Power to reject them with ErrInvalidExponent.
func Pow(a Operand, p float64) *Value {
	x := Lift(a)
	out := newNode(math.Pow(x.data, p), OpPow, x)
	out.exponent = p
	return out
}

// Power is Pow for exponents that arrive untyped, e.g. decoded from JSON.
// Any Go integer or float kind and Scalar are accepted; nodes, NaN, infinities
// and everything else fail with ErrInvalidExponent.
func Power(a Operand, exponent any) (*Value, error) {
	var p float64
	switch e := exponent.(type) {
	case Scalar:
		p = float64(e)
	case *Value:
		return nil, errors.Wrap(ErrInvalidExponent, "got a node")
	case Operand:
		return nil, errors.Wrapf(ErrInvalidExponent, "got operand %T", e)
	default:
		rv := reflect.ValueOf(exponent)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			p = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			p = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			p = rv.Float()
		default:
			return nil, errors.Wrapf(ErrInvalidExponent, "got %T", exponent)
		}
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil, errors.Wrapf(ErrInvalidExponent, "got %v", p)
	}
	return Pow(a, p), nil
}

// Exp creates node z = e^a.
// dz/da = e^a, which is the node's own value.
func Exp(a Operand) *Value {
	x := Lift(a)
	return newNode(math.Exp(x.data), OpExp, x)
}

// ReLU creates node z = max(0, a).
// dz/da = 1 when z > 0, otherwise 0 (including at exactly 0).
func ReLU(a Operand) *Value {
	x := Lift(a)
	out := x.data
	if out < 0 {
		out = 0
	}
	return newNode(out, OpReLU, x)
}

// Tanh creates node t = (e^2a - 1) / (e^2a + 1).
// dt/da = 1 - t^2
func Tanh(a Operand) *Value {
	x := Lift(a)
	e := math.Exp(2 * x.data)
	return newNode((e-1)/(e+1), OpTanh, x)
}

// Neg is a * -1.
func Neg(a Operand) *Value { return Mul(a, Scalar(-1)) }

// Sub is a + (-b). With a Scalar first argument this is the number-first
// form b + (-a) of the original operands.
func Sub(a, b Operand) *Value { return Add(a, Neg(b)) }

// Div is a * b^-1. A zero divisor follows IEEE-754 and yields ±Inf or NaN.
func Div(a, b Operand) *Value { return Mul(a, Pow(b, -1)) }

// Sum folds terms with Add from left to right. An empty sum is a new leaf 0.
func Sum(terms ...Operand) *Value {
	if len(terms) == 0 {
		return NewValue(0)
	}
	acc := Lift(terms[0])
	for _, t := range terms[1:] {
		acc = Add(acc, t)
	}
	return acc
}

// Method forms, for chaining: x.Mul(w).Add(b).Tanh()

// Add is Add(v, o).
func (v *Value) Add(o Operand) *Value { return Add(v, o) }

// Mul is Mul(v, o).
func (v *Value) Mul(o Operand) *Value { return Mul(v, o) }

// Sub is Sub(v, o).
func (v *Value) Sub(o Operand) *Value { return Sub(v, o) }

// Div is Div(v, o).
func (v *Value) Div(o Operand) *Value { return Div(v, o) }

// Pow is Pow(v, p); it does not validate p either.
func (v *Value) Pow(p float64) *Value { return Pow(v, p) }

// Neg is Neg(v).
func (v *Value) Neg() *Value { return Neg(v) }

// Exp is Exp(v).
func (v *Value) Exp() *Value { return Exp(v) }

// ReLU is ReLU(v).
func (v *Value) ReLU() *Value { return ReLU(v) }

// Tanh is Tanh(v).
func (v *Value) Tanh() *Value { return Tanh(v) }
