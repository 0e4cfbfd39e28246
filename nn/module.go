// Package nn builds small feed-forward networks directly out of engine
// values. There is no separate training code path: a network's output is an
// ordinary node and Backward on it reaches every weight and bias.
package nn

import (
	"math/rand"

	"github.com/pkg/errors"

	"micrograd-explorer/engine"
)

var (
	// ErrShapeMismatch means an input or target sequence has the wrong width.
	ErrShapeMismatch = errors.New("nn: shape mismatch")
	// ErrInvalidArchitecture means a module was configured with an empty size.
	ErrInvalidArchitecture = errors.New("nn: invalid architecture")
	// ErrEmptyBatch means a loss was asked to average over nothing.
	ErrEmptyBatch = errors.New("nn: empty batch")
)

// Parameterized is anything that owns trainable leaves.
type Parameterized interface {
	// Parameters returns every leaf in a stable order.
	Parameters() []*engine.Value
}

// ZeroGrad resets the gradient of every parameter of m to exactly 0.
//
// Backward never does this on its own: gradients from consecutive passes add
// up until ZeroGrad is called. Call it before each independent pass.
func ZeroGrad(m Parameterized) {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}

// Inputs wraps raw numbers so they can be fed to Forward.
func Inputs(xs ...float64) []engine.Operand {
	out := make([]engine.Operand, len(xs))
	for i, x := range xs {
		out[i] = engine.Scalar(x)
	}
	return out
}

// Operands converts nodes, e.g. the output of a previous layer, into inputs.
func Operands(vs []*engine.Value) []engine.Operand {
	out := make([]engine.Operand, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func uniform(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()*2 - 1
	}
	return rng.Float64()*2 - 1
}
