package nn

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"micrograd-explorer/engine"
)

// Neuron computes tanh(b + Σ wᵢxᵢ), or the bare sum when it is linear.
type Neuron struct {
	w      []*engine.Value
	b      *engine.Value
	nonlin bool
}

// NewNeuron creates a neuron with nin weights and a bias, all drawn
// uniformly from [-1, 1]. A nil rng uses the package-level source.
func NewNeuron(rng *rand.Rand, nin int, nonlin bool) (*Neuron, error) {
	if nin < 1 {
		return nil, errors.Wrapf(ErrInvalidArchitecture, "neuron needs at least one input, got %d", nin)
	}
	w := make([]*engine.Value, nin)
	for i := range w {
		w[i] = engine.NewValue(uniform(rng))
	}
	return &Neuron{w: w, b: engine.NewValue(uniform(rng)), nonlin: nonlin}, nil
}

// Forward evaluates the neuron. len(x) must equal the number of weights.
func (n *Neuron) Forward(x []engine.Operand) (*engine.Value, error) {
	if len(x) != len(n.w) {
		return nil, errors.Wrapf(ErrShapeMismatch, "neuron expects %d inputs, got %d", len(n.w), len(x))
	}
	act := n.b
	for i, wi := range n.w {
		act = act.Add(wi.Mul(x[i]))
	}
	if n.nonlin {
		return act.Tanh(), nil
	}
	return act, nil
}

// Weights returns the weight leaves, in input order.
func (n *Neuron) Weights() []*engine.Value { return append([]*engine.Value(nil), n.w...) }

// Bias returns the bias leaf.
func (n *Neuron) Bias() *engine.Value { return n.b }

// Nin is the input width.
func (n *Neuron) Nin() int { return len(n.w) }

// Parameters returns the weights followed by the bias.
func (n *Neuron) Parameters() []*engine.Value {
	params := make([]*engine.Value, len(n.w)+1)
	copy(params, n.w)
	params[len(n.w)] = n.b
	return params
}

func (n *Neuron) String() string {
	kind := "Tanh"
	if !n.nonlin {
		kind = "Linear"
	}
	return fmt.Sprintf("%sNeuron(%d)", kind, len(n.w))
}
