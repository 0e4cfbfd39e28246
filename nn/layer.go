package nn

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	"micrograd-explorer/engine"
)

// Layer is nout neurons reading the same nin inputs.
type Layer struct {
	neurons []*Neuron
}

// NewLayer creates nout neurons, each taking nin inputs.
func NewLayer(rng *rand.Rand, nin, nout int, nonlin bool) (*Layer, error) {
	if nout < 1 {
		return nil, errors.Wrapf(ErrInvalidArchitecture, "layer needs at least one neuron, got %d", nout)
	}
	neurons := make([]*Neuron, nout)
	for i := range neurons {
		n, err := NewNeuron(rng, nin, nonlin)
		if err != nil {
			return nil, err
		}
		neurons[i] = n
	}
	return &Layer{neurons: neurons}, nil
}

// Forward applies every neuron to x, in order. A single-neuron layer returns
// a one-element slice; MLP.Predict unwraps it.
func (l *Layer) Forward(x []engine.Operand) ([]*engine.Value, error) {
	out := make([]*engine.Value, len(l.neurons))
	for i, n := range l.neurons {
		v, err := n.Forward(x)
		if err != nil {
			return nil, errors.WithMessagef(err, "neuron %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// Nin is the number of inputs each neuron takes.
func (l *Layer) Nin() int { return l.neurons[0].Nin() }

// Nout is the number of neurons, i.e. outputs.
func (l *Layer) Nout() int { return len(l.neurons) }

// Neurons returns the layer's neurons in order.
func (l *Layer) Neurons() []*Neuron { return append([]*Neuron(nil), l.neurons...) }

// Parameters returns every neuron's parameters, neuron by neuron.
func (l *Layer) Parameters() []*engine.Value {
	var params []*engine.Value
	for _, n := range l.neurons {
		params = append(params, n.Parameters()...)
	}
	return params
}

func (l *Layer) String() string {
	parts := make([]string, len(l.neurons))
	for i, n := range l.neurons {
		parts[i] = n.String()
	}
	return fmt.Sprintf("Layer of [%s]", strings.Join(parts, ", "))
}
