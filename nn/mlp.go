package nn

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	"micrograd-explorer/engine"
)

// MLP is a stack of layers. Every layer applies tanh except the last, which
// is linear so the output can take any real value.
type MLP struct {
	layers []*Layer
}

// NewMLP creates a perceptron with nin inputs and one layer per entry in
// nouts: NewMLP(rng, 2, 16, 16, 1) has two hidden layers of 16.
func NewMLP(rng *rand.Rand, nin int, nouts ...int) (*MLP, error) {
	if len(nouts) == 0 {
		return nil, errors.Wrap(ErrInvalidArchitecture, "mlp needs at least one layer")
	}
	sz := append([]int{nin}, nouts...)
	layers := make([]*Layer, len(nouts))
	for i := range nouts {
		l, err := NewLayer(rng, sz[i], sz[i+1], i != len(nouts)-1)
		if err != nil {
			return nil, errors.WithMessagef(err, "layer %d", i)
		}
		layers[i] = l
	}
	return &MLP{layers: layers}, nil
}

// Forward threads x through every layer.
func (m *MLP) Forward(x []engine.Operand) ([]*engine.Value, error) {
	var out []*engine.Value
	for i, l := range m.layers {
		var err error
		out, err = l.Forward(x)
		if err != nil {
			return nil, errors.WithMessagef(err, "layer %d", i)
		}
		x = Operands(out)
	}
	return out, nil
}

// Predict runs Forward and returns the single output node. It fails with
// ErrShapeMismatch when the last layer has more than one neuron.
func (m *MLP) Predict(x []engine.Operand) (*engine.Value, error) {
	if n := m.layers[len(m.layers)-1].Nout(); n != 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "mlp has %d outputs, Predict needs 1", n)
	}
	out, err := m.Forward(x)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Sizes returns [nin, nout of each layer...].
func (m *MLP) Sizes() []int {
	sz := []int{m.layers[0].Nin()}
	for _, l := range m.layers {
		sz = append(sz, l.Nout())
	}
	return sz
}

// Layers returns the layers in order.
func (m *MLP) Layers() []*Layer { return append([]*Layer(nil), m.layers...) }

// Parameters returns every layer's parameters, first layer first.
func (m *MLP) Parameters() []*engine.Value {
	var params []*engine.Value
	for _, l := range m.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

func (m *MLP) String() string {
	parts := make([]string, len(m.layers))
	for i, l := range m.layers {
		parts[i] = l.String()
	}
	return fmt.Sprintf("MLP of [%s]", strings.Join(parts, ", "))
}
