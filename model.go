package main

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"micrograd-explorer/dataset"
	"micrograd-explorer/engine"
	"micrograd-explorer/nn"
	"micrograd-explorer/optim"
)

// Config contains all key hyperparameters.
//
//   - sizes: [inputs, hidden..., outputs]; inputs must be 2 for the toy sets
//     and the explorer trains a single output score
//   - optimizer: "sgd" or "adam"
//   - loss: "hinge" (max-margin) or "mse"
//   - alpha: L2 penalty on every parameter
//   - dataset / samples / noise: which toy set to generate and how; noise is
//     a pointer so an explicit 0 asks for a noise-free set
type Config struct {
	Sizes        []int    `json:"sizes"`
	LearningRate float64  `json:"learning_rate"`
	Optimizer    string   `json:"optimizer"`
	Loss         string   `json:"loss"`
	Alpha        float64  `json:"alpha"`
	Dataset      string   `json:"dataset"`
	Samples      int      `json:"samples"`
	Noise        *float64 `json:"noise,omitempty"`
}

const defaultNoise = 0.1

// withDefaults fills every zero field and a missing noise. Alpha may
// legitimately be 0 and is left alone; negative values are left for validate
// to reject.
func (c Config) withDefaults() Config {
	if len(c.Sizes) == 0 {
		c.Sizes = []int{2, 16, 16, 1}
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.05
	}
	if c.Optimizer == "" {
		c.Optimizer = "sgd"
	}
	if c.Loss == "" {
		c.Loss = "hinge"
	}
	if c.Dataset == "" {
		c.Dataset = "moons"
	}
	if c.Samples <= 0 {
		c.Samples = 100
	}
	if c.Noise == nil {
		noise := defaultNoise
		c.Noise = &noise
	}
	return c
}

func (c Config) validate() error {
	if len(c.Sizes) < 2 {
		return errors.Errorf("sizes needs inputs and at least one layer, got %v", c.Sizes)
	}
	if c.Sizes[0] != 2 {
		return errors.Errorf("toy datasets are 2-D, sizes[0] must be 2, got %d", c.Sizes[0])
	}
	if out := c.Sizes[len(c.Sizes)-1]; out != 1 {
		return errors.Errorf("the explorer trains a single score, last size must be 1, got %d", out)
	}
	switch c.Optimizer {
	case "sgd", "adam":
	default:
		return errors.Errorf("unknown optimizer %q", c.Optimizer)
	}
	switch c.Loss {
	case "hinge", "mse":
	default:
		return errors.Errorf("unknown loss %q", c.Loss)
	}
	switch c.Dataset {
	case "moons", "blobs":
	default:
		return errors.Errorf("unknown dataset %q", c.Dataset)
	}
	if c.LearningRate < 0 {
		return errors.Errorf("learning_rate must not be negative, got %g", c.LearningRate)
	}
	if c.Alpha < 0 {
		return errors.Errorf("alpha must not be negative, got %g", c.Alpha)
	}
	if c.Noise != nil && *c.Noise < 0 {
		return errors.Errorf("noise must not be negative, got %g", *c.Noise)
	}
	return nil
}

// Model stores the network, its training data and optimizer state.
//
// Notes:
//   - Params is the network's flat parameter list, cached for the optimizer.
//   - lastGraph is the wire form of the most recent loss graph, captured
//     after backward and before the optimizer step, so node values agree
//     with each other. /api/graph serves it.
//   - mu serialises all access; the engine itself is single-threaded.
type Model struct {
	Config Config
	Net    *nn.MLP
	Params []*engine.Value
	Data   []dataset.Sample
	Opt    optim.Optimizer
	Steps  int

	lastGraph *GraphResponse
	rng       *rand.Rand
	mu        sync.Mutex
}

// NewModel validates config, then builds the network and generates the
// dataset from rng.
func NewModel(config Config, rng *rand.Rand) (*Model, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid config")
	}

	net, err := nn.NewMLP(rng, config.Sizes[0], config.Sizes[1:]...)
	if err != nil {
		return nil, err
	}

	var data []dataset.Sample
	switch config.Dataset {
	case "moons":
		data, err = dataset.Moons(rng, config.Samples, *config.Noise)
	case "blobs":
		data, err = dataset.Blobs(rng, config.Samples, *config.Noise)
	}
	if err != nil {
		return nil, err
	}
	if rng != nil {
		dataset.Shuffle(rng, data)
	}

	var opt optim.Optimizer = &optim.SGD{LearningRate: config.LearningRate}
	if config.Optimizer == "adam" {
		opt = optim.NewAdam(config.LearningRate)
	}

	return &Model{
		Config: config,
		Net:    net,
		Params: net.Parameters(),
		Data:   data,
		Opt:    opt,
		rng:    rng,
	}, nil
}

// Scores runs the network on each input and returns one score node per input.
func (m *Model) Scores(inputs [][]float64) ([]*engine.Value, error) {
	out := make([]*engine.Value, len(inputs))
	for i, x := range inputs {
		s, err := m.Net.Predict(nn.Inputs(x...))
		if err != nil {
			return nil, errors.WithMessagef(err, "input %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// Loss builds the data loss over scores, plus alpha times the sum of squares
// of every network parameter when alpha is non-zero.
func (m *Model) Loss(scores []*engine.Value, labels []float64) (*engine.Value, error) {
	var (
		data *engine.Value
		err  error
	)
	if m.Config.Loss == "mse" {
		data, err = nn.MSE(scores, labels)
	} else {
		data, err = nn.Hinge(scores, labels)
	}
	if err != nil {
		return nil, err
	}
	if m.Config.Alpha == 0 {
		return data, nil
	}
	return data.Add(nn.L2(m.Config.Alpha, m.Params)), nil
}
