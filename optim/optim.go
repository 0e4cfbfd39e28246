// Package optim moves parameters against their gradients.
//
// Optimizers only read gradients; they never reset them. Zero gradients with
// nn.ZeroGrad before each backward pass.
package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"micrograd-explorer/engine"
)

// Optimizer updates params in place from their current gradients.
type Optimizer interface {
	Step(params []*engine.Value)
}

// SGD is plain gradient descent: p -= lr * grad.
type SGD struct {
	LearningRate float64
}

// Step moves each parameter against its gradient.
func (o *SGD) Step(params []*engine.Value) {
	for _, p := range params {
		p.SetData(p.Data() - o.LearningRate*p.Grad())
	}
}

// Adam keeps per-parameter first and second moment estimates.
type Adam struct {
	LearningRate float64
	Beta1, Beta2 float64
	Eps          float64

	m, v  []float64
	steps int
}

// NewAdam returns Adam with the betas used by the explorer: 0.85 and 0.99.
func NewAdam(lr float64) *Adam {
	return &Adam{LearningRate: lr, Beta1: 0.85, Beta2: 0.99, Eps: 1e-8}
}

// Steps is the number of updates applied so far.
func (o *Adam) Steps() int { return o.steps }

// Step performs one Adam update. Moments are tracked by position, so params
// must be passed in the same order every time; a different length starts the
// moments over.
func (o *Adam) Step(params []*engine.Value) {
	if len(o.m) != len(params) {
		o.m = make([]float64, len(params))
		o.v = make([]float64, len(params))
		o.steps = 0
	}
	o.steps++

	grad := make([]float64, len(params))
	for i, p := range params {
		grad[i] = p.Grad()
	}
	sq := make([]float64, len(grad))
	floats.MulTo(sq, grad, grad)

	// m = b1*m + (1-b1)*g ; v = b2*v + (1-b2)*g²
	floats.Scale(o.Beta1, o.m)
	floats.AddScaled(o.m, 1-o.Beta1, grad)
	floats.Scale(o.Beta2, o.v)
	floats.AddScaled(o.v, 1-o.Beta2, sq)

	c1 := 1 - math.Pow(o.Beta1, float64(o.steps))
	c2 := 1 - math.Pow(o.Beta2, float64(o.steps))
	for i, p := range params {
		mHat := o.m[i] / c1
		vHat := o.v[i] / c2
		p.SetData(p.Data() - o.LearningRate*mHat/(math.Sqrt(vHat)+o.Eps))
	}
}
