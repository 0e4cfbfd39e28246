package nn

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"micrograd-explorer/engine"
)

func checkBatch(n, m int) error {
	if n != m {
		return errors.Wrapf(ErrShapeMismatch, "%d predictions for %d targets", n, m)
	}
	if n == 0 {
		return ErrEmptyBatch
	}
	return nil
}

func mean(terms []engine.Operand) *engine.Value {
	return engine.Sum(terms...).Mul(engine.Scalar(1 / float64(len(terms))))
}

// MSE is the mean of (pred - target)^2.
func MSE(pred []*engine.Value, target []float64) (*engine.Value, error) {
	if err := checkBatch(len(pred), len(target)); err != nil {
		return nil, err
	}
	terms := make([]engine.Operand, len(pred))
	for i, p := range pred {
		terms[i] = p.Sub(engine.Scalar(target[i])).Pow(2)
	}
	return mean(terms), nil
}

// Hinge is the mean SVM max-margin loss relu(1 - y*s) for labels in {-1, +1}.
func Hinge(scores []*engine.Value, labels []float64) (*engine.Value, error) {
	if err := checkBatch(len(scores), len(labels)); err != nil {
		return nil, err
	}
	terms := make([]engine.Operand, len(scores))
	for i, s := range scores {
		terms[i] = engine.Sub(engine.Scalar(1), s.Mul(engine.Scalar(labels[i]))).ReLU()
	}
	return mean(terms), nil
}

// L2 is alpha * Σ p², the usual weight-decay penalty.
func L2(alpha float64, params []*engine.Value) *engine.Value {
	terms := make([]engine.Operand, len(params))
	for i, p := range params {
		terms[i] = p.Mul(p)
	}
	return engine.Sum(terms...).Mul(engine.Scalar(alpha))
}

// Accuracy is the fraction of scores whose sign matches the label's.
func Accuracy(scores []*engine.Value, labels []float64) float64 {
	if len(scores) == 0 || len(scores) != len(labels) {
		return 0
	}
	hits := make([]float64, len(scores))
	for i, s := range scores {
		if (labels[i] > 0) == (s.Data() > 0) {
			hits[i] = 1
		}
	}
	return floats.Sum(hits) / float64(len(hits))
}
