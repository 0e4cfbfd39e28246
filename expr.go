package main

import (
	"encoding/json"

	"github.com/pkg/errors"

	"micrograd-explorer/engine"
)

// Expr is a JSON expression tree. Exactly one of Const, Var or Op is set.
//
//	{"op":"tanh","args":[{"op":"add","args":[{"var":"x"},{"const":1}]}]}
//	{"op":"pow","args":[{"var":"x"}],"exponent":3}
type Expr struct {
	Const    *float64        `json:"const,omitempty"`
	Var      string          `json:"var,omitempty"`
	Op       string          `json:"op,omitempty"`
	Args     []Expr          `json:"args,omitempty"`
	Exponent json.RawMessage `json:"exponent,omitempty"`
}

var arity = map[string]int{
	"add": 2, "mul": 2, "sub": 2, "div": 2,
	"neg": 1, "pow": 1, "exp": 1, "relu": 1, "tanh": 1,
}

// exprBuilder turns Expr trees into engine graphs. Each variable name maps to
// one leaf, so a variable used twice is a shared operand.
type exprBuilder struct {
	vars   map[string]float64
	leaves map[string]*engine.Value
}

func newExprBuilder(vars map[string]float64) *exprBuilder {
	return &exprBuilder{vars: vars, leaves: make(map[string]*engine.Value)}
}

func (b *exprBuilder) build(e Expr) (*engine.Value, error) {
	switch {
	case e.Const != nil:
		return engine.NewValue(*e.Const), nil
	case e.Var != "":
		if v, ok := b.leaves[e.Var]; ok {
			return v, nil
		}
		x, ok := b.vars[e.Var]
		if !ok {
			return nil, errors.Errorf("unknown variable %q", e.Var)
		}
		v := engine.NewValue(x).WithLabel(e.Var)
		b.leaves[e.Var] = v
		return v, nil
	case e.Op == "":
		return nil, errors.New("expression needs one of const, var or op")
	}

	want, ok := arity[e.Op]
	if !ok {
		return nil, errors.Errorf("unknown op %q", e.Op)
	}
	if len(e.Args) != want {
		return nil, errors.Errorf("%s takes %d argument(s), got %d", e.Op, want, len(e.Args))
	}
	args := make([]*engine.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := b.build(a)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s arg %d", e.Op, i)
		}
		args[i] = v
	}

	switch e.Op {
	case "add":
		return engine.Add(args[0], args[1]), nil
	case "mul":
		return engine.Mul(args[0], args[1]), nil
	case "sub":
		return engine.Sub(args[0], args[1]), nil
	case "div":
		return engine.Div(args[0], args[1]), nil
	case "neg":
		return engine.Neg(args[0]), nil
	case "exp":
		return engine.Exp(args[0]), nil
	case "relu":
		return engine.ReLU(args[0]), nil
	case "tanh":
		return engine.Tanh(args[0]), nil
	}

	// pow: the exponent must be a plain number. An expression object is
	// built so Power can reject it as a node.
	var exponent any
	if len(e.Exponent) > 0 {
		var sub Expr
		if err := json.Unmarshal(e.Exponent, &sub); err == nil && (sub.Op != "" || sub.Var != "" || sub.Const != nil) {
			node, err := b.build(sub)
			if err != nil {
				return nil, errors.WithMessage(err, "pow exponent")
			}
			exponent = node
		} else if err := json.Unmarshal(e.Exponent, &exponent); err != nil {
			return nil, errors.Wrap(err, "pow exponent")
		}
	}
	return engine.Power(args[0], exponent)
}

// evaluate builds the expression, runs Backward from its root and reports the
// value, the gradient of every variable and the graph.
func evaluate(req GradRequest) (GradResponse, error) {
	b := newExprBuilder(req.Vars)
	root, err := b.build(req.Expr)
	if err != nil {
		return GradResponse{}, err
	}
	root.Backward()

	grads := make(map[string]float64, len(b.leaves))
	for name, v := range b.leaves {
		grads[name] = v.Grad()
	}

	return GradResponse{
		Value: root.Data(),
		Grads: grads,
		Graph: traceGraph(root),
	}, nil
}
