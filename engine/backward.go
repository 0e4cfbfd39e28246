package engine

import "math"

// TopoSort returns every node reachable from root, each exactly once, with
// operands placed before the nodes built from them. Nodes are keyed by
// identity, so two distinct nodes holding equal data both appear.
func TopoSort(root *Value) []*Value {
	topo := []*Value{}
	visited := make(map[*Value]bool)

	var buildTopo func(*Value)
	buildTopo = func(node *Value) {
		if visited[node] {
			return
		}
		visited[node] = true
		for _, child := range node.prev {
			buildTopo(child)
		}
		topo = append(topo, node)
	}
	buildTopo(root)
	return topo
}

// Backward performs reverse-mode autodiff from this node to all ancestors.
//
// Process:
//  1. Build topological order so each node comes after its operands.
//  2. Seed the root gradient with 1 (d root / d root = 1).
//  3. Walk the order backwards, pushing each node's gradient into its
//     operands. A node is reached only after every node that uses it, so its
//     gradient is complete before it is passed on.
//
// Gradients are added, never assigned. Running Backward again without
// zeroing first accumulates on top of the previous pass.
func (v *Value) Backward() {
	topo := TopoSort(v)
	v.grad = 1
	for i := len(topo) - 1; i >= 0; i-- {
		topo[i].backward()
	}
}

// backward applies the local chain rule for v's operation.
func (v *Value) backward() {
	switch v.op {
	case OpLeaf:
	case OpAdd:
		v.prev[0].grad += v.grad
		v.prev[1].grad += v.grad
	case OpMul:
		a, b := v.prev[0], v.prev[1]
		a.grad += b.data * v.grad
		b.grad += a.data * v.grad
	case OpPow:
		a := v.prev[0]
		a.grad += v.exponent * math.Pow(a.data, v.exponent-1) * v.grad
	case OpExp:
		v.prev[0].grad += v.data * v.grad
	case OpReLU:
		if v.data > 0 {
			v.prev[0].grad += v.grad
		}
	case OpTanh:
		v.prev[0].grad += (1 - v.data*v.data) * v.grad
	default:
		panic("engine: unknown op " + v.op.String())
	}
}
