package engine

// Edge connects an operand to a node built from it.
type Edge struct {
	From *Value
	To   *Value
}

// Trace collects the graph below root for display: every reachable node once,
// in topological order, and every distinct operand-to-node edge once. x*x
// has a single edge from x.
//
// Trace only reads the graph.
func Trace(root *Value) ([]*Value, []Edge) {
	nodes := TopoSort(root)
	var edges []Edge
	seen := make(map[Edge]bool)
	for _, n := range nodes {
		for _, p := range n.prev {
			e := Edge{From: p, To: n}
			if seen[e] {
				continue
			}
			seen[e] = true
			edges = append(edges, e)
		}
	}
	return nodes, edges
}
