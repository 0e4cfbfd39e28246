package main

// InitRequest is the payload for /api/init.
// Every config field is optional; zero values take the defaults.
type InitRequest struct {
	Config Config `json:"config"`
}

// InitResponse reports what /api/init built.
type InitResponse struct {
	Status  string `json:"status"`
	Params  int    `json:"params"`
	Model   string `json:"model"`
	Samples int    `json:"samples"`
	Config  Config `json:"config"`
}

// TrainRequest controls how much work /api/train performs in one call.
//
// BatchSize 0 trains on the whole dataset each step.
type TrainRequest struct {
	StepsPerCall int `json:"steps_per_call"`
	BatchSize    int `json:"batch_size"`
}

// TrainResponse reports the mean loss and accuracy of the steps just run.
type TrainResponse struct {
	Step     int     `json:"step"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

// PredictRequest holds raw 2-D points to score.
type PredictRequest struct {
	Inputs [][]float64 `json:"inputs"`
}

// PredictResponse holds one score per input; the sign is the class.
type PredictResponse struct {
	Scores []float64 `json:"scores"`
}

// GradRequest is an expression to differentiate and its variable values.
type GradRequest struct {
	Expr Expr               `json:"expr"`
	Vars map[string]float64 `json:"vars"`
}

// GradResponse is the expression value, d(value)/d(var) for every variable
// used, and the full graph.
type GradResponse struct {
	Value float64            `json:"value"`
	Grads map[string]float64 `json:"grads"`
	Graph GraphResponse      `json:"graph"`
}

// GraphNode is the read-only view of one node a renderer needs.
type GraphNode struct {
	ID    uint64  `json:"id"`
	Label string  `json:"label,omitempty"`
	Data  float64 `json:"data"`
	Grad  float64 `json:"grad"`
	Op    string  `json:"op,omitempty"`
}

// GraphEdge points from an operand to the node built from it. Each pair
// appears once, even for x*x.
type GraphEdge struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// GraphResponse is returned by /api/graph and embedded in /api/grad.
// Truncated is set when fewer than Total nodes were sent.
type GraphResponse struct {
	Root      uint64      `json:"root"`
	Total     int         `json:"total"`
	Truncated bool        `json:"truncated"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
}
