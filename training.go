package main

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"micrograd-explorer/dataset"
	"micrograd-explorer/engine"
	"micrograd-explorer/nn"
)

// sampleBatch picks batchSize random samples, or the whole set when
// batchSize is 0 or not smaller than it.
func sampleBatch(rng *rand.Rand, data []dataset.Sample, batchSize int) []dataset.Sample {
	if batchSize <= 0 || batchSize >= len(data) {
		return data
	}
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	batch := make([]dataset.Sample, batchSize)
	for i := range batch {
		batch[i] = data[intn(len(data))]
	}
	return batch
}

func inputsOf(samples []dataset.Sample) [][]float64 {
	out := make([][]float64, len(samples))
	for i, s := range samples {
		out[i] = s.X
	}
	return out
}

// trainOneStep zeroes gradients, builds the loss over one batch,
// backpropagates and applies the optimizer. With capture set, the loss graph
// is converted to its wire form between backward and the optimizer step:
// afterwards the parameter leaves hold new values that no longer match the
// nodes computed from them.
func trainOneStep(model *Model, batchSize int, capture bool) (TrainResponse, error) {
	// Gradients accumulate across passes, so clear them first.
	nn.ZeroGrad(model.Net)

	batch := sampleBatch(model.rng, model.Data, batchSize)
	labels := dataset.Labels(batch)
	scores, err := model.Scores(inputsOf(batch))
	if err != nil {
		return TrainResponse{}, err
	}
	loss, err := model.Loss(scores, labels)
	if err != nil {
		return TrainResponse{}, err
	}

	loss.Backward()
	if capture {
		g := traceGraph(loss)
		model.lastGraph = &g
	}
	model.Opt.Step(model.Params)
	model.Steps++

	return TrainResponse{
		Step:     model.Steps,
		Loss:     loss.Data(),
		Accuracy: nn.Accuracy(scores, labels),
	}, nil
}

// TrainBatchedSteps runs stepsPerCall optimizer steps and reports the mean
// loss and accuracy across them. The graph of the last step is kept for
// /api/graph.
func TrainBatchedSteps(model *Model, stepsPerCall, batchSize int) (TrainResponse, error) {
	if stepsPerCall < 1 {
		stepsPerCall = 1
	}
	if len(model.Data) == 0 {
		return TrainResponse{}, errors.New("no training samples")
	}

	losses := make([]float64, 0, stepsPerCall)
	accs := make([]float64, 0, stepsPerCall)
	for step := 0; step < stepsPerCall; step++ {
		resp, err := trainOneStep(model, batchSize, step == stepsPerCall-1)
		if err != nil {
			return TrainResponse{}, errors.WithMessagef(err, "step %d", model.Steps+1)
		}
		losses = append(losses, resp.Loss)
		accs = append(accs, resp.Accuracy)
	}

	n := float64(stepsPerCall)
	return TrainResponse{
		Step:     model.Steps,
		Loss:     floats.Sum(losses) / n,
		Accuracy: floats.Sum(accs) / n,
	}, nil
}

// Predict scores raw inputs without touching gradients.
func Predict(model *Model, inputs [][]float64) ([]float64, error) {
	scores, err := model.Scores(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = s.Data()
	}
	return out, nil
}

// traceGraph converts the whole graph below root into its wire form, root
// first. Node data and grad are copied, so the result stays fixed when the
// graph's leaves change later.
func traceGraph(root *engine.Value) GraphResponse {
	nodes, edges := engine.Trace(root)
	resp := GraphResponse{Root: root.ID(), Total: len(nodes)}

	resp.Nodes = make([]GraphNode, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		resp.Nodes = append(resp.Nodes, GraphNode{
			ID:    n.ID(),
			Label: n.Label(),
			Data:  n.Data(),
			Grad:  n.Grad(),
			Op:    n.Tag(),
		})
	}
	resp.Edges = make([]GraphEdge, 0, len(edges))
	for _, e := range edges {
		resp.Edges = append(resp.Edges, GraphEdge{From: e.From.ID(), To: e.To.ID()})
	}
	return resp
}

// limitGraph keeps the first maxNodes nodes of g (root first) and the edges
// between them. 0 keeps everything. g itself is not modified.
func limitGraph(g GraphResponse, maxNodes int) GraphResponse {
	if maxNodes <= 0 || len(g.Nodes) <= maxNodes {
		return g
	}
	out := GraphResponse{Root: g.Root, Total: g.Total, Truncated: true}
	out.Nodes = g.Nodes[:maxNodes:maxNodes]

	keep := make(map[uint64]bool, maxNodes)
	for _, n := range out.Nodes {
		keep[n.ID] = true
	}
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
