package main

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"micrograd-explorer/dataset"
	"micrograd-explorer/nn"
)

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(rand.New(rand.NewSource(42))).RegisterRoutes(mux, nil)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestTrainBeforeInit(t *testing.T) {
	mux := newTestMux()
	for _, path := range []string{"/api/train", "/api/predict", "/api/graph"} {
		w := do(t, mux, http.MethodPost, path, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestInitTrainPredictGraph(t *testing.T) {
	mux := newTestMux()

	w := do(t, mux, http.MethodPost, "/api/init", `{"config":{"sizes":[2,2,1],"samples":20}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	initResp := decode[InitResponse](t, w)
	assert.Equal(t, "initialized", initResp.Status)
	assert.Equal(t, 9, initResp.Params)
	assert.Equal(t, 20, initResp.Samples)
	assert.Equal(t, "hinge", initResp.Config.Loss)

	w = do(t, mux, http.MethodGet, "/api/graph", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, mux, http.MethodPost, "/api/train", `{"steps_per_call":3,"batch_size":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	train := decode[TrainResponse](t, w)
	assert.Equal(t, 3, train.Step)
	assert.GreaterOrEqual(t, train.Loss, 0.0)

	w = do(t, mux, http.MethodPost, "/api/predict", `{"inputs":[[0,0],[1,-0.5]]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[PredictResponse](t, w).Scores, 2)

	w = do(t, mux, http.MethodPost, "/api/predict", `{"inputs":[[0]]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shape mismatch")

	w = do(t, mux, http.MethodGet, "/api/graph?max_nodes=10", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	graph := decode[GraphResponse](t, w)
	assert.Len(t, graph.Nodes, 10)
	assert.True(t, graph.Truncated)
	assert.Greater(t, graph.Total, 10)
	assert.Equal(t, graph.Root, graph.Nodes[0].ID)
	assert.Equal(t, 1.0, graph.Nodes[0].Grad)

	w = do(t, mux, http.MethodGet, "/api/graph?max_nodes=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitRejectsBadConfig(t *testing.T) {
	mux := newTestMux()
	for _, body := range []string{
		`{"config":{"sizes":[3,1]}}`,
		`{"config":{"sizes":[2,4,2]}}`,
		`{"config":{"optimizer":"rmsprop"}}`,
		`{"config":{"loss":"l1"}}`,
		`{"config":{"dataset":"spirals"}}`,
		`{"config":{"alpha":-1}}`,
		`{"config":{"learning_rate":-0.1}}`,
		`{"config":{"noise":-0.5}}`,
		`not json`,
	} {
		w := do(t, mux, http.MethodPost, "/api/init", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestTrainingReducesLoss(t *testing.T) {
	model, err := NewModel(Config{Sizes: []int{2, 8, 1}, Dataset: "blobs", Loss: "mse", Samples: 40, LearningRate: 0.05}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	first, err := TrainBatchedSteps(model, 1, 0)
	require.NoError(t, err)
	last, err := TrainBatchedSteps(model, 50, 0)
	require.NoError(t, err)
	assert.Less(t, last.Loss, first.Loss)
	assert.Equal(t, 51, last.Step)
}

func TestGradEndpoint(t *testing.T) {
	mux := newTestMux()

	// y = x*x + x*3 at x = 2: value 10, dy/dx = 2x + 3 = 7
	body := `{"vars":{"x":2},"expr":{"op":"add","args":[
		{"op":"mul","args":[{"var":"x"},{"var":"x"}]},
		{"op":"mul","args":[{"var":"x"},{"const":3}]}]}}`
	w := do(t, mux, http.MethodPost, "/api/grad", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[GradResponse](t, w)
	assert.Equal(t, 10.0, resp.Value)
	assert.Equal(t, 7.0, resp.Grads["x"])
	assert.Len(t, resp.Graph.Nodes, 5)
	// x*x contributes a single x -> (x*x) edge.
	assert.Len(t, resp.Graph.Edges, 5)
	assert.False(t, resp.Graph.Truncated)

	w = do(t, mux, http.MethodPost, "/api/grad",
		`{"vars":{"x":3},"expr":{"op":"pow","args":[{"var":"x"}],"exponent":2}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[GradResponse](t, w)
	assert.Equal(t, 9.0, resp.Value)
	assert.Equal(t, 6.0, resp.Grads["x"])
}

func TestGradEndpointErrors(t *testing.T) {
	mux := newTestMux()
	tests := []struct {
		body, want string
	}{
		{`{"vars":{"x":1},"expr":{"op":"pow","args":[{"var":"x"}],"exponent":{"var":"x"}}}`, "exponent must be a real constant"},
		{`{"vars":{"x":1},"expr":{"op":"pow","args":[{"var":"x"}],"exponent":"2"}}`, "exponent must be a real constant"},
		{`{"vars":{"x":1},"expr":{"op":"pow","args":[{"var":"x"}]}}`, "exponent must be a real constant"},
		{`{"expr":{"var":"y"}}`, "unknown variable"},
		{`{"expr":{"op":"sin","args":[{"const":1}]}}`, "unknown op"},
		{`{"expr":{"op":"add","args":[{"const":1}]}}`, "takes 2 argument"},
		{`{"expr":{}}`, "needs one of"},
	}
	for _, tc := range tests {
		w := do(t, mux, http.MethodPost, "/api/grad", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.True(t, strings.Contains(w.Body.String(), tc.want), "%s: %s", tc.body, w.Body.String())
	}
}

// checkGraphArithmetic asserts every + and * node carries the sum or product
// of its operands' data as sent on the wire.
func checkGraphArithmetic(t *testing.T, g GraphResponse) (adds, muls int) {
	t.Helper()
	data := make(map[uint64]float64, len(g.Nodes))
	for _, n := range g.Nodes {
		data[n.ID] = n.Data
	}
	in := make(map[uint64][]uint64)
	for _, e := range g.Edges {
		in[e.To] = append(in[e.To], e.From)
	}
	for _, n := range g.Nodes {
		if n.Op != "*" && n.Op != "+" {
			continue
		}
		// One incoming edge means both slots hold the same operand.
		ops := in[n.ID]
		require.NotEmpty(t, ops, "node %d", n.ID)
		a, b := data[ops[0]], data[ops[len(ops)-1]]
		if n.Op == "*" {
			muls++
			assert.InDelta(t, a*b, n.Data, 1e-12, "node %d", n.ID)
		} else {
			adds++
			assert.InDelta(t, a+b, n.Data, 1e-12, "node %d", n.ID)
		}
	}
	return adds, muls
}

func TestGraphIsCapturedBeforeUpdate(t *testing.T) {
	mux := newTestMux()

	w := do(t, mux, http.MethodPost, "/api/init", `{"config":{"sizes":[2,2,1],"samples":4,"alpha":0.01,"learning_rate":0.5}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for i := 0; i < 2; i++ {
		w = do(t, mux, http.MethodPost, "/api/train", `{"steps_per_call":1}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		train := decode[TrainResponse](t, w)

		w = do(t, mux, http.MethodGet, "/api/graph?max_nodes=0", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		graph := decode[GraphResponse](t, w)
		require.False(t, graph.Truncated)
		require.Len(t, graph.Nodes, graph.Total)

		assert.Equal(t, graph.Root, graph.Nodes[0].ID)
		assert.InDelta(t, train.Loss, graph.Nodes[0].Data, 1e-12)
		adds, muls := checkGraphArithmetic(t, graph)
		assert.Positive(t, adds)
		assert.Positive(t, muls)
	}
}

func TestGraphCapturesLastStepOfCall(t *testing.T) {
	model, err := NewModel(Config{Sizes: []int{2, 3, 1}, Samples: 6}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Nil(t, model.lastGraph)

	_, err = TrainBatchedSteps(model, 3, 0)
	require.NoError(t, err)
	require.NotNil(t, model.lastGraph)
	checkGraphArithmetic(t, *model.lastGraph)

	// Truncating a served copy leaves the stored graph whole.
	full := len(model.lastGraph.Nodes)
	small := limitGraph(*model.lastGraph, 4)
	assert.Len(t, small.Nodes, 4)
	assert.True(t, small.Truncated)
	assert.Len(t, model.lastGraph.Nodes, full)
	assert.False(t, model.lastGraph.Truncated)
	kept := map[uint64]bool{}
	for _, n := range small.Nodes {
		kept[n.ID] = true
	}
	for _, e := range small.Edges {
		assert.True(t, kept[e.From] && kept[e.To], "%v", e)
	}
}

func TestNoiseZeroIsHonoured(t *testing.T) {
	mux := newTestMux()
	w := do(t, mux, http.MethodPost, "/api/init", `{"config":{"sizes":[2,2,1],"samples":10,"noise":0}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	initResp := decode[InitResponse](t, w)
	require.NotNil(t, initResp.Config.Noise)
	assert.Equal(t, 0.0, *initResp.Config.Noise)

	w = do(t, mux, http.MethodPost, "/api/init", `{"config":{"sizes":[2,2,1],"samples":10}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	initResp = decode[InitResponse](t, w)
	require.NotNil(t, initResp.Config.Noise)
	assert.Equal(t, defaultNoise, *initResp.Config.Noise)

	zero := 0.0
	model, err := NewModel(Config{Sizes: []int{2, 2, 1}, Samples: 10, Noise: &zero}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	for _, s := range model.Data {
		if s.Y < 0 {
			assert.InDelta(t, 1.0, math.Hypot(s.X[0], s.X[1]), 1e-12)
		} else {
			assert.InDelta(t, 1.0, math.Hypot(s.X[0]-1, s.X[1]-0.5), 1e-12)
		}
	}
}

func TestLossAddsL2OverParams(t *testing.T) {
	model, err := NewModel(Config{Sizes: []int{2, 2, 1}, Loss: "mse", Alpha: 0.5, Samples: 6}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	inputs, labels := inputsOf(model.Data), dataset.Labels(model.Data)
	scores, err := model.Scores(inputs)
	require.NoError(t, err)
	loss, err := model.Loss(scores, labels)
	require.NoError(t, err)

	dataLoss, err := nn.MSE(scores, labels)
	require.NoError(t, err)
	w := make([]float64, len(model.Params))
	for i, p := range model.Params {
		w[i] = p.Data()
	}
	assert.InDelta(t, dataLoss.Data()+0.5*floats.Dot(w, w), loss.Data(), 1e-9)

	// Every parameter gets the penalty's 2*alpha*p on top of its data gradient.
	loss.Backward()
	for _, p := range model.Params {
		assert.NotZero(t, p.Grad())
	}
}
