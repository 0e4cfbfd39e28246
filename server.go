package main

import (
	"encoding/json"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
)

const defaultMaxGraphNodes = 500

// Server owns HTTP handlers and shared application state.
//
// Model is "network + data + optimizer"; Server is request handling and
// lifecycle wiring around it.
type Server struct {
	mu    sync.RWMutex
	model *Model
	rng   *rand.Rand
}

// NewServer creates an API server whose models draw from rng.
func NewServer(rng *rand.Rand) *Server {
	return &Server{rng: rng}
}

// RegisterRoutes attaches all endpoints to the provided mux. A nil webRoot
// serves no static files.
func (s *Server) RegisterRoutes(mux *http.ServeMux, webRoot fs.FS) {
	mux.HandleFunc("/api/init", s.handleInit)
	mux.HandleFunc("/api/train", s.handleTrain)
	mux.HandleFunc("/api/predict", s.handlePredict)
	mux.HandleFunc("/api/grad", s.handleGrad)
	mux.HandleFunc("/api/graph", s.handleGraph)
	if webRoot != nil {
		mux.Handle("/", http.FileServer(http.FS(webRoot)))
	}
}

// snapshot reads the current model with a shared lock.
func (s *Server) snapshot() *Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// setModel swaps the active model with an exclusive lock.
func (s *Server) setModel(model *Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// writeJSON is a helper to consistently send JSON responses.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeOptionalJSON decodes JSON when body is present.
// Empty bodies are treated as "use defaults" rather than errors.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req InitRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Each model owns its source.
	s.mu.Lock()
	rng := rand.New(rand.NewSource(s.rng.Int63()))
	s.mu.Unlock()

	model, err := NewModel(req.Config, rng)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.setModel(model)
	log.Printf("init: %s, %d params, %d %s samples", model.Net, len(model.Params), len(model.Data), model.Config.Dataset)

	writeJSON(w, http.StatusOK, InitResponse{
		Status:  "initialized",
		Params:  len(model.Params),
		Model:   model.Net.String(),
		Samples: len(model.Data),
		Config:  model.Config,
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	model := s.snapshot()
	if model == nil {
		http.Error(w, "Model not initialized", http.StatusBadRequest)
		return
	}

	req := TrainRequest{}
	if err := decodeOptionalJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stepsPerCall := req.StepsPerCall
	if stepsPerCall <= 0 {
		stepsPerCall = 1
	}
	if req.BatchSize < 0 {
		req.BatchSize = 0
	}

	// Lock model during forward/backward/update to avoid concurrent mutation.
	model.mu.Lock()
	defer model.mu.Unlock()

	resp, err := TrainBatchedSteps(model, stepsPerCall, req.BatchSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("train: step %d loss %.4f accuracy %.2f", resp.Step, resp.Loss, resp.Accuracy)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	model := s.snapshot()
	if model == nil {
		http.Error(w, "Model not initialized", http.StatusBadRequest)
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	scores, err := Predict(model, req.Inputs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, PredictResponse{Scores: scores})
}

// handleGrad needs no model: every request builds and differentiates its own
// graph.
func (s *Server) handleGrad(w http.ResponseWriter, r *http.Request) {
	var req GradRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := evaluate(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	model := s.snapshot()
	if model == nil {
		http.Error(w, "Model not initialized", http.StatusBadRequest)
		return
	}

	maxNodes := defaultMaxGraphNodes
	if v := r.URL.Query().Get("max_nodes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "max_nodes must be a non-negative integer", http.StatusBadRequest)
			return
		}
		maxNodes = n
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	if model.lastGraph == nil {
		http.Error(w, "No training step has run yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, limitGraph(*model.lastGraph, maxNodes))
}
