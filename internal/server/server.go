// Package server hosts the local development API over a solved project.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

// Server is the local dev server exposing solver artifacts as JSON.
type Server struct {
	projectPath string
	port        int

	mu        sync.Mutex
	artifacts *Artifacts
}

// New creates a server for the given project directory.
func New(projectPath string, port int) *Server {
	return &Server{
		projectPath: projectPath,
		port:        port,
	}
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/spec", s.handleSpec).Methods("GET")
	api.HandleFunc("/network", s.handleNetwork).Methods("GET")
	api.HandleFunc("/validation", s.handleValidation).Methods("GET")
	api.HandleFunc("/standards", s.handleStandards).Methods("GET")
	api.HandleFunc("/cost-benefit", s.handleCostBenefit).Methods("GET")
	api.HandleFunc("/solve", s.handleSolve).Methods("POST")

	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("heatgrid server starting", "addr", addr, "project", s.projectPath)

	return http.ListenAndServe(addr, r)
}

// solved runs the pipeline once and caches the artifacts; POST /api/solve
// refreshes the cache.
func (s *Server) solved(r *http.Request) (*Artifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifacts != nil {
		return s.artifacts, nil
	}
	artifacts, err := Solve(r.Context(), s.projectPath)
	if err != nil {
		return nil, err
	}
	s.artifacts = artifacts
	return artifacts, nil
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.artifacts = nil
	s.mu.Unlock()

	artifacts, err := s.solved(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, artifacts)
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.solved(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, artifacts.Spec)
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.solved(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, artifacts.Network)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.solved(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, artifacts.Validation)
}

func (s *Server) handleStandards(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.solved(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, artifacts.Standards)
}

func (s *Server) handleCostBenefit(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.solved(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, artifacts.CostBenefit)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
