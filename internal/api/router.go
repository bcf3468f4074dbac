package api

import (
	"fuel-route-service/internal/api/handlers"
	"fuel-route-service/internal/platform/metrics"
	"fuel-route-service/internal/ports"
	"fuel-route-service/internal/services"
	"net/http"
)

// Deps are the collaborators the HTTP API is composed from.
type Deps struct {
	Routes    ports.RouteRepository
	Store     ports.EvaluationStore
	Evaluator *services.Evaluator
	Metrics   *metrics.Collector
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Repo: deps.Routes, Store: deps.Store}
	evalHandler := &handlers.EvaluationHandler{Evaluator: deps.Evaluator}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/routes", routeHandler.List)
	mux.HandleFunc("/routes/{id}/evaluations", routeHandler.Evaluations)
	mux.HandleFunc("/evaluations", evalHandler.Evaluate)
	mux.HandleFunc("/optimizations", evalHandler.Optimize)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	return requestIDMiddleware(loggingMiddleware(mux))
}
