package handlers

import (
	"fuel-route-service/internal/api/dto"
	"fuel-route-service/internal/services"
	"net/http"
)

// EvaluationHandler runs fuel evaluations and speed optimizations.
type EvaluationHandler struct {
	Evaluator *services.Evaluator
}

// Evaluate solves the speed profile of a route and reports its fuel use.
// Infeasible routes are a 200 with feasible=false and a null fuel total.
func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.EvaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	route, err := toRouteInput(req.RouteRequest)
	if err != nil {
		writeServiceError(w, r, "evaluate", err)
		return
	}

	svcReq := services.EvaluateRequest{
		Route:   route,
		Vehicle: toVehicleConfig(req.Vehicle),
	}
	if s := req.Solver; s != nil {
		svcReq.Solver = toSolverOptions(*s)
	}
	if s := req.Strategies; s != nil {
		svcReq.CompareStrategies = s.Compare
		svcReq.ConstantSpeed = s.ConstantSpeed
		svcReq.GradeAdaptive = services.GradeAdaptiveOptions{Base: s.GradeBase}
	}

	res, err := h.Evaluator.Evaluate(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, "evaluate", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toEvaluateResponse(res, req.IncludeSegments))
}

// Optimize runs the continuous speed optimizer. A result that did not converge
// is still a 200; clients must check converged and status.
func (h *EvaluationHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.OptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	route, err := toRouteInput(req.RouteRequest)
	if err != nil {
		writeServiceError(w, r, "optimize", err)
		return
	}

	svcReq := services.OptimizeRequest{
		Route:   route,
		Vehicle: toVehicleConfig(req.Vehicle),
	}
	if o := req.Optimizer; o != nil {
		svcReq.Options = toOptimizerOptions(*o)
	}

	res, err := h.Evaluator.Optimize(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, "optimize", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toOptimizeResponse(res))
}
