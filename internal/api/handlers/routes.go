package handlers

import (
	"fuel-route-service/internal/api/dto"
	"fuel-route-service/internal/ports"
	"net/http"
	"strconv"
)

const (
	defaultEvaluationLimit = 20
	maxEvaluationLimit     = 200
)

// RouteHandler exposes stored routes and their evaluation history.
type RouteHandler struct {
	Repo  ports.RouteRepository
	Store ports.EvaluationStore
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	routes, err := h.Repo.ListRoutes(r.Context())
	if err != nil {
		writeServiceError(w, r, "list routes", err)
		return
	}

	res := dto.ListRoutesResponse{
		Routes: make([]dto.RouteResponse, 0, len(routes)),
	}
	for _, rt := range routes {
		res.Routes = append(res.Routes, dto.RouteResponse{
			RouteID:    rt.ID,
			Name:       rt.Name,
			PointCount: rt.PointCount,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Evaluations lists the most recent evaluations of the route in the path.
func (h *RouteHandler) Evaluations(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit := defaultEvaluationLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxEvaluationLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	id := r.PathValue("id")
	if _, err := h.Repo.GetRoute(r.Context(), id); err != nil {
		writeServiceError(w, r, "get route", err)
		return
	}

	recs, err := h.Store.ListEvaluations(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, r, "list evaluations", err)
		return
	}

	res := dto.ListEvaluationsResponse{
		Evaluations: make([]dto.EvaluationRecordResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		res.Evaluations = append(res.Evaluations, dto.EvaluationRecordResponse{
			EvaluationID: rec.ID,
			RouteID:      rec.RouteID,
			FuelKg:       finite(rec.FuelKg),
			TimeS:        rec.TimeS,
			DistanceM:    rec.DistanceM,
			Feasible:     rec.Feasible,
			Infeasible:   rec.Infeasible,
			ClampEvents:  rec.ClampEvents,
			CreatedAt:    rec.CreatedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
