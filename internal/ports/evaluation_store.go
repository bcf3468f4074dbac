package ports

import (
	"context"
	"fuel-route-service/internal/domain"
)

// Port: persistence for evaluation summaries.
type EvaluationStore interface {
	SaveEvaluation(ctx context.Context, rec domain.EvaluationRecord) error
	// Return the most recent evaluations of a route, newest first.
	ListEvaluations(ctx context.Context, routeID string, limit int) ([]domain.EvaluationRecord, error)
}
