package ports

import "context"

// Contract for caching encoded evaluation results by a deterministic key.
// A miss is reported with ok=false and a nil error.
type EvaluationCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}
