package storage

import (
	"context"

	"yieldConnector/internal/model"
)

// Storage is a sink for indexed pool events.
type Storage interface {
	PutPoolEventBatch(ctx context.Context, events []model.PoolEventRecord) error
}

// CastSink records the outcome of casts. Action records of a cast arrive in a
// single batch, and only once the cast has committed.
type CastSink interface {
	PutActionBatch(ctx context.Context, records []model.ActionRecord) error
	PutCastFailure(ctx context.Context, failure model.CastFailure) error
}
