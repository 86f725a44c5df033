package repository

import (
	"context"
	"time"

	"senser/internal/domain"
)

// ReadingLedgerRepository durable reading ledger plus its continuous aggregate views
type ReadingLedgerRepository interface {
	// InsertReading appends one row; absent optional fields are stored as NULL
	InsertReading(ctx context.Context, sensorID int64, reading *domain.Reading) error

	// RefreshAggregate recomputes bucket's view over [from, to]
	RefreshAggregate(ctx context.Context, bucket domain.Bucket, from, to time.Time) error

	// QueryAggregate rows of the view ordered by bucket; empty slice when none
	QueryAggregate(ctx context.Context, q domain.AggregateQuery) ([]domain.AggregateRow, error)
}
