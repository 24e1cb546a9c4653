package debt

import (
	"context"

	"github.com/google/uuid"

	"github.com/minhtran/cashbook/internal/ledger"
)

// OrderRepository defines storage for orders
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
}

// JobRepository defines storage for workshop jobs
type JobRepository interface {
	CreateJob(ctx context.Context, j *WorkshopJob) error
	GetJob(ctx context.Context, id uuid.UUID) (*WorkshopJob, error)
	UpdateJob(ctx context.Context, j *WorkshopJob) error
}

// PostingReader is the read-only slice of the ledger the reconciliation
// needs: active postings linked to an order or a job.
type PostingReader interface {
	ListActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]*ledger.Posting, error)
	ListActiveByWorkshopJob(ctx context.Context, jobID uuid.UUID) ([]*ledger.Posting, error)
}
