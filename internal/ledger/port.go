package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceUpdate rewrites one posting's cached running balance
type BalanceUpdate struct {
	PostingID    uuid.UUID
	BalanceAfter decimal.Decimal
}

// Repository defines the storage operations needed by the ledger.
// List methods return postings in (date, sequence) ascending order.
type Repository interface {
	CreatePosting(ctx context.Context, p *Posting) error
	GetPosting(ctx context.Context, id uuid.UUID) (*Posting, error)
	UpdatePosting(ctx context.Context, p *Posting) error
	// RemovePosting erases a posting permanently. It exists only to undo the
	// first leg of a failed pair append; tombstoning would leave a visible
	// record of a transfer that never completed.
	RemovePosting(ctx context.Context, id uuid.UUID) error

	ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*Posting, error)
	ListActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]*Posting, error)
	ListActiveByWorkshopJob(ctx context.Context, jobID uuid.UUID) ([]*Posting, error)

	// UpdateBalances applies a recompute pass atomically: either every update
	// is written or none is.
	UpdateBalances(ctx context.Context, walletID uuid.UUID, updates []BalanceUpdate) error
}

// WalletChecker verifies that a wallet exists and is active
type WalletChecker interface {
	WalletExists(ctx context.Context, id uuid.UUID) (bool, error)
}
