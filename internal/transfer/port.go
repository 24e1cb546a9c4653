package transfer

import (
	"context"

	"github.com/google/uuid"

	"github.com/minhtran/cashbook/internal/ledger"
)

// Repository defines the storage operations for transfer records
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	Get(ctx context.Context, id uuid.UUID) (*Transfer, error)
	Update(ctx context.Context, t *Transfer) error
	// Remove erases a transfer record permanently; used only to undo a
	// transfer whose legs failed to apply.
	Remove(ctx context.Context, id uuid.UUID) error
	// ListActiveByWallet returns active transfers touching the wallet on
	// either side, in chronological order.
	ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*Transfer, error)
}

// Ledger is the pair-operation surface of the wallet ledger that the
// coordinator fans transfer mutations into.
type Ledger interface {
	AppendPair(ctx context.Context, out, in ledger.PostingDraft) (*ledger.Posting, *ledger.Posting, error)
	EditPair(ctx context.Context, outID, inID uuid.UUID, outCh, inCh ledger.PostingChange) (*ledger.Posting, *ledger.Posting, error)
	DeletePair(ctx context.Context, outID, inID uuid.UUID) error
	RestorePair(ctx context.Context, outID, inID uuid.UUID) error
}
