package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the storage operations for wallets
type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	Get(ctx context.Context, id uuid.UUID) (*Wallet, error)
	// List returns wallets in creation order; tombstoned ones are included
	// only when includeTombstoned is set.
	List(ctx context.Context, includeTombstoned bool) ([]*Wallet, error)
	Update(ctx context.Context, w *Wallet) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}
