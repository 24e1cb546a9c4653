package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minhtran/cashbook/internal/platform/lifecycle"
)

// Service provides business logic for wallet operations
type Service struct {
	repo Repository
}

// NewService creates a new wallet service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new wallet
func (s *Service) Create(ctx context.Context, w *Wallet) (*Wallet, error) {
	if err := w.ValidateCreate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, w.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check wallet name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateName
	}

	now := time.Now()
	w.ID = uuid.New()
	w.Status = lifecycle.StatusActive
	w.CreatedAt = now
	w.UpdatedAt = now

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return w, nil
}

// Get retrieves a wallet by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves wallets, optionally including tombstoned ones
func (s *Service) List(ctx context.Context, includeTombstoned bool) ([]*Wallet, error) {
	wallets, err := s.repo.List(ctx, includeTombstoned)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

// Update renames or retypes a wallet
func (s *Service) Update(ctx context.Context, w *Wallet) (*Wallet, error) {
	if err := w.ValidateUpdate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	if w.Name != existing.Name {
		exists, err := s.repo.ExistsByName(ctx, w.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check wallet name: %w", err)
		}
		if exists {
			return nil, ErrDuplicateName
		}
	}

	existing.Name = w.Name
	existing.Type = w.Type
	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	return existing, nil
}

// Delete tombstones a wallet; its postings stay in place for restore.
// Deleting an already-tombstoned wallet is a no-op success.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	st, changed := lifecycle.Tombstone(w.Status)
	if !changed {
		return nil
	}
	w.Status = st
	w.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, w); err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return nil
}

// Restore reactivates a tombstoned wallet
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	st, err := lifecycle.Restore(w.Status)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotTombstoned) {
			return nil, ErrActive
		}
		return nil, err
	}
	w.Status = st
	w.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	return w, nil
}

// WalletExists reports whether an active wallet with the ID exists. This is
// the ledger's wallet check; tombstoned wallets do not accept postings.
func (s *Service) WalletExists(ctx context.Context, id uuid.UUID) (bool, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return w.Status.IsActive(), nil
}
