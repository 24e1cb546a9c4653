package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/platform/lifecycle"
)

// Service owns the posting sequences and running balances of all wallets.
// Mutations on a wallet are serialized by a per-wallet mutex for the duration
// of the write plus the recompute pass; reads take no locks and observe
// either the pre- or post-mutation state.
type Service struct {
	repo    Repository
	wallets WalletChecker
	locks   *walletLocks
}

// NewService creates a new ledger service
func NewService(repo Repository, wallets WalletChecker) *Service {
	return &Service{
		repo:    repo,
		wallets: wallets,
		locks:   newWalletLocks(),
	}
}

// AppendPosting validates and inserts a posting, ordered by date with ties
// broken by insertion order. A backdated insert triggers a recompute pass
// over the wallet's balance chain.
func (s *Service) AppendPosting(ctx context.Context, d PostingDraft) (*Posting, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.wallets.WalletExists(ctx, d.WalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to check wallet: %w", err)
	}
	if !ok {
		return nil, ErrWalletNotFound
	}

	unlock := s.locks.lock(d.WalletID)
	defer unlock()

	return s.appendLocked(ctx, d)
}

// EditPosting updates a posting's fields. Changing the amount or date
// triggers a recompute pass. Editing a tombstoned posting fails with
// ErrPostingNotFound; tombstoned rows are hidden from edits.
func (s *Service) EditPosting(ctx context.Context, id uuid.UUID, ch PostingChange) (*Posting, error) {
	p, err := s.repo.GetPosting(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Links.IsTransferLeg() {
		return nil, ErrPostingIsTransferLeg
	}

	unlock := s.locks.lock(p.WalletID)
	defer unlock()

	return s.editLocked(ctx, id, ch)
}

// DeletePosting tombstones a posting. Deleting an already-tombstoned posting
// is a no-op success so duplicate delete clicks and optimistic-update races
// stay harmless.
func (s *Service) DeletePosting(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetPosting(ctx, id)
	if err != nil {
		return err
	}
	if p.Links.IsTransferLeg() {
		return ErrPostingIsTransferLeg
	}

	unlock := s.locks.lock(p.WalletID)
	defer unlock()

	return s.deleteLocked(ctx, id)
}

// RestorePosting clears a posting's tombstone and rebuilds the balance chain.
// Restoring an active posting fails with ErrPostingActive.
func (s *Service) RestorePosting(ctx context.Context, id uuid.UUID) (*Posting, error) {
	p, err := s.repo.GetPosting(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Links.IsTransferLeg() {
		return nil, ErrPostingIsTransferLeg
	}

	unlock := s.locks.lock(p.WalletID)
	defer unlock()

	return s.restoreLocked(ctx, id)
}

// GetPosting retrieves a posting by ID
func (s *Service) GetPosting(ctx context.Context, id uuid.UUID) (*Posting, error) {
	return s.repo.GetPosting(ctx, id)
}

// Balance returns the wallet balance as of the given time: the BalanceAfter
// of the last active posting dated at or before asOf, or zero if none. A nil
// asOf means the current balance.
func (s *Service) Balance(ctx context.Context, walletID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	active, err := s.repo.ListActiveByWallet(ctx, walletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list postings: %w", err)
	}

	var last *Posting
	for _, p := range active {
		if asOf != nil && p.Date.After(*asOf) {
			continue
		}
		last = p
	}
	if last == nil {
		return decimal.Zero, nil
	}
	return last.BalanceAfter, nil
}

// History lists a wallet's active postings in chronological order, each with
// its running balance, optionally narrowed by a filter.
func (s *Service) History(ctx context.Context, walletID uuid.UUID, f HistoryFilter) ([]*Posting, error) {
	active, err := s.repo.ListActiveByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}

	out := make([]*Posting, 0, len(active))
	for _, p := range active {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// UsageSummary aggregates a wallet's active postings over [from, to]
func (s *Service) UsageSummary(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*UsageSummary, error) {
	active, err := s.repo.ListActiveByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}

	sum := &UsageSummary{
		WalletID: walletID,
		From:     from,
		To:       to,
	}
	for _, p := range active {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		switch p.Kind {
		case KindIncome:
			sum.IncomeTotal = sum.IncomeTotal.Add(p.Amount)
		case KindExpense:
			sum.ExpenseTotal = sum.ExpenseTotal.Add(p.Amount.Abs())
		case KindAdjustment:
			sum.AdjustmentsTotal = sum.AdjustmentsTotal.Add(p.Amount)
		}
	}
	sum.Net = sum.IncomeTotal.Sub(sum.ExpenseTotal).Add(sum.AdjustmentsTotal)
	return sum, nil
}

// appendLocked inserts a posting assuming the wallet lock is held
func (s *Service) appendLocked(ctx context.Context, d PostingDraft) (*Posting, error) {
	active, err := s.repo.ListActiveByWallet(ctx, d.WalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}

	now := time.Now()
	p := &Posting{
		ID:         d.ID,
		WalletID:   d.WalletID,
		Kind:       d.Kind,
		Date:       d.Date,
		Amount:     d.Amount,
		CategoryID: d.CategoryID,
		Links:      d.Links,
		Note:       d.Note,
		Status:     lifecycle.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	// The new posting goes after every active posting dated at or before it,
	// including same-date rows: its sequence is assigned at creation and the
	// tie-break is insertion order.
	var prev *Posting
	backdated := false
	for _, q := range active {
		if q.Date.After(p.Date) {
			backdated = true
		} else {
			prev = q
		}
	}
	if prev != nil {
		p.BalanceAfter = prev.BalanceAfter.Add(p.Amount)
	} else {
		p.BalanceAfter = p.Amount
	}

	if err := s.repo.CreatePosting(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create posting: %w", err)
	}

	if backdated {
		if err := s.recomputeLocked(ctx, d.WalletID); err != nil {
			return nil, err
		}
		// Re-read to pick up the recomputed running balance.
		return s.repo.GetPosting(ctx, p.ID)
	}
	return p, nil
}

// editLocked applies a change assuming the wallet lock is held
func (s *Service) editLocked(ctx context.Context, id uuid.UUID, ch PostingChange) (*Posting, error) {
	p, err := s.repo.GetPosting(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.IsTombstoned() {
		return nil, ErrPostingNotFound
	}

	needsRecompute := false
	if ch.Amount != nil && !ch.Amount.Equal(p.Amount) {
		if ch.Amount.IsZero() {
			return nil, ErrZeroAmount
		}
		if err := validateAmountSign(p.Kind, *ch.Amount); err != nil {
			return nil, err
		}
		p.Amount = *ch.Amount
		needsRecompute = true
	}
	if ch.Date != nil && !ch.Date.Equal(p.Date) {
		if ch.Date.IsZero() {
			return nil, ErrMissingDate
		}
		p.Date = *ch.Date
		needsRecompute = true
	}
	if ch.Note != nil {
		p.Note = *ch.Note
	}
	if ch.CategoryID != nil {
		p.CategoryID = ch.CategoryID
	}
	if ch.Links != nil {
		p.Links = *ch.Links
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.UpdatePosting(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update posting: %w", err)
	}

	if needsRecompute {
		if err := s.recomputeLocked(ctx, p.WalletID); err != nil {
			return nil, err
		}
		return s.repo.GetPosting(ctx, id)
	}
	return p, nil
}

// deleteLocked tombstones a posting assuming the wallet lock is held
func (s *Service) deleteLocked(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetPosting(ctx, id)
	if err != nil {
		return err
	}

	st, changed := lifecycle.Tombstone(p.Status)
	if !changed {
		return nil
	}
	p.Status = st
	p.UpdatedAt = time.Now()

	if err := s.repo.UpdatePosting(ctx, p); err != nil {
		return fmt.Errorf("failed to update posting: %w", err)
	}
	return s.recomputeLocked(ctx, p.WalletID)
}

// restoreLocked clears a tombstone assuming the wallet lock is held
func (s *Service) restoreLocked(ctx context.Context, id uuid.UUID) (*Posting, error) {
	p, err := s.repo.GetPosting(ctx, id)
	if err != nil {
		return nil, err
	}

	st, err := lifecycle.Restore(p.Status)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotTombstoned) {
			return nil, ErrPostingActive
		}
		return nil, err
	}
	p.Status = st
	p.UpdatedAt = time.Now()

	if err := s.repo.UpdatePosting(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update posting: %w", err)
	}
	if err := s.recomputeLocked(ctx, p.WalletID); err != nil {
		return nil, err
	}
	return s.repo.GetPosting(ctx, id)
}

// recomputeLocked rebuilds every active posting's running balance for the
// wallet and writes the changed values as one atomic batch. O(n) in the
// wallet's posting count, which stays human-scale for per-entity cashbooks.
func (s *Service) recomputeLocked(ctx context.Context, walletID uuid.UUID) error {
	active, err := s.repo.ListActiveByWallet(ctx, walletID)
	if err != nil {
		return fmt.Errorf("failed to list postings: %w", err)
	}

	running := decimal.Zero
	var updates []BalanceUpdate
	for _, p := range active {
		running = running.Add(p.Amount)
		if !p.BalanceAfter.Equal(running) {
			updates = append(updates, BalanceUpdate{PostingID: p.ID, BalanceAfter: running})
		}
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.repo.UpdateBalances(ctx, walletID, updates); err != nil {
		return fmt.Errorf("failed to write recomputed balances: %w", err)
	}
	return nil
}
