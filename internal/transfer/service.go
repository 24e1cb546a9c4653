package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minhtran/cashbook/internal/ledger"
	"github.com/minhtran/cashbook/internal/platform/lifecycle"
)

// Service coordinates the two legs of a transfer so callers never see a
// half-applied one. Leg atomicity and per-wallet locking live in the ledger's
// pair operations; this service owns the transfer record and the
// equal-and-opposite invariant between the legs.
type Service struct {
	repo   Repository
	ledger Ledger
}

// NewService creates a new transfer service
func NewService(repo Repository, l Ledger) *Service {
	return &Service{repo: repo, ledger: l}
}

// Create validates and applies a new transfer: a negative adjustment posting
// on the source wallet and a positive one on the destination, cross-linked
// for the counterpart-wallet display. If the legs fail, the transfer record
// is removed before returning.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Transfer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	t := &Transfer{
		ID:           uuid.New(),
		Date:         in.Date,
		Amount:       in.Amount,
		FromWalletID: in.FromWalletID,
		ToWalletID:   in.ToWalletID,
		Note:         in.Note,
		OutPostingID: uuid.New(),
		InPostingID:  uuid.New(),
		Status:       lifecycle.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	out := ledger.PostingDraft{
		ID:       t.OutPostingID,
		WalletID: t.FromWalletID,
		Kind:     ledger.KindAdjustment,
		Date:     t.Date,
		Amount:   t.Amount.Neg(),
		Note:     t.Note,
		Links: ledger.Links{
			TransferID:    &t.ID,
			CounterpartID: &t.InPostingID,
		},
	}
	in2 := ledger.PostingDraft{
		ID:       t.InPostingID,
		WalletID: t.ToWalletID,
		Kind:     ledger.KindAdjustment,
		Date:     t.Date,
		Amount:   t.Amount,
		Note:     t.Note,
		Links: ledger.Links{
			TransferID:    &t.ID,
			CounterpartID: &t.OutPostingID,
		},
	}

	if _, _, err := s.ledger.AppendPair(ctx, out, in2); err != nil {
		if rbErr := s.repo.Remove(ctx, t.ID); rbErr != nil {
			return nil, fmt.Errorf("transfer legs failed: %w (record cleanup failed: %v)", err, rbErr)
		}
		return nil, err
	}

	return t, nil
}

// Edit updates both legs, keeping their amounts equal and opposite. A
// tombstoned transfer cannot be edited.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, ch Change) (*Transfer, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTombstoned() {
		return nil, ErrTransferNotFound
	}
	if ch.Amount != nil && ch.Amount.Sign() <= 0 {
		return nil, ErrNonPositiveAmount
	}

	orig := t.Clone()

	var outCh, inCh ledger.PostingChange
	if ch.Amount != nil {
		outAmt := ch.Amount.Neg()
		inAmt := *ch.Amount
		outCh.Amount = &outAmt
		inCh.Amount = &inAmt
		t.Amount = *ch.Amount
	}
	if ch.Date != nil {
		outCh.Date = ch.Date
		inCh.Date = ch.Date
		t.Date = *ch.Date
	}
	if ch.Note != nil {
		outCh.Note = ch.Note
		inCh.Note = ch.Note
		t.Note = *ch.Note
	}

	if _, _, err := s.ledger.EditPair(ctx, t.OutPostingID, t.InPostingID, outCh, inCh); err != nil {
		if errors.Is(err, ledger.ErrPostingNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}

	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		// Legs are already edited; put them back before reporting failure.
		s.revertLegs(ctx, orig)
		return nil, fmt.Errorf("failed to update transfer: %w", err)
	}

	return t, nil
}

// Delete tombstones the transfer and both legs. Deleting an already-deleted
// transfer is a no-op success; a leg tombstoned by a prior partial failure is
// completed rather than treated as an error.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.Status.IsTombstoned() {
		return nil
	}

	if err := s.ledger.DeletePair(ctx, t.OutPostingID, t.InPostingID); err != nil {
		return err
	}

	t.Status = lifecycle.StatusTombstoned
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		// Legs are tombstoned but the record is not; a retried delete
		// completes it because DeletePair is idempotent.
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	return nil
}

// Restore reactivates a tombstoned transfer and both legs
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	st, err := lifecycle.Restore(t.Status)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotTombstoned) {
			return nil, ErrTransferActive
		}
		return nil, err
	}

	if err := s.ledger.RestorePair(ctx, t.OutPostingID, t.InPostingID); err != nil {
		return nil, err
	}

	t.Status = st
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update transfer: %w", err)
	}
	return t, nil
}

// Get retrieves a transfer by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	return s.repo.Get(ctx, id)
}

// ListByWallet returns active transfers touching the wallet on either side
func (s *Service) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*Transfer, error) {
	return s.repo.ListActiveByWallet(ctx, walletID)
}

// revertLegs edits both legs back to the captured transfer state, best
// effort: the caller is already on an error path.
func (s *Service) revertLegs(ctx context.Context, orig *Transfer) {
	outAmt := orig.Amount.Neg()
	inAmt := orig.Amount
	date := orig.Date
	note := orig.Note
	_, _, _ = s.ledger.EditPair(ctx, orig.OutPostingID, orig.InPostingID,
		ledger.PostingChange{Amount: &outAmt, Date: &date, Note: &note},
		ledger.PostingChange{Amount: &inAmt, Date: &date, Note: &note},
	)
}
