package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Pair operations apply a transfer's two legs as one unit. Both wallet locks
// are held for the whole operation, taken in ascending ID order; when the
// second leg fails, the first is compensated synchronously before returning,
// so a one-legged transfer is never left visible.

// AppendPair creates both legs of a transfer. On second-leg failure the first
// leg is removed and its wallet's balance chain repaired.
func (s *Service) AppendPair(ctx context.Context, out, in PostingDraft) (*Posting, *Posting, error) {
	if err := out.Validate(); err != nil {
		return nil, nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	for _, walletID := range []uuid.UUID{out.WalletID, in.WalletID} {
		ok, err := s.wallets.WalletExists(ctx, walletID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check wallet: %w", err)
		}
		if !ok {
			return nil, nil, ErrWalletNotFound
		}
	}

	unlock := s.locks.lockPair(out.WalletID, in.WalletID)
	defer unlock()

	outP, err := s.appendLocked(ctx, out)
	if err != nil {
		return nil, nil, err
	}

	inP, err := s.appendLocked(ctx, in)
	if err != nil {
		if rbErr := s.removeLocked(ctx, outP.ID, out.WalletID); rbErr != nil {
			return nil, nil, fmt.Errorf("%w: append failed: %v, rollback failed: %v", ErrPartialTransfer, err, rbErr)
		}
		return nil, nil, err
	}

	return outP, inP, nil
}

// EditPair applies a change to both legs of a transfer. On second-leg failure
// the first leg is restored to its captured state.
func (s *Service) EditPair(ctx context.Context, outID, inID uuid.UUID, outCh, inCh PostingChange) (*Posting, *Posting, error) {
	outP, err := s.repo.GetPosting(ctx, outID)
	if err != nil {
		return nil, nil, err
	}
	inP, err := s.repo.GetPosting(ctx, inID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.lockPair(outP.WalletID, inP.WalletID)
	defer unlock()

	// Re-read under the lock so the rollback snapshot is current.
	orig, err := s.repo.GetPosting(ctx, outID)
	if err != nil {
		return nil, nil, err
	}

	outEdited, err := s.editLocked(ctx, outID, outCh)
	if err != nil {
		return nil, nil, err
	}

	inEdited, err := s.editLocked(ctx, inID, inCh)
	if err != nil {
		if rbErr := s.restoreSnapshotLocked(ctx, orig); rbErr != nil {
			return nil, nil, fmt.Errorf("%w: edit failed: %v, rollback failed: %v", ErrPartialTransfer, err, rbErr)
		}
		return nil, nil, err
	}

	return outEdited, inEdited, nil
}

// DeletePair tombstones both legs of a transfer. Each leg delete is
// idempotent, so a leg already tombstoned by a prior partial failure is
// completed rather than treated as an error.
func (s *Service) DeletePair(ctx context.Context, outID, inID uuid.UUID) error {
	outP, err := s.repo.GetPosting(ctx, outID)
	if err != nil {
		return err
	}
	inP, err := s.repo.GetPosting(ctx, inID)
	if err != nil {
		return err
	}

	unlock := s.locks.lockPair(outP.WalletID, inP.WalletID)
	defer unlock()

	orig, err := s.repo.GetPosting(ctx, outID)
	if err != nil {
		return err
	}

	if err := s.deleteLocked(ctx, outID); err != nil {
		return err
	}

	if err := s.deleteLocked(ctx, inID); err != nil {
		if rbErr := s.restoreSnapshotLocked(ctx, orig); rbErr != nil {
			return fmt.Errorf("%w: delete failed: %v, rollback failed: %v", ErrPartialTransfer, err, rbErr)
		}
		return err
	}

	return nil
}

// RestorePair reactivates both legs of a transfer. A leg that is already
// active (left over from a prior partial failure) is completed, not an error,
// mirroring DeletePair.
func (s *Service) RestorePair(ctx context.Context, outID, inID uuid.UUID) error {
	outP, err := s.repo.GetPosting(ctx, outID)
	if err != nil {
		return err
	}
	inP, err := s.repo.GetPosting(ctx, inID)
	if err != nil {
		return err
	}

	unlock := s.locks.lockPair(outP.WalletID, inP.WalletID)
	defer unlock()

	orig, err := s.repo.GetPosting(ctx, outID)
	if err != nil {
		return err
	}

	if _, err := s.restoreLocked(ctx, outID); err != nil && !errors.Is(err, ErrPostingActive) {
		return err
	}

	if _, err := s.restoreLocked(ctx, inID); err != nil && !errors.Is(err, ErrPostingActive) {
		if rbErr := s.restoreSnapshotLocked(ctx, orig); rbErr != nil {
			return fmt.Errorf("%w: restore failed: %v, rollback failed: %v", ErrPartialTransfer, err, rbErr)
		}
		return err
	}

	return nil
}

// removeLocked permanently erases a posting created by a failed pair append
// and repairs the wallet's balance chain.
func (s *Service) removeLocked(ctx context.Context, id, walletID uuid.UUID) error {
	if err := s.repo.RemovePosting(ctx, id); err != nil {
		return err
	}
	return s.recomputeLocked(ctx, walletID)
}

// restoreSnapshotLocked writes a captured posting state back and repairs the
// wallet's balance chain.
func (s *Service) restoreSnapshotLocked(ctx context.Context, snapshot *Posting) error {
	if err := s.repo.UpdatePosting(ctx, snapshot.Clone()); err != nil {
		return err
	}
	return s.recomputeLocked(ctx, snapshot.WalletID)
}
