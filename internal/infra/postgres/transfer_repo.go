package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/platform/lifecycle"
	"github.com/minhtran/cashbook/internal/transfer"
)

// TransferRepository implements transfer.Repository using PostgreSQL
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new PostgreSQL transfer repository
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

const transferColumns = `
	id, date, amount::text, from_wallet_id, to_wallet_id, note,
	out_posting_id, in_posting_id, status, created_at, updated_at`

// Create inserts a transfer record
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	query := `
		INSERT INTO transfers (
			id, date, amount, from_wallet_id, to_wallet_id, note,
			out_posting_id, in_posting_id, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Date, t.Amount.String(), t.FromWalletID, t.ToWalletID, t.Note,
		t.OutPostingID, t.InPostingID, string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// Get retrieves a transfer by ID
func (r *TransferRepository) Get(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	t, err := scanTransfer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return t, nil
}

// Update replaces a transfer's mutable fields
func (r *TransferRepository) Update(ctx context.Context, t *transfer.Transfer) error {
	query := `
		UPDATE transfers
		SET date = $1, amount = $2, note = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.pool.Exec(ctx, query,
		t.Date, t.Amount.String(), t.Note, string(t.Status), t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transfer.ErrTransferNotFound
	}
	return nil
}

// Remove erases a transfer record permanently
func (r *TransferRepository) Remove(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove transfer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transfer.ErrTransferNotFound
	}
	return nil
}

// ListActiveByWallet returns active transfers touching the wallet, oldest first
func (r *TransferRepository) ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*transfer.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE (from_wallet_id = $1 OR to_wallet_id = $1) AND status = 'active'
		ORDER BY date, created_at
	`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*transfer.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}

func scanTransfer(row pgx.Row) (*transfer.Transfer, error) {
	t := &transfer.Transfer{}
	var amount, status string

	err := row.Scan(
		&t.ID,
		&t.Date,
		&amount,
		&t.FromWalletID,
		&t.ToWalletID,
		&t.Note,
		&t.OutPostingID,
		&t.InPostingID,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = lifecycle.Status(status)
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return t, nil
}
