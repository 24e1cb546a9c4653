package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/ledger"
	"github.com/minhtran/cashbook/internal/platform/lifecycle"
)

// PostingRepository implements the ledger repository using PostgreSQL
type PostingRepository struct {
	pool *pgxpool.Pool
}

// NewPostingRepository creates a new PostgreSQL posting repository
func NewPostingRepository(pool *pgxpool.Pool) *PostingRepository {
	return &PostingRepository{pool: pool}
}

// Amounts travel as text so numeric values survive the round trip exactly.
const postingColumns = `
	id, wallet_id, kind, date, amount::text, category_id,
	order_id, workshop_job_id, transfer_id, counterpart_id,
	note, balance_after::text, status, sequence, created_at, updated_at`

// CreatePosting inserts a posting; the database assigns its sequence number
func (r *PostingRepository) CreatePosting(ctx context.Context, p *ledger.Posting) error {
	query := `
		INSERT INTO postings (
			id, wallet_id, kind, date, amount, category_id,
			order_id, workshop_job_id, transfer_id, counterpart_id,
			note, balance_after, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING sequence
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.WalletID,
		string(p.Kind),
		p.Date,
		p.Amount.String(),
		p.CategoryID,
		p.Links.OrderID,
		p.Links.WorkshopJobID,
		p.Links.TransferID,
		p.Links.CounterpartID,
		p.Note,
		p.BalanceAfter.String(),
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.Sequence)

	if err != nil {
		return fmt.Errorf("failed to create posting: %w", err)
	}
	return nil
}

// GetPosting retrieves a posting by ID
func (r *PostingRepository) GetPosting(ctx context.Context, id uuid.UUID) (*ledger.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM postings WHERE id = $1`

	p, err := scanPosting(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrPostingNotFound
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return p, nil
}

// UpdatePosting updates a posting's mutable fields
func (r *PostingRepository) UpdatePosting(ctx context.Context, p *ledger.Posting) error {
	query := `
		UPDATE postings
		SET date = $1, amount = $2, category_id = $3, order_id = $4,
		    workshop_job_id = $5, transfer_id = $6, counterpart_id = $7,
		    note = $8, balance_after = $9, status = $10, updated_at = $11
		WHERE id = $12
	`

	result, err := r.pool.Exec(ctx, query,
		p.Date,
		p.Amount.String(),
		p.CategoryID,
		p.Links.OrderID,
		p.Links.WorkshopJobID,
		p.Links.TransferID,
		p.Links.CounterpartID,
		p.Note,
		p.BalanceAfter.String(),
		string(p.Status),
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update posting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrPostingNotFound
	}
	return nil
}

// RemovePosting erases a posting permanently
func (r *PostingRepository) RemovePosting(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM postings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove posting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrPostingNotFound
	}
	return nil
}

// ListActiveByWallet returns the wallet's active postings in chronological order
func (r *PostingRepository) ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*ledger.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE wallet_id = $1 AND status = 'active'
		ORDER BY date, sequence
	`
	return r.listPostings(ctx, query, walletID)
}

// ListActiveByOrder returns active postings linked to the order
func (r *PostingRepository) ListActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]*ledger.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE order_id = $1 AND status = 'active'
		ORDER BY date, sequence
	`
	return r.listPostings(ctx, query, orderID)
}

// ListActiveByWorkshopJob returns active postings linked to the job
func (r *PostingRepository) ListActiveByWorkshopJob(ctx context.Context, jobID uuid.UUID) ([]*ledger.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE workshop_job_id = $1 AND status = 'active'
		ORDER BY date, sequence
	`
	return r.listPostings(ctx, query, jobID)
}

// UpdateBalances writes a recompute batch inside one transaction so the
// balance chain is never partially rewritten.
func (r *PostingRepository) UpdateBalances(ctx context.Context, walletID uuid.UUID, updates []ledger.BalanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		result, err := tx.Exec(ctx,
			`UPDATE postings SET balance_after = $1 WHERE id = $2 AND wallet_id = $3`,
			u.BalanceAfter.String(), u.PostingID, walletID,
		)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ledger.ErrPostingNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit balance updates: %w", err)
	}
	return nil
}

func (r *PostingRepository) listPostings(ctx context.Context, query string, arg any) ([]*ledger.Posting, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()

	var postings []*ledger.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating postings: %w", err)
	}
	return postings, nil
}

func scanPosting(row pgx.Row) (*ledger.Posting, error) {
	p := &ledger.Posting{}
	var kind, status, amount, balanceAfter string

	err := row.Scan(
		&p.ID,
		&p.WalletID,
		&kind,
		&p.Date,
		&amount,
		&p.CategoryID,
		&p.Links.OrderID,
		&p.Links.WorkshopJobID,
		&p.Links.TransferID,
		&p.Links.CounterpartID,
		&p.Note,
		&balanceAfter,
		&status,
		&p.Sequence,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Kind = ledger.Kind(kind)
	p.Status = lifecycle.Status(status)
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if p.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
		return nil, fmt.Errorf("invalid balance_after %q: %w", balanceAfter, err)
	}
	return p, nil
}
