package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhtran/cashbook/internal/platform/lifecycle"
	"github.com/minhtran/cashbook/internal/platform/wallet"
)

// WalletRepository implements wallet.Repository using PostgreSQL
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create inserts a new wallet
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, name, type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.Name, string(w.Type), string(w.Status), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// Get retrieves a wallet by ID
func (r *WalletRepository) Get(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, name, type, status, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// List retrieves wallets in creation order, optionally including tombstoned ones
func (r *WalletRepository) List(ctx context.Context, includeTombstoned bool) ([]*wallet.Wallet, error) {
	query := `
		SELECT id, name, type, status, created_at, updated_at
		FROM wallets
		WHERE $1 OR status = 'active'
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, includeTombstoned)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*wallet.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}
	return wallets, nil
}

// Update replaces a wallet's mutable fields
func (r *WalletRepository) Update(ctx context.Context, w *wallet.Wallet) error {
	query := `
		UPDATE wallets
		SET name = $1, type = $2, status = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.pool.Exec(ctx, query,
		w.Name, string(w.Type), string(w.Status), w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return wallet.ErrNotFound
	}
	return nil
}

// ExistsByName checks whether an active wallet with the name exists
func (r *WalletRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM wallets WHERE name = $1 AND status = 'active')`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check wallet name: %w", err)
	}
	return exists, nil
}

func scanWallet(row pgx.Row) (*wallet.Wallet, error) {
	w := &wallet.Wallet{}
	var typ, status string

	err := row.Scan(&w.ID, &w.Name, &typ, &status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	w.Type = wallet.Type(typ)
	w.Status = lifecycle.Status(status)
	return w, nil
}
