package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/debt"
)

// OrderRepository implements debt.OrderRepository using PostgreSQL
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new PostgreSQL order repository
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateOrder inserts an order
func (r *OrderRepository) CreateOrder(ctx context.Context, o *debt.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, total, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, o.ID, o.CustomerID, o.Total.String(), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by ID
func (r *OrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*debt.Order, error) {
	query := `SELECT id, customer_id, total::text, created_at FROM orders WHERE id = $1`

	o := &debt.Order{}
	var total string
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.CustomerID, &total, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, debt.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total %q: %w", total, err)
	}
	return o, nil
}

// JobRepository implements debt.JobRepository using PostgreSQL
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new PostgreSQL workshop job repository
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// CreateJob inserts a workshop job
func (r *JobRepository) CreateJob(ctx context.Context, j *debt.WorkshopJob) error {
	query := `
		INSERT INTO workshop_jobs (id, workshop_id, amount, discount_amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		j.ID, j.WorkshopID, j.Amount.String(), j.DiscountAmount.String(), j.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workshop job: %w", err)
	}
	return nil
}

// GetJob retrieves a workshop job by ID
func (r *JobRepository) GetJob(ctx context.Context, id uuid.UUID) (*debt.WorkshopJob, error) {
	query := `
		SELECT id, workshop_id, amount::text, discount_amount::text, created_at
		FROM workshop_jobs
		WHERE id = $1
	`

	j := &debt.WorkshopJob{}
	var amount, discount string
	err := r.pool.QueryRow(ctx, query, id).Scan(&j.ID, &j.WorkshopID, &amount, &discount, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, debt.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get workshop job: %w", err)
	}
	if j.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if j.DiscountAmount, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("invalid discount_amount %q: %w", discount, err)
	}
	return j, nil
}

// UpdateJob replaces a workshop job's mutable fields
func (r *JobRepository) UpdateJob(ctx context.Context, j *debt.WorkshopJob) error {
	query := `
		UPDATE workshop_jobs
		SET amount = $1, discount_amount = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, j.Amount.String(), j.DiscountAmount.String(), j.ID)
	if err != nil {
		return fmt.Errorf("failed to update workshop job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return debt.ErrJobNotFound
	}
	return nil
}
