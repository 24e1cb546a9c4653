package debt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/ledger"
)

// Service derives paid and debt figures for orders and workshop jobs from
// currently active postings. Every query recomputes from scratch: the
// volumes are per-entity and human-scale, and a lock-free snapshot read that
// races a posting mutation simply observes the pre- or post-mutation state.
type Service struct {
	orders   OrderRepository
	jobs     JobRepository
	postings PostingReader
}

// NewService creates a new debt reconciliation service
func NewService(orders OrderRepository, jobs JobRepository, postings PostingReader) *Service {
	return &Service{orders: orders, jobs: jobs, postings: postings}
}

// CreateOrder records a new sales order
func (s *Service) CreateOrder(ctx context.Context, customerID uuid.UUID, total decimal.Decimal) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, ErrInvalidCustomerID
	}
	if total.Sign() < 0 {
		return nil, ErrNegativeTotal
	}

	o := &Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Total:      total,
		CreatedAt:  time.Now(),
	}
	if err := s.orders.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return o, nil
}

// CreateWorkshopJob records a new subcontract job
func (s *Service) CreateWorkshopJob(ctx context.Context, workshopID uuid.UUID, amount, discount decimal.Decimal) (*WorkshopJob, error) {
	if workshopID == uuid.Nil {
		return nil, ErrInvalidWorkshopID
	}
	if amount.Sign() < 0 {
		return nil, ErrNegativeTotal
	}
	if discount.Sign() < 0 {
		return nil, ErrNegativeDiscount
	}
	if discount.GreaterThan(amount) {
		return nil, ErrDiscountExceedsAmount
	}

	j := &WorkshopJob{
		ID:             uuid.New(),
		WorkshopID:     workshopID,
		Amount:         amount,
		DiscountAmount: discount,
		CreatedAt:      time.Now(),
	}
	if err := s.jobs.CreateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to create workshop job: %w", err)
	}
	return j, nil
}

// OrderDebt derives the order's paid and debt figures: paid is the sum of
// active income postings linked to the order, debt is the total minus paid
// clamped at zero.
func (s *Service) OrderDebt(ctx context.Context, orderID uuid.UUID) (*OrderDebt, error) {
	summary, _, err := s.orderPayments(ctx, orderID)
	return summary, err
}

// OrderPayments returns the order's debt summary with its payment postings
func (s *Service) OrderPayments(ctx context.Context, orderID uuid.UUID) (*OrderPayments, error) {
	summary, payments, err := s.orderPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderPayments{OrderDebt: *summary, Payments: payments}, nil
}

// WorkshopJobDebt derives the job's paid and debt figures: net is the amount
// minus discount clamped at zero, paid is the sum of active expense postings
// linked to the job, debt is net minus paid clamped at zero.
func (s *Service) WorkshopJobDebt(ctx context.Context, jobID uuid.UUID) (*JobDebt, error) {
	summary, _, err := s.jobPayments(ctx, jobID)
	return summary, err
}

// JobPayments returns the job's debt summary with its payment postings
func (s *Service) JobPayments(ctx context.Context, jobID uuid.UUID) (*JobPayments, error) {
	summary, payments, err := s.jobPayments(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobPayments{JobDebt: *summary, Payments: payments}, nil
}

// UpdateDiscount changes a job's discount. Existing postings are untouched;
// only the derived net and debt shift on the next read.
func (s *Service) UpdateDiscount(ctx context.Context, jobID uuid.UUID, discount decimal.Decimal) (*WorkshopJob, error) {
	j, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if discount.Sign() < 0 {
		return nil, ErrNegativeDiscount
	}
	if discount.GreaterThan(j.Amount) {
		return nil, ErrDiscountExceedsAmount
	}

	j.DiscountAmount = discount
	if err := s.jobs.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to update workshop job: %w", err)
	}
	return j, nil
}

// GetOrder retrieves an order by ID
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetOrder(ctx, id)
}

// GetWorkshopJob retrieves a workshop job by ID
func (s *Service) GetWorkshopJob(ctx context.Context, id uuid.UUID) (*WorkshopJob, error) {
	return s.jobs.GetJob(ctx, id)
}

func (s *Service) orderPayments(ctx context.Context, orderID uuid.UUID) (*OrderDebt, []*ledger.Posting, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	linked, err := s.postings.ListActiveByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list order postings: %w", err)
	}

	paid := decimal.Zero
	payments := make([]*ledger.Posting, 0, len(linked))
	for _, p := range linked {
		if p.Kind != ledger.KindIncome {
			continue
		}
		paid = paid.Add(p.Amount)
		payments = append(payments, p)
	}

	return &OrderDebt{
		Order:  o,
		Paid:   paid,
		Debt:   clampDebt(o.Total, paid),
		Status: statusOf(paid, o.Total),
	}, payments, nil
}

func (s *Service) jobPayments(ctx context.Context, jobID uuid.UUID) (*JobDebt, []*ledger.Posting, error) {
	j, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	linked, err := s.postings.ListActiveByWorkshopJob(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list job postings: %w", err)
	}

	// Expense postings are stored with negative signed amounts; the paid
	// figure is the money that left the wallet, so negate.
	paid := decimal.Zero
	payments := make([]*ledger.Posting, 0, len(linked))
	for _, p := range linked {
		if p.Kind != ledger.KindExpense {
			continue
		}
		paid = paid.Add(p.Amount.Neg())
		payments = append(payments, p)
	}

	net := j.NetAmount()
	return &JobDebt{
		Job:    j,
		Net:    net,
		Paid:   paid,
		Debt:   clampDebt(net, paid),
		Status: statusOf(paid, net),
	}, payments, nil
}
