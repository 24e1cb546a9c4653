package debt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/ledger"
)

// Order is a sales order whose payment state is derived from linked income
// postings, never stored.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
}

// WorkshopJob is a subcontract job paid through linked expense postings
type WorkshopJob struct {
	ID             uuid.UUID       `json:"id"`
	WorkshopID     uuid.UUID       `json:"workshop_id"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NetAmount is the job amount net of discount, clamped at zero
func (j *WorkshopJob) NetAmount() decimal.Decimal {
	net := j.Amount.Sub(j.DiscountAmount)
	if net.Sign() < 0 {
		return decimal.Zero
	}
	return net
}

// PaymentStatus is the observed payment state of an order or job. It is
// recomputed on every read and can move backwards when a payment posting is
// deleted.
type PaymentStatus string

const (
	StatusUnpaid        PaymentStatus = "unpaid"
	StatusPartiallyPaid PaymentStatus = "partially_paid"
	StatusFullyPaid     PaymentStatus = "fully_paid"
)

// statusOf derives the payment status from paid against the target amount
func statusOf(paid, target decimal.Decimal) PaymentStatus {
	switch {
	case paid.Sign() <= 0:
		return StatusUnpaid
	case paid.GreaterThanOrEqual(target):
		return StatusFullyPaid
	default:
		return StatusPartiallyPaid
	}
}

// OrderDebt summarizes an order's payment state
type OrderDebt struct {
	Order  *Order          `json:"order"`
	Paid   decimal.Decimal `json:"paid"`
	Debt   decimal.Decimal `json:"debt"`
	Status PaymentStatus   `json:"status"`
}

// JobDebt summarizes a workshop job's payment state
type JobDebt struct {
	Job    *WorkshopJob    `json:"job"`
	Net    decimal.Decimal `json:"net"`
	Paid   decimal.Decimal `json:"paid"`
	Debt   decimal.Decimal `json:"debt"`
	Status PaymentStatus   `json:"status"`
}

// OrderPayments pairs an order's debt summary with its payment postings
type OrderPayments struct {
	OrderDebt
	Payments []*ledger.Posting `json:"payments"`
}

// JobPayments pairs a job's debt summary with its payment postings
type JobPayments struct {
	JobDebt
	Payments []*ledger.Posting `json:"payments"`
}

// clampDebt returns max(0, target - paid). Overpayment does not produce a
// negative debt or a carried credit; the excess stays visible as paid > target.
func clampDebt(target, paid decimal.Decimal) decimal.Decimal {
	d := target.Sub(paid)
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}
