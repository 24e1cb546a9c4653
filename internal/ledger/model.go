package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/platform/lifecycle"
)

// Kind classifies a posting by what it represents in the cashbook
type Kind string

const (
	KindIncome     Kind = "income"     // money received, positive amount
	KindExpense    Kind = "expense"    // money paid out, negative amount
	KindAdjustment Kind = "adjustment" // manual correction or transfer leg, either sign
)

// IsValid checks if the kind is a known value
func (k Kind) IsValid() bool {
	switch k {
	case KindIncome, KindExpense, KindAdjustment:
		return true
	}
	return false
}

// Links connects a posting to the business records it settles or mirrors
type Links struct {
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	WorkshopJobID *uuid.UUID `json:"workshop_job_id,omitempty"`
	TransferID    *uuid.UUID `json:"transfer_id,omitempty"`
	// CounterpartID is the opposite leg of a transfer, kept for display.
	CounterpartID *uuid.UUID `json:"counterpart_id,omitempty"`
}

// IsTransferLeg returns true if the posting belongs to a transfer
func (l Links) IsTransferLeg() bool {
	return l.TransferID != nil
}

// Posting is a single signed-amount entry that mutates one wallet's balance.
// The wallet balance is always the fold of its active postings in (Date,
// Sequence) order; BalanceAfter is a cached projection of that fold, rebuilt
// by a recompute pass whenever history is mutated out of append-only order.
type Posting struct {
	ID           uuid.UUID        `json:"id"`
	WalletID     uuid.UUID        `json:"wallet_id"`
	Kind         Kind             `json:"kind"`
	Date         time.Time        `json:"date"`
	Amount       decimal.Decimal  `json:"amount"` // signed: positive credits the wallet
	CategoryID   *uuid.UUID       `json:"category_id,omitempty"`
	Links        Links            `json:"links"`
	Note         string           `json:"note"`
	BalanceAfter decimal.Decimal  `json:"balance_after"`
	Status       lifecycle.Status `json:"status"`
	// Sequence breaks same-date ties by insertion order; assigned by the
	// repository and never reassigned, so backdated inserts do not reshuffle
	// existing rows.
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Before reports whether p orders before q in the wallet's chronological order
func (p *Posting) Before(q *Posting) bool {
	if !p.Date.Equal(q.Date) {
		return p.Date.Before(q.Date)
	}
	return p.Sequence < q.Sequence
}

// Clone returns a shallow copy of the posting
func (p *Posting) Clone() *Posting {
	cp := *p
	return &cp
}

// PostingDraft carries the caller-supplied fields for a new posting
type PostingDraft struct {
	// ID is optional; the service assigns one when zero. Pre-assigned IDs let
	// the transfer coordinator record both leg IDs before they exist.
	ID         uuid.UUID
	WalletID   uuid.UUID
	Kind       Kind
	Date       time.Time
	Amount     decimal.Decimal
	CategoryID *uuid.UUID
	Links      Links
	Note       string
}

// Validate checks the draft fields
func (d *PostingDraft) Validate() error {
	if d.WalletID == uuid.Nil {
		return ErrInvalidWalletID
	}
	if !d.Kind.IsValid() {
		return ErrInvalidKind
	}
	if d.Date.IsZero() {
		return ErrMissingDate
	}
	if d.Amount.IsZero() {
		return ErrZeroAmount
	}
	return validateAmountSign(d.Kind, d.Amount)
}

// validateAmountSign enforces the sign convention per kind: income credits,
// expense debits, adjustments go either way.
func validateAmountSign(k Kind, amount decimal.Decimal) error {
	switch k {
	case KindIncome:
		if amount.Sign() < 0 {
			return ErrAmountSign
		}
	case KindExpense:
		if amount.Sign() > 0 {
			return ErrAmountSign
		}
	}
	return nil
}

// PostingChange carries the fields of an edit; nil fields are left untouched
type PostingChange struct {
	Amount     *decimal.Decimal
	Date       *time.Time
	Note       *string
	CategoryID *uuid.UUID
	Links      *Links
}

// HistoryFilter narrows a wallet history listing
type HistoryFilter struct {
	Kinds []Kind
	From  *time.Time
	To    *time.Time
	// TransferLegs filters postings by transfer membership: nil keeps both,
	// true keeps only transfer legs, false excludes them.
	TransferLegs *bool
}

func (f HistoryFilter) matches(p *Posting) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if p.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && p.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && p.Date.After(*f.To) {
		return false
	}
	if f.TransferLegs != nil && p.Links.IsTransferLeg() != *f.TransferLegs {
		return false
	}
	return true
}

// UsageSummary aggregates a wallet's activity over a period
type UsageSummary struct {
	WalletID         uuid.UUID       `json:"wallet_id"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	IncomeTotal      decimal.Decimal `json:"income_total"`
	ExpenseTotal     decimal.Decimal `json:"expense_total"` // absolute value
	AdjustmentsTotal decimal.Decimal `json:"adjustments_total"`
	Net              decimal.Decimal `json:"net"`
}
