package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/platform/lifecycle"
)

// Transfer moves money between two wallets. It materializes as exactly two
// adjustment postings, one debit on the source wallet and one credit on the
// destination, created, edited and deleted together as a unit.
type Transfer struct {
	ID           uuid.UUID        `json:"id"`
	Date         time.Time        `json:"date"`
	Amount       decimal.Decimal  `json:"amount"` // always positive
	FromWalletID uuid.UUID        `json:"from_wallet_id"`
	ToWalletID   uuid.UUID        `json:"to_wallet_id"`
	Note         string           `json:"note"`
	OutPostingID uuid.UUID        `json:"out_posting_id"`
	InPostingID  uuid.UUID        `json:"in_posting_id"`
	Status       lifecycle.Status `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Clone returns a shallow copy of the transfer
func (t *Transfer) Clone() *Transfer {
	cp := *t
	return &cp
}

// CreateInput carries the caller-supplied fields for a new transfer
type CreateInput struct {
	Date         time.Time
	Amount       decimal.Decimal
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Note         string
}

// Validate checks the input fields
func (in *CreateInput) Validate() error {
	if in.FromWalletID == uuid.Nil || in.ToWalletID == uuid.Nil {
		return ErrInvalidWalletID
	}
	if in.FromWalletID == in.ToWalletID {
		return ErrSameWallet
	}
	if in.Amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if in.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Change carries the fields of a transfer edit; nil fields are left untouched
type Change struct {
	Amount *decimal.Decimal
	Date   *time.Time
	Note   *string
}
