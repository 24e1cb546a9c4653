package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/minhtran/cashbook/internal/platform/lifecycle"
)

// Type classifies where a wallet's money lives
type Type string

const (
	TypeCash  Type = "cash"
	TypeBank  Type = "bank"
	TypeOther Type = "other"
)

// IsValid checks if the wallet type is a known value
func (t Type) IsValid() bool {
	switch t {
	case TypeCash, TypeBank, TypeOther:
		return true
	}
	return false
}

// Wallet is a named money container. Its balance is never stored here; it is
// always the fold of the wallet's active postings in the ledger.
type Wallet struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Type      Type             `json:"type"`
	Status    lifecycle.Status `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ValidateCreate validates wallet fields for creation
func (w *Wallet) ValidateCreate() error {
	if w.Name == "" {
		return ErrMissingName
	}
	if len(w.Name) > 100 {
		return ErrNameTooLong
	}
	if !w.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// ValidateUpdate validates wallet fields for updates
func (w *Wallet) ValidateUpdate() error {
	if w.ID == uuid.Nil {
		return ErrInvalidID
	}
	return w.ValidateCreate()
}
