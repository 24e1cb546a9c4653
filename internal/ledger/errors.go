package ledger

import "errors"

// Draft and change validation errors
var (
	ErrInvalidWalletID = errors.New("invalid wallet ID")
	ErrInvalidKind     = errors.New("invalid posting kind")
	ErrMissingDate     = errors.New("posting date is required")
	ErrZeroAmount      = errors.New("amount cannot be zero")
	ErrAmountSign      = errors.New("amount sign does not match posting kind")
)

// Lookup and lifecycle errors
var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrPostingNotFound = errors.New("posting not found")
	ErrPostingActive   = errors.New("posting is not tombstoned")
	// ErrPostingIsTransferLeg guards transfer legs from being mutated outside
	// their transfer; a half-edited transfer is not a valid state.
	ErrPostingIsTransferLeg = errors.New("posting belongs to a transfer and must be changed through it")
)

// ErrPartialTransfer reports that the second leg of a pair operation failed
// and the compensating rollback of the first leg failed too. It should never
// surface in normal operation.
var ErrPartialTransfer = errors.New("partial transfer state")
