package transfer

import "errors"

var (
	ErrTransferNotFound  = errors.New("transfer not found")
	ErrTransferActive    = errors.New("transfer is not tombstoned")
	ErrInvalidWalletID   = errors.New("invalid wallet ID")
	ErrSameWallet        = errors.New("source and destination wallets must differ")
	ErrNonPositiveAmount = errors.New("transfer amount must be positive")
	ErrMissingDate       = errors.New("transfer date is required")
)
