package wallet

import "errors"

var (
	ErrNotFound      = errors.New("wallet not found")
	ErrActive        = errors.New("wallet is not tombstoned")
	ErrInvalidID     = errors.New("invalid wallet ID")
	ErrMissingName   = errors.New("wallet name is required")
	ErrNameTooLong   = errors.New("wallet name exceeds 100 characters")
	ErrInvalidType   = errors.New("invalid wallet type")
	ErrDuplicateName = errors.New("wallet name already exists")
)
