package debt

import "errors"

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrJobNotFound           = errors.New("workshop job not found")
	ErrNegativeTotal         = errors.New("total cannot be negative")
	ErrNegativeDiscount      = errors.New("discount cannot be negative")
	ErrDiscountExceedsAmount = errors.New("discount cannot exceed the job amount")
	ErrInvalidCustomerID     = errors.New("invalid customer ID")
	ErrInvalidWorkshopID     = errors.New("invalid workshop ID")
)
