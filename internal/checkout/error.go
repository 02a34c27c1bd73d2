package checkout

import "errors"

var (
	// -- Validation & Input --
	ErrMissingOrderID    = errors.New("orderId is required")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidCurrency   = errors.New("currency must be a 3-letter code")
	ErrAmountMismatch    = errors.New("amount does not match order total")
	ErrMissingReference  = errors.New("reference is required")
	ErrReferenceMismatch = errors.New("reference does not belong to order")

	// -- Resource State --
	ErrOrderSettled = errors.New("order payment already settled")

	// -- External Systems --
	ErrGatewayFailed = errors.New("payment gateway request failed")
)
