package payment

import (
	"context"
	"errors"
)

type Gateway interface {
	InitiatePayment(ctx context.Context, req InitiateRequest) (*Checkout, error)
	VerifyPayment(ctx context.Context, reference string) (*Verification, error)
}

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidReference = errors.New("invalid payment reference")
	ErrPaymentNotFound  = errors.New("payment not found")
)
