package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusFailed     OrderStatus = "failed"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// IsTerminal reports whether no further gateway callback may change the payment.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// Outcome is the result of a payment as reported by the gateway.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// GatewayStatusSuccessful is the only callback status treated as a paid order.
const GatewayStatusSuccessful = "successful"

func OutcomeFromGateway(status string) Outcome {
	if status == GatewayStatusSuccessful {
		return OutcomeSucceeded
	}
	return OutcomeFailed
}

// PaidAfterSettled reports a successful payment arriving for an order that
// was already closed without one. Money was captured and needs a refund.
func (o Outcome) PaidAfterSettled(current PaymentStatus) bool {
	return o == OutcomeSucceeded && current.IsTerminal() && current != PaymentStatusCompleted
}

// Statuses returns the order and payment status pair written for the outcome.
func (o Outcome) Statuses() (OrderStatus, PaymentStatus) {
	if o == OutcomeSucceeded {
		return StatusConfirmed, PaymentStatusCompleted
	}
	return StatusCancelled, PaymentStatusFailed
}

type Order struct {
	ID               string
	UserID           uint
	TotalAmount      decimal.Decimal
	Currency         string
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentReference *string
	TransactionID    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
