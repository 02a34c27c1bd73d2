package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const ProviderPayChangu = "PAYCHANGU"

const (
	StatusInitiated  = "initiated"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
)

type Payment struct {
	ID            int64
	OrderID       string
	Reference     string
	Provider      string
	Amount        decimal.Decimal
	Currency      string
	Status        string
	CheckoutURL   string
	TransactionID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Customer struct {
	Email     string
	FirstName string
	LastName  string
}

type InitiateRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Customer    Customer
	CallbackURL string
	ReturnURL   string
	Title       string
	Description string
}

type Checkout struct {
	Reference   string
	CheckoutURL string
	Status      string
	RawResponse json.RawMessage
}

// Verification is the gateway's view of a transaction. Raw holds the
// untouched response body so callers can forward it as-is.
type Verification struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    VerificationTxn `json:"data"`
	Raw     json.RawMessage `json:"-"`
}

type VerificationTxn struct {
	TxRef     string          `json:"tx_ref"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Charges   decimal.Decimal `json:"charges"`
	Mode      string          `json:"mode"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// Succeeded reports whether the gateway considers the transaction paid.
func (v *Verification) Succeeded() bool {
	return v.Data.Status == "success" || v.Data.Status == StatusSuccessful
}

// WebhookEvent is one recorded callback delivery.
type WebhookEvent struct {
	Provider       string
	EventKey       string
	Reference      string
	Status         string
	SignatureValid bool
	Payload        json.RawMessage
}
