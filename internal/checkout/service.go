package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"esl-be/internal/logger"
	"esl-be/internal/order"
	"esl-be/internal/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const callbackPath = "/api/payment/callback"

type InitiateInput struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
}

type InitiateResult struct {
	PaymentURL string
	Reference  string
}

type VerifyInput struct {
	Reference string
	OrderID   string
}

// Caller identifies the authenticated user driving a checkout call.
type Caller struct {
	UserID  uint
	Email   string
	IsAdmin bool
}

type Service interface {
	Initiate(ctx context.Context, caller Caller, in InitiateInput) (*InitiateResult, error)
	Verify(ctx context.Context, caller Caller, in VerifyInput) (*payment.Verification, error)
}

type service struct {
	orderSvc    order.Service
	paymentRepo payment.Repository
	gateway     payment.Gateway
	baseURL     string
}

// NewService wires the checkout use-cases. baseURL is the public address
// the gateway calls back and redirects to.
func NewService(
	orderSvc order.Service,
	paymentRepo payment.Repository,
	gateway payment.Gateway,
	baseURL string,
) Service {
	return &service{
		orderSvc:    orderSvc,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

func (in InitiateInput) validate() error {
	if strings.TrimSpace(in.OrderID) == "" {
		return ErrMissingOrderID
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !isCurrencyCode(in.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

func isCurrencyCode(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (s *service) Initiate(ctx context.Context, caller Caller, in InitiateInput) (*InitiateResult, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Initiate"),
		zap.String("order_id", in.OrderID),
		zap.Uint("user_id", caller.UserID),
	)

	if err := in.validate(); err != nil {
		log.Warn("invalid initiate input", zap.Error(err))
		return nil, err
	}

	// 1️⃣ Load order, enforcing ownership
	o, err := s.orderSvc.GetOrderForUser(ctx, in.OrderID, caller.UserID, caller.IsAdmin)
	if err != nil {
		return nil, err
	}

	if o.PaymentStatus.IsTerminal() {
		log.Warn("order already settled", zap.String("payment_status", string(o.PaymentStatus)))
		return nil, ErrOrderSettled
	}
	if !o.TotalAmount.IsZero() && !o.TotalAmount.Equal(in.Amount) {
		log.Warn("amount mismatch",
			zap.String("requested", in.Amount.String()),
			zap.String("order_total", o.TotalAmount.String()),
		)
		return nil, ErrAmountMismatch
	}

	// 2️⃣ Ask the gateway for a checkout page
	reference := payment.BuildReference(o.ID)
	checkout, err := s.gateway.InitiatePayment(ctx, payment.InitiateRequest{
		Reference:   reference,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Customer:    payment.Customer{Email: caller.Email},
		CallbackURL: s.baseURL + callbackPath,
		ReturnURL:   fmt.Sprintf("%s/orders/%s", s.baseURL, o.ID),
		Title:       "Order " + o.ID,
		Description: "Payment for order " + o.ID,
	})
	if err != nil {
		log.Error("gateway initiate failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	// 3️⃣ Persist the attempt and link it to the order
	p := &payment.Payment{
		OrderID:     o.ID,
		Reference:   reference,
		Provider:    payment.ProviderPayChangu,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Status:      payment.StatusInitiated,
		CheckoutURL: checkout.CheckoutURL,
	}
	if err := s.paymentRepo.SavePayment(ctx, p); err != nil {
		log.Error("failed to save payment", zap.Error(err))
		return nil, err
	}

	if err := s.orderSvc.AttachPaymentReference(ctx, o.ID, reference); err != nil {
		if errors.Is(err, order.ErrOrderNotPayable) {
			return nil, ErrOrderSettled
		}
		return nil, err
	}

	log.Info("payment initiated", zap.String("reference", reference))

	return &InitiateResult{
		PaymentURL: checkout.CheckoutURL,
		Reference:  reference,
	}, nil
}

func (s *service) Verify(ctx context.Context, caller Caller, in VerifyInput) (*payment.Verification, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	in.OrderID = strings.TrimSpace(in.OrderID)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Verify"),
		zap.String("reference", in.Reference),
		zap.Uint("user_id", caller.UserID),
	)

	if in.Reference == "" {
		return nil, ErrMissingReference
	}

	refOrderID, err := payment.ParseReference(in.Reference)
	if err != nil {
		return nil, err
	}
	if in.OrderID == "" {
		in.OrderID = refOrderID
	}
	if refOrderID != in.OrderID {
		return nil, ErrReferenceMismatch
	}

	if _, err := s.orderSvc.GetOrderForUser(ctx, in.OrderID, caller.UserID, caller.IsAdmin); err != nil {
		return nil, err
	}

	p, err := s.paymentRepo.GetPaymentByReference(ctx, in.Reference)
	if err != nil {
		return nil, err
	}

	v, err := s.gateway.VerifyPayment(ctx, in.Reference)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return nil, err
		}
		log.Error("gateway verify failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	// The webhook owns the order transition; here only the payment row
	// is refreshed, and only once the gateway has a final answer.
	if status, final := verifiedStatus(v); final && status != p.Status {
		if err := s.paymentRepo.UpdatePaymentStatus(ctx, in.Reference, status, v.Data.Reference); err != nil {
			log.Warn("failed to refresh payment status", zap.Error(err))
		}
	}

	return v, nil
}

func verifiedStatus(v *payment.Verification) (string, bool) {
	switch {
	case v.Succeeded():
		return payment.StatusSuccessful, true
	case v.Data.Status == payment.StatusFailed:
		return payment.StatusFailed, true
	default:
		return "", false
	}
}
