package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"esl-be/internal/order"
	"esl-be/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService() (*service, *MockOrderService, *MockPaymentRepository, *MockGateway) {
	orderSvc := new(MockOrderService)
	payRepo := new(MockPaymentRepository)
	gw := new(MockGateway)
	svc := NewService(orderSvc, payRepo, gw, "https://shop.example.com/").(*service)
	return svc, orderSvc, payRepo, gw
}

func pendingOrder() *order.Order {
	return &order.Order{
		ID:            "abc123",
		UserID:        7,
		TotalAmount:   decimal.NewFromInt(50000),
		Currency:      "MWK",
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentStatusPending,
	}
}

func initiatedPayment() *payment.Payment {
	return &payment.Payment{
		OrderID:   "abc123",
		Reference: "ESL-abc123",
		Provider:  payment.ProviderPayChangu,
		Amount:    decimal.NewFromInt(50000),
		Currency:  "MWK",
		Status:    payment.StatusInitiated,
	}
}

var buyer = Caller{UserID: 7, Email: "buyer@example.com"}

func TestService_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()

		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		gw.On("InitiatePayment", ctx, mock.MatchedBy(func(req payment.InitiateRequest) bool {
			return req.Reference == "ESL-abc123" &&
				req.Amount.Equal(decimal.NewFromInt(50000)) &&
				req.Currency == "MWK" &&
				req.Customer.Email == "buyer@example.com" &&
				req.CallbackURL == "https://shop.example.com/api/payment/callback"
		})).Return(&payment.Checkout{Reference: "ESL-abc123", CheckoutURL: "https://pay.example/c/1"}, nil)
		payRepo.On("SavePayment", ctx, mock.MatchedBy(func(p *payment.Payment) bool {
			return p.Reference == "ESL-abc123" && p.Status == payment.StatusInitiated && p.CheckoutURL == "https://pay.example/c/1"
		})).Return(nil)
		orderSvc.On("AttachPaymentReference", ctx, "abc123", "ESL-abc123").Return(nil)

		res, err := svc.Initiate(ctx, buyer, InitiateInput{
			OrderID:  "abc123",
			Amount:   decimal.NewFromInt(50000),
			Currency: "mwk",
		})

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/c/1", res.PaymentURL)
		assert.Equal(t, "ESL-abc123", res.Reference)
		orderSvc.AssertExpectations(t)
		payRepo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("Validation", func(t *testing.T) {
		tests := []struct {
			name string
			in   InitiateInput
			err  error
		}{
			{"missing order", InitiateInput{Amount: decimal.NewFromInt(1), Currency: "MWK"}, ErrMissingOrderID},
			{"zero amount", InitiateInput{OrderID: "a", Amount: decimal.Zero, Currency: "MWK"}, ErrInvalidAmount},
			{"negative amount", InitiateInput{OrderID: "a", Amount: decimal.NewFromInt(-5), Currency: "MWK"}, ErrInvalidAmount},
			{"bad currency", InitiateInput{OrderID: "a", Amount: decimal.NewFromInt(1), Currency: "MW"}, ErrInvalidCurrency},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, orderSvc, _, gw := newTestService()

				_, err := svc.Initiate(ctx, buyer, tt.in)

				assert.ErrorIs(t, err, tt.err)
				orderSvc.AssertNotCalled(t, "GetOrderForUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				gw.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc, orderSvc, _, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(8), false).Return(nil, order.ErrForbidden)

		_, err := svc.Initiate(ctx, Caller{UserID: 8}, InitiateInput{
			OrderID: "abc123", Amount: decimal.NewFromInt(50000), Currency: "MWK",
		})

		assert.ErrorIs(t, err, order.ErrForbidden)
		gw.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
	})

	t.Run("Already_Settled", func(t *testing.T) {
		svc, orderSvc, _, gw := newTestService()
		o := pendingOrder()
		o.PaymentStatus = order.PaymentStatusCompleted
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(o, nil)

		_, err := svc.Initiate(ctx, buyer, InitiateInput{
			OrderID: "abc123", Amount: decimal.NewFromInt(50000), Currency: "MWK",
		})

		assert.ErrorIs(t, err, ErrOrderSettled)
		gw.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
	})

	t.Run("Amount_Mismatch", func(t *testing.T) {
		svc, orderSvc, _, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)

		_, err := svc.Initiate(ctx, buyer, InitiateInput{
			OrderID: "abc123", Amount: decimal.NewFromInt(10), Currency: "MWK",
		})

		assert.ErrorIs(t, err, ErrAmountMismatch)
		gw.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
	})

	t.Run("Gateway_Error", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		gw.On("InitiatePayment", ctx, mock.Anything).Return(nil, errors.New("timeout"))

		_, err := svc.Initiate(ctx, buyer, InitiateInput{
			OrderID: "abc123", Amount: decimal.NewFromInt(50000), Currency: "MWK",
		})

		assert.ErrorIs(t, err, ErrGatewayFailed)
		payRepo.AssertNotCalled(t, "SavePayment", mock.Anything, mock.Anything)
	})

	t.Run("Order_Not_Payable", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		gw.On("InitiatePayment", ctx, mock.Anything).Return(&payment.Checkout{CheckoutURL: "u"}, nil)
		payRepo.On("SavePayment", ctx, mock.Anything).Return(nil)
		orderSvc.On("AttachPaymentReference", ctx, "abc123", "ESL-abc123").Return(order.ErrOrderNotPayable)

		_, err := svc.Initiate(ctx, buyer, InitiateInput{
			OrderID: "abc123", Amount: decimal.NewFromInt(50000), Currency: "MWK",
		})

		assert.ErrorIs(t, err, ErrOrderSettled)
	})
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()

	verification := func(status string) *payment.Verification {
		return &payment.Verification{
			Status: "success",
			Data:   payment.VerificationTxn{TxRef: "ESL-abc123", Reference: "tx1", Status: status},
			Raw:    json.RawMessage(`{"status":"success"}`),
		}
	}

	t.Run("Success", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		payRepo.On("GetPaymentByReference", ctx, "ESL-abc123").Return(initiatedPayment(), nil)
		gw.On("VerifyPayment", ctx, "ESL-abc123").Return(verification("success"), nil)
		payRepo.On("UpdatePaymentStatus", ctx, "ESL-abc123", payment.StatusSuccessful, "tx1").Return(nil)

		v, err := svc.Verify(ctx, buyer, VerifyInput{Reference: "ESL-abc123", OrderID: "abc123"})

		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success"}`, string(v.Raw))
		payRepo.AssertExpectations(t)
	})

	t.Run("Pending_Leaves_Payment_Untouched", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		payRepo.On("GetPaymentByReference", ctx, "ESL-abc123").Return(initiatedPayment(), nil)
		gw.On("VerifyPayment", ctx, "ESL-abc123").Return(verification("pending"), nil)

		_, err := svc.Verify(ctx, buyer, VerifyInput{Reference: "ESL-abc123"})

		require.NoError(t, err)
		payRepo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Reference_Mismatch", func(t *testing.T) {
		svc, orderSvc, _, gw := newTestService()

		_, err := svc.Verify(ctx, buyer, VerifyInput{Reference: "ESL-abc123", OrderID: "other"})

		assert.ErrorIs(t, err, ErrReferenceMismatch)
		orderSvc.AssertNotCalled(t, "GetOrderForUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		gw.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
	})

	t.Run("Missing_Reference", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		_, err := svc.Verify(ctx, buyer, VerifyInput{OrderID: "abc123"})

		assert.ErrorIs(t, err, ErrMissingReference)
	})

	t.Run("Malformed_Reference", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		_, err := svc.Verify(ctx, buyer, VerifyInput{Reference: "abc123"})

		assert.ErrorIs(t, err, payment.ErrInvalidReference)
	})

	t.Run("Already_Recorded_Status_Not_Rewritten", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		settled := initiatedPayment()
		settled.Status = payment.StatusSuccessful
		payRepo.On("GetPaymentByReference", ctx, "ESL-abc123").Return(settled, nil)
		gw.On("VerifyPayment", ctx, "ESL-abc123").Return(verification("success"), nil)

		_, err := svc.Verify(ctx, buyer, VerifyInput{Reference: "ESL-abc123"})

		require.NoError(t, err)
		payRepo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Never_Initiated", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		payRepo.On("GetPaymentByReference", ctx, "ESL-abc123").Return(nil, payment.ErrPaymentNotFound)

		_, err := svc.Verify(ctx, buyer, VerifyInput{Reference: "ESL-abc123"})

		assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
		gw.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
	})

	t.Run("Not_Found_At_Gateway", func(t *testing.T) {
		svc, orderSvc, payRepo, gw := newTestService()
		orderSvc.On("GetOrderForUser", ctx, "abc123", uint(7), false).Return(pendingOrder(), nil)
		payRepo.On("GetPaymentByReference", ctx, "ESL-abc123").Return(initiatedPayment(), nil)
		gw.On("VerifyPayment", ctx, "ESL-abc123").Return(nil, payment.ErrPaymentNotFound)

		_, err := svc.Verify(ctx, buyer, VerifyInput{Reference: "ESL-abc123"})

		assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
	})
}

// --- Mocks ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderForUser(ctx context.Context, orderID string, userID uint, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, orderID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ApplyPaymentOutcome(ctx context.Context, orderID string, outcome order.Outcome, txID string) (*order.Order, bool, error) {
	args := m.Called(ctx, orderID, outcome, txID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*order.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderService) AttachPaymentReference(ctx context.Context, orderID, reference string) error {
	return m.Called(ctx, orderID, reference).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) GetPaymentByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdatePaymentStatus(ctx context.Context, reference, status, txID string) error {
	return m.Called(ctx, reference, status, txID).Error(0)
}

func (m *MockPaymentRepository) SavePaymentWebhook(ctx context.Context, event payment.WebhookEvent) (int64, bool, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepository) MarkWebhookProcessed(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPaymentRepository) MarkWebhookFailed(ctx context.Context, id int64, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitiatePayment(ctx context.Context, req payment.InitiateRequest) (*payment.Checkout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Checkout), args.Error(1)
}

func (m *MockGateway) VerifyPayment(ctx context.Context, reference string) (*payment.Verification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Verification), args.Error(1)
}
