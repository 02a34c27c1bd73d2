package order

import (
	"context"
	"errors"

	"esl-be/internal/logger"
	"esl-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	GetOrderForUser(ctx context.Context, orderID string, userID uint, isAdmin bool) (*Order, error)
	ApplyPaymentOutcome(
		ctx context.Context,
		orderID string,
		outcome Outcome,
		transactionID string,
	) (*Order, bool, error)
	AttachPaymentReference(ctx context.Context, orderID, reference string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, ErrOrderNotFound
	}
	return s.repo.GetByID(ctx, orderID)
}

// GetOrderForUser loads an order and enforces that non-admin callers own it.
func (s *service) GetOrderForUser(ctx context.Context, orderID string, userID uint, isAdmin bool) (*Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && o.UserID != userID {
		logger.FromCtx(ctx).Warn("order ownership check failed",
			zap.String("order_id", orderID),
			zap.Uint("user_id", userID),
		)
		return nil, ErrForbidden
	}

	return o, nil
}

func (s *service) ApplyPaymentOutcome(
	ctx context.Context,
	orderID string,
	outcome Outcome,
	transactionID string,
) (*Order, bool, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ApplyPaymentOutcome"),
		zap.String("order_id", orderID),
		zap.String("outcome", string(outcome)),
		zap.String("transaction_id", transactionID),
	)

	o, applied, err := s.repo.ApplyPaymentOutcome(ctx, orderID, outcome, transactionID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn("order not found for payment outcome")
		} else {
			log.Error("failed to apply payment outcome", zap.Error(err))
		}
		return nil, false, err
	}

	if !applied && outcome.PaidAfterSettled(o.PaymentStatus) {
		log.Error("payment succeeded for an order already closed, refund required",
			zap.String("status", string(o.Status)),
			zap.String("payment_status", string(o.PaymentStatus)),
			zap.String("settled_transaction_id", utils.PtrString(o.TransactionID)),
		)
		return o, false, nil
	}

	if !applied {
		log.Info("payment already settled, skipping update",
			zap.String("payment_status", string(o.PaymentStatus)),
			zap.String("settled_transaction_id", utils.PtrString(o.TransactionID)),
		)
		return o, false, nil
	}

	log.Info("order payment status updated",
		zap.String("status", string(o.Status)),
		zap.String("payment_status", string(o.PaymentStatus)),
	)
	return o, true, nil
}

func (s *service) AttachPaymentReference(ctx context.Context, orderID, reference string) error {
	if err := s.repo.AttachPaymentReference(ctx, orderID, reference); err != nil {
		logger.FromCtx(ctx).Error("failed to attach payment reference",
			zap.String("order_id", orderID),
			zap.String("reference", reference),
			zap.Error(err),
		)
		return err
	}
	return nil
}
