package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"esl-be/internal/logger"
	"esl-be/internal/metrics"
	"esl-be/internal/order"
	"esl-be/internal/payment"
	"esl-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// CallbackPayload is the JSON PayChangu posts on payment completion.
type CallbackPayload struct {
	Status        string          `json:"status"`
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

// eventKey identifies a delivery for deduplication.
func (p CallbackPayload) eventKey() string {
	if p.TransactionID != "" {
		return p.TransactionID
	}
	return p.Reference + ":" + p.Status
}

type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type Handler struct {
	OrderSvc    order.Service
	PaymentRepo payment.Repository
	Verifier    *payment.SignatureVerifier
	Stats       *metrics.WebhookStats
	now         func() time.Time
}

func NewWebhookHandler(orderSvc order.Service, paymentRepo payment.Repository, verifier *payment.SignatureVerifier) *Handler {
	return &Handler{
		OrderSvc:    orderSvc,
		PaymentRepo: paymentRepo,
		Verifier:    verifier,
		Stats:       &metrics.WebhookStats{},
		now:         time.Now,
	}
}

// Health answers GET /api/payment/callback.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Message:   "Payment callback endpoint is live",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Callback answers POST /api/payment/callback.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("provider", payment.ProviderPayChangu))
	h.Stats.Received.Inc()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.Stats.Rejected.Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("webhook body too large", zap.Int64("limit", tooLarge.Limit))
			utils.WriteJSONError(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Warn("failed to read webhook body", zap.Error(err))
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Verifier.Verify(r.Header.Get(payment.SignatureHeader), body); err != nil {
		log.Warn("webhook rejected", zap.Error(err))
		h.Stats.Rejected.Inc()
		utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var payload CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("invalid webhook payload", zap.Error(err))
		h.Stats.Rejected.Inc()
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("reference", payload.Reference),
		zap.String("status", payload.Status),
		zap.String("transaction_id", payload.TransactionID),
		zap.String("amount", payload.Amount.String()),
		zap.String("currency", payload.Currency),
	)
	log.Info("webhook received")

	orderID, err := payment.ParseReference(payload.Reference)
	if err != nil {
		log.Warn("webhook reference rejected", zap.Error(err))
		h.Stats.Rejected.Inc()
		utils.WriteJSONError(w, "invalid payment reference", http.StatusBadRequest)
		return
	}

	webhookID, processed, err := h.PaymentRepo.SavePaymentWebhook(ctx, payment.WebhookEvent{
		Provider:       payment.ProviderPayChangu,
		EventKey:       payload.eventKey(),
		Reference:      payload.Reference,
		Status:         payload.Status,
		SignatureValid: true,
		Payload:        json.RawMessage(body),
	})
	if err != nil {
		log.Error("failed to record webhook", zap.Error(err))
		utils.WriteJSONError(w, "failed to record webhook", http.StatusInternalServerError)
		return
	}

	if processed {
		log.Info("duplicate webhook ignored", zap.Int64("webhook_id", webhookID))
		h.Stats.Duplicates.Inc()
		utils.WriteJSON(w, http.StatusOK, AckResponse{Success: true, Message: "Webhook already processed"})
		return
	}

	log = log.With(zap.Int64("webhook_id", webhookID), zap.String("order_id", orderID))

	outcome := order.OutcomeFromGateway(payload.Status)
	timer := metrics.StartTimer()
	o, applied, err := h.OrderSvc.ApplyPaymentOutcome(ctx, orderID, outcome, payload.TransactionID)
	h.Stats.ObserveProcessing(timer.Duration())
	if err != nil {
		h.Stats.Failed.Inc()
		h.markFailed(ctx, log, webhookID, err.Error())

		// 500 either way so the gateway redelivers.
		msg := "failed to update order"
		if errors.Is(err, order.ErrOrderNotFound) {
			msg = "order not found"
		}
		utils.WriteJSONError(w, msg, http.StatusInternalServerError)
		return
	}

	if applied {
		h.Stats.Applied.Inc()
		paymentStatus := payment.StatusFailed
		if outcome == order.OutcomeSucceeded {
			paymentStatus = payment.StatusSuccessful
		}
		if err := h.PaymentRepo.UpdatePaymentStatus(ctx, payload.Reference, paymentStatus, payload.TransactionID); err != nil {
			log.Warn("failed to update payment record", zap.Error(err))
		}
	}

	if err := h.PaymentRepo.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Warn("failed to mark webhook processed", zap.Error(err))
	}

	message := fmt.Sprintf("Order %s marked %s/%s", o.ID, o.Status, o.PaymentStatus)
	if !applied {
		h.Stats.AlreadySettled.Inc()
		if outcome.PaidAfterSettled(o.PaymentStatus) {
			h.Stats.PaidAfterSettled.Inc()
		}
		message = fmt.Sprintf("Order %s already settled as %s/%s", o.ID, o.Status, o.PaymentStatus)
	}

	log.Info("webhook processed",
		zap.Bool("applied", applied),
		zap.String("order_status", string(o.Status)),
		zap.String("payment_status", string(o.PaymentStatus)),
	)

	utils.WriteJSON(w, http.StatusOK, AckResponse{Success: true, Message: message})
}

func (h *Handler) markFailed(ctx context.Context, log *zap.Logger, webhookID int64, reason string) {
	if err := h.PaymentRepo.MarkWebhookFailed(ctx, webhookID, reason); err != nil {
		log.Warn("failed to mark webhook failed", zap.Error(err))
	}
}

// StatsHandler answers GET /internal/metrics/webhooks for trusted callers only.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !utils.IsInternalRequest(r.Context()) {
		utils.WriteJSONError(w, "not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.Stats.Snapshot())
}
