package rest

import (
	"errors"
	"net/http"

	"esl-be/internal/checkout"
	"esl-be/internal/logger"
	"esl-be/internal/order"
	"esl-be/internal/payment"
	"esl-be/internal/user"
	"esl-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InitiateRequest struct {
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type InitiateResponse struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"payment_url"`
	Reference  string `json:"reference"`
}

type VerifyRequest struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
}

type PaymentHandler struct {
	Checkout checkout.Service
}

func NewPaymentHandler(svc checkout.Service) *PaymentHandler {
	return &PaymentHandler{Checkout: svc}
}

func callerFrom(r *http.Request) (checkout.Caller, bool) {
	ctx := r.Context()
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return checkout.Caller{}, false
	}
	return checkout.Caller{
		UserID:  userID,
		Email:   utils.GetUserEmailFromContext(ctx),
		IsAdmin: utils.GetUserRoleFromContext(ctx) == string(user.RoleAdmin),
	}, true
}

// Initiate answers POST /api/payment/initiate.
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req InitiateRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.Checkout.Initiate(r.Context(), caller, checkout.InitiateInput{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, InitiateResponse{
		Success:    true,
		PaymentURL: res.PaymentURL,
		Reference:  res.Reference,
	})
}

// Verify answers POST /api/payment/verify with the gateway's payload.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := h.Checkout.Verify(r.Context(), caller, checkout.VerifyInput{
		Reference: req.Reference,
		OrderID:   req.OrderID,
	})
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}

	if len(v.Raw) == 0 {
		utils.WriteJSON(w, http.StatusOK, v)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(v.Raw)
}

func writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrMissingOrderID),
		errors.Is(err, checkout.ErrInvalidAmount),
		errors.Is(err, checkout.ErrInvalidCurrency),
		errors.Is(err, checkout.ErrAmountMismatch),
		errors.Is(err, checkout.ErrMissingReference),
		errors.Is(err, checkout.ErrReferenceMismatch),
		errors.Is(err, payment.ErrInvalidReference):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, order.ErrForbidden):
		utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkout.ErrOrderSettled):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		logger.FromCtx(r.Context()).Error("payment request failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
