package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"esl-be/internal/logger"

	"go.uber.org/zap"
)

const defaultPayChanguBaseURL = "https://api.paychangu.com"

type payChanguGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewPayChanguGateway(secretKey, baseURL string) Gateway {
	if secretKey == "" {
		logger.L().Warn("PayChangu secret key is empty")
	}
	if baseURL == "" {
		baseURL = defaultPayChanguBaseURL
	}

	return &payChanguGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type payChanguPaymentRequest struct {
	Amount        json.Number            `json:"amount"`
	Currency      string                 `json:"currency"`
	Email         string                 `json:"email,omitempty"`
	FirstName     string                 `json:"first_name,omitempty"`
	LastName      string                 `json:"last_name,omitempty"`
	CallbackURL   string                 `json:"callback_url"`
	ReturnURL     string                 `json:"return_url"`
	TxRef         string                 `json:"tx_ref"`
	Customization payChanguCustomization `json:"customization"`
}

type payChanguCustomization struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type payChanguPaymentResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    struct {
		Event       string `json:"event"`
		CheckoutURL string `json:"checkout_url"`
		Data        struct {
			TxRef  string `json:"tx_ref"`
			Status string `json:"status"`
		} `json:"data"`
	} `json:"data"`
}

// ----------------- InitiatePayment -----------------

func (p *payChanguGateway) InitiatePayment(ctx context.Context, req InitiateRequest) (*Checkout, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("reference", req.Reference),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency),
	)

	body := payChanguPaymentRequest{
		// sent as a bare JSON number, not decimal's quoted string
		Amount:      json.Number(req.Amount.String()),
		Currency:    req.Currency,
		Email:       req.Customer.Email,
		FirstName:   req.Customer.FirstName,
		LastName:    req.Customer.LastName,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
		TxRef:       req.Reference,
		Customization: payChanguCustomization{
			Title:       req.Title,
			Description: req.Description,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal payment request", zap.Error(err))
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/payment", bytes.NewReader(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}
	p.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Info("Sending payment request to PayChangu")

	bodyBytes, status, err := p.do(httpReq)
	if err != nil {
		log.Error("PayChangu request failed", zap.Error(err))
		return nil, err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		log.Error("PayChangu returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("paychangu error: %s", string(bodyBytes))
	}

	var res payChanguPaymentResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding PayChangu response", zap.Error(err))
		return nil, err
	}

	if res.Data.CheckoutURL == "" {
		log.Error("PayChangu response has no checkout url", zap.ByteString("response", bodyBytes))
		return nil, fmt.Errorf("paychangu error: missing checkout_url")
	}

	log.Info("PayChangu checkout created", zap.String("event", res.Data.Event))

	return &Checkout{
		Reference:   req.Reference,
		CheckoutURL: res.Data.CheckoutURL,
		Status:      res.Data.Data.Status,
		RawResponse: json.RawMessage(bodyBytes),
	}, nil
}

// ----------------- VerifyPayment -----------------

func (p *payChanguGateway) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	endpoint := p.baseURL + "/verify-payment/" + url.PathEscape(reference)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error("Failed building request", zap.Error(err))
		return nil, err
	}
	p.authorize(httpReq)

	bodyBytes, status, err := p.do(httpReq)
	if err != nil {
		log.Error("Request to PayChangu failed", zap.Error(err))
		return nil, err
	}

	if status == http.StatusNotFound {
		log.Warn("Transaction not found")
		return nil, ErrPaymentNotFound
	}

	if status != http.StatusOK {
		log.Error("PayChangu returned error",
			zap.Int("http_status", status),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("paychangu error: %s", string(bodyBytes))
	}

	var v Verification
	if err := json.Unmarshal(bodyBytes, &v); err != nil {
		log.Error("Failed decoding verification", zap.Error(err))
		return nil, err
	}
	v.Raw = json.RawMessage(bodyBytes)

	log.Info("PayChangu transaction verified",
		zap.String("status", v.Data.Status),
		zap.String("gateway_reference", v.Data.Reference),
	)

	return &v, nil
}

func (p *payChanguGateway) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")
}

func (p *payChanguGateway) do(req *http.Request) ([]byte, int, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read paychangu response: %w", err)
	}
	return bodyBytes, resp.StatusCode, nil
}
