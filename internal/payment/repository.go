package payment

import (
	"context"
	"database/sql"
	"errors"
)

type Repository interface {
	SavePayment(ctx context.Context, p *Payment) error
	GetPaymentByReference(ctx context.Context, reference string) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, reference, status, transactionID string) error

	// SavePaymentWebhook records a delivery. alreadyProcessed is true when
	// an earlier delivery with the same key finished successfully.
	SavePaymentWebhook(ctx context.Context, event WebhookEvent) (webhookID int64, alreadyProcessed bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// SavePayment upserts on reference so a retried initiation refreshes the
// checkout url instead of failing.
func (r *repository) SavePayment(ctx context.Context, p *Payment) error {
	const q = `
	INSERT INTO payments (
		order_id,
		reference,
		provider,
		amount,
		currency,
		status,
		checkout_url
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (reference)
	DO UPDATE SET
		amount = EXCLUDED.amount,
		currency = EXCLUDED.currency,
		status = EXCLUDED.status,
		checkout_url = EXCLUDED.checkout_url,
		updated_at = now()
	RETURNING id, created_at, updated_at;
	`

	return r.db.QueryRowContext(ctx, q,
		p.OrderID,
		p.Reference,
		p.Provider,
		p.Amount,
		p.Currency,
		p.Status,
		p.CheckoutURL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repository) GetPaymentByReference(ctx context.Context, reference string) (*Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, reference, provider, amount, currency, status,
			checkout_url, transaction_id, created_at, updated_at
		FROM payments WHERE reference = $1
	`, reference)

	var p Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Reference, &p.Provider, &p.Amount, &p.Currency,
		&p.Status, &p.CheckoutURL, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, reference, status, transactionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1,
			transaction_id = COALESCE(NULLIF($2, ''), transaction_id),
			updated_at = now()
		WHERE reference = $3
	`, status, transactionID, reference)
	return err
}

func (r *repository) SavePaymentWebhook(ctx context.Context, event WebhookEvent) (int64, bool, error) {
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_key,
		reference,
		status,
		signature_valid,
		payload
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (provider, event_key)
	DO UPDATE SET
		attempts = payment_webhooks.attempts + 1,
		last_received_at = now()
	RETURNING id, processed_at IS NOT NULL;
	`

	var (
		id        int64
		processed bool
	)
	err := r.db.QueryRowContext(ctx, q,
		event.Provider,
		event.EventKey,
		event.Reference,
		event.Status,
		event.SignatureValid,
		[]byte(event.Payload),
	).Scan(&id, &processed)
	if err != nil {
		return 0, false, err
	}

	return id, processed, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
