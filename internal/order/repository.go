package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository interface {
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ApplyPaymentOutcome(
		ctx context.Context,
		orderID string,
		outcome Outcome,
		transactionID string,
	) (*Order, bool, error)
	AttachPaymentReference(ctx context.Context, orderID, reference string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, user_id, total_amount, currency, status, payment_status,
	payment_reference, transaction_id, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.TotalAmount,
		&o.Currency,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentReference,
		&o.TransactionID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`,
		orderID,
	)
	return scanOrder(row)
}

// ApplyPaymentOutcome locks the order row and writes the status pair for the
// outcome unless the payment already reached a terminal state. The bool
// result reports whether a write happened.
func (r *repository) ApplyPaymentOutcome(
	ctx context.Context,
	orderID string,
	outcome Outcome,
	transactionID string,
) (*Order, bool, error) {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	current, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`,
		orderID,
	))
	if err != nil {
		return nil, false, err
	}

	if current.PaymentStatus.IsTerminal() {
		return current, false, tx.Commit()
	}

	status, paymentStatus := outcome.Statuses()

	updated, err := scanOrder(tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1,
			payment_status = $2,
			transaction_id = COALESCE(NULLIF($3, ''), transaction_id),
			updated_at = now()
		WHERE id = $4
		RETURNING `+orderColumns,
		status, paymentStatus, transactionID, orderID,
	))
	if err != nil {
		return nil, false, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit order status: %w", err)
	}

	return updated, true, nil
}

func (r *repository) AttachPaymentReference(ctx context.Context, orderID, reference string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_reference = $1,
			payment_status = $2,
			updated_at = now()
		WHERE id = $3 AND payment_status IN ($4, $2)
	`, reference, PaymentStatusProcessing, orderID, PaymentStatusPending)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotPayable
	}
	return nil
}
