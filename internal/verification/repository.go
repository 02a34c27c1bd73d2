package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Repository interface {
	// Replace drops any outstanding codes for the email and stores c.
	Replace(ctx context.Context, c Code) error
	Consume(ctx context.Context, email, code string, now time.Time) (bool, error)
	// RecordFailedAttempt counts a wrong guess against the outstanding code
	// and deletes it once maxAttempts is reached.
	RecordFailedAttempt(ctx context.Context, email string, maxAttempts int) (exhausted bool, err error)
	DeleteExpiredForEmail(ctx context.Context, email string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Replace(ctx context.Context, c Code) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = $1`,
		c.Email,
	); err != nil {
		return fmt.Errorf("delete previous codes: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO verification_codes (email, code, expires_at) VALUES ($1, $2, $3)`,
		c.Email, c.Code, c.ExpiresAt,
	); err != nil {
		return fmt.Errorf("insert code: %w", err)
	}

	return tx.Commit()
}

func (r *repository) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM verification_codes
		WHERE email = $1 AND code = $2 AND expires_at > $3
		RETURNING id
	`, email, code, now).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) RecordFailedAttempt(ctx context.Context, email string, maxAttempts int) (exhausted bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var attempts int
	err = tx.QueryRowContext(ctx, `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE email = $1
		RETURNING attempts
	`, email).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		// nothing outstanding to count against
		return false, tx.Commit()
	}
	if err != nil {
		return false, fmt.Errorf("increment attempts: %w", err)
	}

	if attempts >= maxAttempts {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM verification_codes WHERE email = $1`,
			email,
		); err != nil {
			return false, fmt.Errorf("invalidate code: %w", err)
		}
		exhausted = true
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return exhausted, nil
}

func (r *repository) DeleteExpiredForEmail(ctx context.Context, email string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = $1 AND expires_at <= $2`,
		email, now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
