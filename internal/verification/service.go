package verification

import (
	"context"
	"time"

	"esl-be/internal/logger"
	"esl-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Issue(ctx context.Context, email string) (*Code, error)
	Verify(ctx context.Context, email, code string) error
}

type service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewService(repo Repository, ttl time.Duration) Service {
	return &service{repo: repo, ttl: ttl, now: time.Now}
}

func (s *service) Issue(ctx context.Context, email string) (*Code, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	c := Code{
		Email:     email,
		Code:      utils.GenerateNumericCode(CodeDigits),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.Replace(ctx, c); err != nil {
		logger.FromCtx(ctx).Error("failed to store verification code",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	return &c, nil
}

// Verify consumes a matching unexpired code. Expired codes for the email
// are pruned first so they can never match. Each miss is counted and the
// code is dropped after MaxAttempts misses.
func (s *service) Verify(ctx context.Context, email, code string) error {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return ErrMissingEmail
	}
	if code == "" {
		return ErrInvalidCode
	}

	now := s.now()
	log := logger.FromCtx(ctx).With(zap.String("email", email))

	if n, err := s.repo.DeleteExpiredForEmail(ctx, email, now); err != nil {
		log.Warn("failed to prune expired codes", zap.Error(err))
	} else if n > 0 {
		log.Debug("pruned expired codes", zap.Int64("count", n))
	}

	ok, err := s.repo.Consume(ctx, email, code, now)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	exhausted, err := s.repo.RecordFailedAttempt(ctx, email, MaxAttempts)
	if err != nil {
		log.Error("failed to record wrong verification code", zap.Error(err))
		return err
	}
	if exhausted {
		log.Warn("verification code invalidated after repeated misses")
		return ErrTooManyAttempts
	}
	return ErrInvalidCode
}
