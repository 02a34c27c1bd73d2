package verification

import (
	"context"
	"time"

	"esl-be/internal/logger"

	"go.uber.org/zap"
)

// Sweeper periodically deletes expired verification codes.
type Sweeper struct {
	repo     Repository
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(repo Repository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{repo: repo, interval: interval, now: time.Now}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			logger.L().Error("verification sweep failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		logger.L().Info("verification sweep removed expired codes", zap.Int64("count", n))
	}
}
