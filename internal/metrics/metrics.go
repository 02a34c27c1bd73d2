package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// WebhookStats counts callback deliveries by outcome.
type WebhookStats struct {
	Received       Counter
	Rejected       Counter
	Duplicates     Counter
	Applied        Counter
	AlreadySettled Counter
	// PaidAfterSettled counts successful payments for orders already closed.
	PaidAfterSettled Counter
	Failed           Counter

	processingMicros Counter
}

// ObserveProcessing accumulates time spent on deliveries that reached the
// order store.
func (s *WebhookStats) ObserveProcessing(d time.Duration) {
	s.processingMicros.Add(uint64(d.Microseconds()))
}

func (s *WebhookStats) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"received":           s.Received.Load(),
		"rejected":           s.Rejected.Load(),
		"duplicates":         s.Duplicates.Load(),
		"applied":            s.Applied.Load(),
		"already_settled":    s.AlreadySettled.Load(),
		"paid_after_settled": s.PaidAfterSettled.Load(),
		"failed":             s.Failed.Load(),
		"processing_micros":  s.processingMicros.Load(),
	}
}
