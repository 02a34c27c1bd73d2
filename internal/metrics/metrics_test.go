package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounter_Concurrent(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
			c.Add(2)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(150), c.Load())
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), time.Millisecond)
}

func TestWebhookStats_Snapshot(t *testing.T) {
	var s WebhookStats
	s.Received.Add(3)
	s.Rejected.Inc()
	s.Applied.Inc()
	s.Duplicates.Inc()
	s.PaidAfterSettled.Inc()
	s.ObserveProcessing(1500 * time.Microsecond)

	snap := s.Snapshot()
	assert.Equal(t, uint64(3), snap["received"])
	assert.Equal(t, uint64(1), snap["rejected"])
	assert.Equal(t, uint64(1), snap["applied"])
	assert.Equal(t, uint64(1), snap["duplicates"])
	assert.Equal(t, uint64(1), snap["paid_after_settled"])
	assert.Equal(t, uint64(0), snap["failed"])
	assert.Equal(t, uint64(1500), snap["processing_micros"])
}
