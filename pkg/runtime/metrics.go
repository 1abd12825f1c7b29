package runtime

import (
	"sync"
	"time"
)

// Metrics is a snapshot of executor activity.
type Metrics struct {
	ExecutedCount    int64 `json:"executed"`
	DroppedCount     int64 `json:"dropped"`
	PanicCount       int64 `json:"panics"`
	LastExecutedTime int64 `json:"last_executed_ns"`
	CallbackTimeAvg  int64 `json:"callback_avg_us"` // in microseconds
	CallbackTimeMax  int64 `json:"callback_max_us"` // in microseconds
	QueueLength      int   `json:"queue_length"`
	QueueCapacity    int   `json:"queue_capacity"`
}

type executorMetrics struct {
	mu sync.Mutex
	m  Metrics
}

func (em *executorMetrics) recordExecuted(d time.Duration, panicked bool) {
	us := d.Microseconds()

	em.mu.Lock()
	defer em.mu.Unlock()

	em.m.ExecutedCount++
	em.m.LastExecutedTime = time.Now().UnixNano()
	if em.m.CallbackTimeAvg == 0 {
		em.m.CallbackTimeAvg = us
	} else {
		// Simple moving average
		em.m.CallbackTimeAvg = (em.m.CallbackTimeAvg + us) / 2
	}
	if us > em.m.CallbackTimeMax {
		em.m.CallbackTimeMax = us
	}
	if panicked {
		em.m.PanicCount++
	}
}

func (em *executorMetrics) recordDropped() int64 {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.m.DroppedCount++
	return em.m.DroppedCount
}

func (em *executorMetrics) snapshot() Metrics {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.m
}
