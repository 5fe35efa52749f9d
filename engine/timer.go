package engine

import (
	"time"

	"github.com/loov/hrtime"
)

// Timer measures elapsed time with the high resolution clock.
type Timer struct {
	start time.Duration
}

func NewTimer() *Timer {
	return &Timer{start: hrtime.Now()}
}

func (t *Timer) Reset() {
	t.start = hrtime.Now()
}

func (t *Timer) Elapsed() time.Duration {
	return hrtime.Since(t.start)
}

func (t *Timer) ElapsedMillis() float64 {
	return float64(t.Elapsed()) / float64(time.Millisecond)
}

// Lap returns the time since the last Reset or Lap and starts a new measurement.
func (t *Timer) Lap() time.Duration {
	now := hrtime.Now()
	elapsed := now - t.start
	t.start = now
	return elapsed
}
