package app

import (
	"context"
	"github.com/benbjohnson/clock"
	"runtime"
	"time"
)

// TimerSleeper implements Sleeper with timers of the given clock.
type TimerSleeper struct {
	clock clock.Clock
}

var _ Sleeper = (*TimerSleeper)(nil)

// NewTimerSleeper is the constructor of TimerSleeper. Pass clock.New() for wall-clock waits.
func NewTimerSleeper(clock clock.Clock) *TimerSleeper {
	return &TimerSleeper{clock: clock}
}

// Sleep waits for d. A non-positive d only yields to the scheduler.
func (s *TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}

	timer := s.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
