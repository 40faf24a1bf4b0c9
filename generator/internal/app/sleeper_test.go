package app_test

import (
	"context"
	"github.com/benbjohnson/clock"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/varfrog/msgstream/generator/internal/app"
	"testing"
	"time"
)

func TestTimerSleeper(t *testing.T) {
	t.Run("Waits until the clock has moved by the duration", func(t *testing.T) {
		g := NewWithT(t)

		mockClock := clock.NewMock()
		sleeper := app.NewTimerSleeper(mockClock)
		start := mockClock.Now()

		done := make(chan error, 1)
		go func() {
			done <- sleeper.Sleep(context.Background(), 30*time.Millisecond)
		}()

		// The mock clock does not move on its own
		g.Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

		var err error
		g.Eventually(func() bool {
			mockClock.Add(10 * time.Millisecond)
			select {
			case err = <-done:
				return true
			default:
				return false
			}
		}, 5*time.Second).Should(BeTrue())

		g.Expect(err).To(BeNil())
		g.Expect(mockClock.Now().Sub(start)).To(BeNumerically(">=", 30*time.Millisecond))
	})

	t.Run("Waits for the duration on the wall clock", func(t *testing.T) {
		sleeper := app.NewTimerSleeper(clock.New())

		start := time.Now()
		assert.NoError(t, sleeper.Sleep(context.Background(), 30*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("Returns immediately for a zero duration", func(t *testing.T) {
		sleeper := app.NewTimerSleeper(clock.NewMock())

		assert.NoError(t, sleeper.Sleep(context.Background(), 0))
	})

	t.Run("Returns the context error when cancelled", func(t *testing.T) {
		g := NewWithT(t)

		sleeper := app.NewTimerSleeper(clock.NewMock())
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- sleeper.Sleep(ctx, time.Minute)
		}()
		cancel()

		var err error
		g.Eventually(done, 5*time.Second).Should(Receive(&err))
		g.Expect(err).To(MatchError(context.Canceled))
	})
}
