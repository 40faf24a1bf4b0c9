package app_test

import (
	"context"
	"github.com/benbjohnson/clock"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/varfrog/msgstream/generator/internal/app"
	mocks "github.com/varfrog/msgstream/generator/internal/app/mocks"
	"github.com/varfrog/msgstream/pkg/sdk"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"sync"
	"testing"
	"time"
)

// runGenerator runs a single generation run and collects everything it emits.
func runGenerator(ctx context.Context, generator *app.Generator, config sdk.GenerationConfig) []sdk.MessageRecord {
	configCh := make(chan sdk.GenerationConfig, 1)
	recordCh := make(chan sdk.MessageRecord)
	configCh <- config

	go generator.StartLoop(ctx, configCh, recordCh)

	var records []sdk.MessageRecord
	for record := range recordCh {
		records = append(records, record)
	}
	return records
}

func expectedRecords(config sdk.GenerationConfig) []sdk.MessageRecord {
	var records []sdk.MessageRecord
	for i := 0; i < config.MsgCount; i++ {
		records = append(records, sdk.NewMessageRecord(i, config.Key, config.Msg))
	}
	return records
}

func TestGenerator_StartLoop(t *testing.T) {
	t.Run("Emits msgCount records with increasing IDs and waits after each of them", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		g := NewWithT(t)

		config := sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 5, IntervalMs: 10}

		sleeper := mocks.NewMockSleeper(ctrl)
		sleeper.EXPECT().Sleep(gomock.Any(), 10*time.Millisecond).Return(nil).Times(5) // Assertion

		records := runGenerator(context.Background(), app.NewGenerator(sleeper, zap.NewNop()), config)

		g.Expect(records).To(Equal(expectedRecords(config)))
	})

	t.Run("Emits before waiting", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		g := NewWithT(t)

		configCh := make(chan sdk.GenerationConfig, 1)
		recordCh := make(chan sdk.MessageRecord)
		configCh <- sdk.GenerationConfig{Key: "K", Msg: "m", MsgCount: 1, IntervalMs: 1000}

		slept := make(chan struct{})
		sleeper := mocks.NewMockSleeper(ctrl)
		sleeper.EXPECT().Sleep(gomock.Any(), time.Second).DoAndReturn(func(context.Context, time.Duration) error {
			close(slept)
			return nil
		})

		go app.NewGenerator(sleeper, zap.NewNop()).StartLoop(context.Background(), configCh, recordCh)

		record := <-recordCh
		g.Expect(record).To(Equal(sdk.NewMessageRecord(0, "K", "m")))
		g.Eventually(slept).Should(BeClosed())
		g.Eventually(recordCh).Should(BeClosed())
	})

	t.Run("Zero count emits nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		sleeper := mocks.NewMockSleeper(ctrl)
		sleeper.EXPECT().Sleep(gomock.Any(), gomock.Any()).Times(0) // Assertion

		config := sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 0, IntervalMs: 10}
		records := runGenerator(context.Background(), app.NewGenerator(sleeper, zap.NewNop()), config)

		assert.Empty(t, records)
	})

	t.Run("Negative count emits nothing", func(t *testing.T) {
		config := sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: -3, IntervalMs: 10}
		records := runGenerator(context.Background(), app.NewGenerator(app.NewTimerSleeper(clock.New()), zap.NewNop()), config)

		assert.Empty(t, records)
	})

	t.Run("Zero interval emits back to back", func(t *testing.T) {
		g := NewWithT(t)

		config := sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 1000, IntervalMs: 0}

		start := time.Now()
		records := runGenerator(context.Background(), app.NewGenerator(app.NewTimerSleeper(clock.New()), zap.NewNop()), config)

		g.Expect(records).To(Equal(expectedRecords(config)))
		g.Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})

	t.Run("Elapsed time is about msgCount times the interval", func(t *testing.T) {
		g := NewWithT(t)

		interval := 20 * time.Millisecond
		config := sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 5, IntervalMs: 20}

		start := time.Now()
		records := runGenerator(context.Background(), app.NewGenerator(app.NewTimerSleeper(clock.New()), zap.NewNop()), config)
		elapsed := time.Since(start)

		g.Expect(records).To(HaveLen(5))
		g.Expect(elapsed).To(BeNumerically(">=", interval*5))
		g.Expect(elapsed).To(BeNumerically("<", interval*5+time.Second))
	})

	t.Run("Waits msgCount intervals on the clock", func(t *testing.T) {
		g := NewWithT(t)

		interval := 20 * time.Millisecond
		config := sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 5, IntervalMs: 20}

		mockClock := clock.NewMock()
		start := mockClock.Now()
		generator := app.NewGenerator(app.NewTimerSleeper(mockClock), zap.NewNop())

		done := make(chan []sdk.MessageRecord, 1)
		go func() {
			done <- runGenerator(context.Background(), generator, config)
		}()

		var records []sdk.MessageRecord
		g.Eventually(func() bool {
			mockClock.Add(interval)
			select {
			case records = <-done:
				return true
			default:
				return false
			}
		}, 5*time.Second).Should(BeTrue())

		g.Expect(records).To(Equal(expectedRecords(config)))
		g.Expect(mockClock.Now().Sub(start)).To(BeNumerically(">=", interval*5))
	})

	t.Run("Stops waiting once the context is cancelled", func(t *testing.T) {
		g := NewWithT(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		configCh := make(chan sdk.GenerationConfig, 1)
		recordCh := make(chan sdk.MessageRecord)
		configCh <- sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 10, IntervalMs: 60 * 60 * 1000}

		// The mock clock never reaches the end of the first wait
		generator := app.NewGenerator(app.NewTimerSleeper(clock.NewMock()), zap.NewNop())
		go generator.StartLoop(ctx, configCh, recordCh)

		g.Expect(<-recordCh).To(Equal(sdk.NewMessageRecord(0, "VWT", "HelloWorld")))
		cancel()

		g.Eventually(recordCh, 5*time.Second).Should(BeClosed())
	})

	t.Run("Stops emitting once the context is cancelled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		g := NewWithT(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Cancel while waiting after the second record
		var sleeps int
		sleeper := mocks.NewMockSleeper(ctrl)
		sleeper.EXPECT().Sleep(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ time.Duration) error {
			sleeps++
			if sleeps == 2 {
				cancel()
			}
			return ctx.Err()
		}).Times(2)

		config := sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 10, IntervalMs: 10}
		records := runGenerator(ctx, app.NewGenerator(sleeper, zap.NewNop()), config)

		g.Expect(records).To(Equal(expectedRecords(sdk.GenerationConfig{Key: "VWT", Msg: "HelloWorld", MsgCount: 2})))
	})

	t.Run("Emits nothing when the config channel closes without a config", func(t *testing.T) {
		g := NewWithT(t)

		configCh := make(chan sdk.GenerationConfig)
		recordCh := make(chan sdk.MessageRecord)
		close(configCh)

		go app.NewGenerator(app.NewTimerSleeper(clock.New()), zap.NewNop()).StartLoop(context.Background(), configCh, recordCh)

		g.Eventually(recordCh).Should(BeClosed())
	})

	t.Run("Independent runs do not interleave", func(t *testing.T) {
		g := NewWithT(t)

		generator := app.NewGenerator(app.NewTimerSleeper(clock.New()), zap.NewNop())
		configs := []sdk.GenerationConfig{
			{Key: "A", Msg: "first", MsgCount: 20, IntervalMs: 1},
			{Key: "B", Msg: "second", MsgCount: 30, IntervalMs: 0},
		}

		results := make([][]sdk.MessageRecord, len(configs))
		wg := sync.WaitGroup{}
		for i, config := range configs {
			wg.Add(1)
			go func(i int, config sdk.GenerationConfig) {
				defer wg.Done()
				results[i] = runGenerator(context.Background(), generator, config)
			}(i, config)
		}
		wg.Wait()

		for i, config := range configs {
			g.Expect(results[i]).To(Equal(expectedRecords(config)))
		}
	})
}
