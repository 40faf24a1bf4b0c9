package app

import (
	"context"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/varfrog/msgstream/pkg/sdk"
	"go.uber.org/zap"
)

// Worker hosts generation runs. Each run gets its own Generator goroutine and channels, and nothing mutable is
// shared between runs.
type Worker struct {
	generator *Generator
	logger    *zap.Logger
}

// NewWorker is the constructor of Worker.
func NewWorker(generator *Generator, logger *zap.Logger) *Worker {
	return &Worker{
		generator: generator,
		logger:    logger,
	}
}

// Run starts a generation run for config and hands every record to recipient in the order it was produced.
// Returns once the run has finished, or with an error as soon as recipient fails, in which case the run is stopped.
func (s *Worker) Run(ctx context.Context, config sdk.GenerationConfig, recipient RecordRecipient) error {
	runID := uuid.New()
	logger := s.logger.With(zap.String("run_id", runID.String()))

	// Create a cancel function for stopping the generator without cancelling the passed-in ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		configCh = make(chan sdk.GenerationConfig, 1)
		recordCh = make(chan sdk.MessageRecord)
	)
	configCh <- config
	close(configCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.generator.StartLoop(ctx, configCh, recordCh)
	}()

	logger.Info("Generation run started", zap.String("key", config.Key), zap.Int("msg_count", config.MsgCount))

	var sent int
	for record := range recordCh {
		if err := recipient.SendRecord(ctx, record); err != nil {
			cancel()
			// Drain so that the generator can observe the cancellation and return
			for range recordCh {
			}
			<-done
			return errors.Wrapf(err, "send record %d to recipient", record.ID)
		}
		sent++
	}
	<-done

	if err := ctx.Err(); err != nil && sent < config.MsgCount {
		logger.Info("Generation run cancelled", zap.Int("sent", sent))
		return errors.Wrap(err, "generation run")
	}

	logger.Info("Generation run finished", zap.Int("sent", sent))
	return nil
}
