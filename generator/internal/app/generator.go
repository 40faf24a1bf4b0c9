package app

import (
	"context"
	"github.com/varfrog/msgstream/pkg/sdk"
	"go.uber.org/zap"
)

// Generator produces the records of a generation run.
type Generator struct {
	sleeper Sleeper
	logger  *zap.Logger
}

// NewGenerator is the constructor of Generator.
// sleeper is used for the wait after each emitted record.
func NewGenerator(sleeper Sleeper, logger *zap.Logger) *Generator {
	return &Generator{
		sleeper: sleeper,
		logger:  logger,
	}
}

// StartLoop waits on channel "configCh" for a single sdk.GenerationConfig, then sends config.MsgCount records with
// IDs 0, 1, ... on channel "recordCh", waiting config.Interval() after each of them, the last one included.
// StartLoop closes "recordCh" when it returns. It returns early, without sending further records, when ctx is done
// or when "configCh" is closed before delivering a config.
func (s *Generator) StartLoop(
	ctx context.Context,
	configCh <-chan sdk.GenerationConfig,
	recordCh chan<- sdk.MessageRecord,
) {
	defer close(recordCh)

	var config sdk.GenerationConfig
	select {
	case <-ctx.Done():
		s.logger.Info("Not starting, context cancelled")
		return
	case c, ok := <-configCh:
		if !ok {
			s.logger.Info("Config channel closed before a config arrived")
			return
		}
		config = c
	}

	s.logger.Debug("Starting generation run",
		zap.String("key", config.Key),
		zap.Int("msg_count", config.MsgCount),
		zap.Duration("interval", config.Interval()))

	for i := 0; i < config.MsgCount; i++ {
		if ctx.Err() != nil {
			s.logger.Info("Stopping generation run, context cancelled", zap.Int("emitted", i))
			return
		}

		record := sdk.NewMessageRecord(i, config.Key, config.Msg)
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping generation run, context cancelled", zap.Int("emitted", i))
			return
		case recordCh <- record:
		}
		s.logger.Debug("Emitted record", zap.Int("record_id", record.ID))

		if err := s.sleeper.Sleep(ctx, config.Interval()); err != nil {
			s.logger.Info("Stopping generation run during wait", zap.Int("emitted", i+1), zap.Error(err))
			return
		}
	}

	s.logger.Debug("Generation run finished", zap.Int("emitted", config.MsgCount))
}
