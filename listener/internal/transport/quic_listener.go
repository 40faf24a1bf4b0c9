package transport

import (
	"context"
	"crypto/tls"
	"github.com/chzyer/logex"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/varfrog/msgstream/pkg/quichelper"
	"github.com/varfrog/msgstream/pkg/sdk"
	"go.uber.org/zap"
	"io"
)

type QUICListenerConfig struct {
	TLSConfig  *tls.Config
	ServerAddr string
}

// QUICListener is the main process of this service.
// It asks a generator for a generation run and receives the records as they are produced.
type QUICListener struct {
	config     QUICListenerConfig
	quicConfig quic.Config
	onRecord   func(record sdk.MessageRecord)
	logger     *zap.Logger
}

// NewQUICListener is the constructor for QUICListener. onRecord, when not nil, is called for every record in the
// order they arrive.
func NewQUICListener(
	config QUICListenerConfig,
	quicConfig quic.Config,
	onRecord func(record sdk.MessageRecord),
	logger *zap.Logger,
) *QUICListener {
	return &QUICListener{
		config:     config,
		quicConfig: quicConfig,
		onRecord:   onRecord,
		logger:     logger,
	}
}

// Run requests a generation run for generationConfig and returns all received records once the generator has ended
// the stream. Records received before a failure are returned along with the error.
func (s *QUICListener) Run(ctx context.Context, generationConfig sdk.GenerationConfig) ([]sdk.MessageRecord, error) {
	// Connect to the server
	s.logger.Info("Connecting to the generator", zap.String("addr", s.config.ServerAddr))
	conn, err := quic.DialAddr(ctx, s.config.ServerAddr, s.config.TLSConfig, &s.quicConfig)
	if err != nil {
		return nil, errors.Wrap(err, "quic.DialAddr")
	}
	defer func() {
		_ = conn.CloseWithError(quichelper.CodeNoError, "")
		logex.Info("Shutting down")
	}()
	s.logger.Info("Connected to the generator")

	stream, err := conn.OpenStreamSync(ctx) // Blocking call
	if err != nil {
		return nil, errors.Wrap(err, "OpenStreamSync")
	}

	if err := quichelper.SendConfig(stream, generationConfig); err != nil {
		return nil, errors.Wrap(err, "SendConfig")
	}
	// Nothing else goes to the generator on this stream
	if err := stream.Close(); err != nil {
		return nil, errors.Wrap(err, "stream.Close")
	}
	s.logger.Info("Requested a generation run",
		zap.String("key", generationConfig.Key),
		zap.Int("msg_count", generationConfig.MsgCount))

	return s.listenForRecords(ctx, stream)
}

// listenForRecords reads records until the generator ends the stream or ctx is done.
func (s *QUICListener) listenForRecords(ctx context.Context, stream quic.ReceiveStream) ([]sdk.MessageRecord, error) {
	// Unblock the pending Read when ctx is done
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			stream.CancelRead(quichelper.StreamCodeCancelled)
		case <-done:
		}
	}()

	var records []sdk.MessageRecord
	reader := quichelper.NewRecordReader(stream)
	for {
		record, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("Generation run finished", zap.Int("received", len(records)))
				return records, nil
			}
			if ctx.Err() != nil {
				s.logger.Info("Stopping receiving records as context is cancelled")
				return records, nil
			}
			var unmarshalErr *quichelper.UnmarshalError
			if errors.As(err, &unmarshalErr) {
				s.logger.Info("Got corrupt record, ignoring", zap.ByteString("record_body", unmarshalErr.Data))
				continue
			}
			return records, errors.Wrap(err, "RecordReader.Next")
		}

		s.logger.Debug("Received record", zap.Int("record_id", record.ID))
		records = append(records, record)
		if s.onRecord != nil {
			s.onRecord(record)
		}
	}
}
