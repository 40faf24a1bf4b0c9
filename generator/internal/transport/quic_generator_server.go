package transport

import (
	"context"
	"crypto/tls"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/varfrog/msgstream/generator/internal/app"
	"github.com/varfrog/msgstream/pkg/quichelper"
	"go.uber.org/zap"
	"time"
)

const (
	DefaultConfigReadTimeout = time.Second * 10
	DefaultCloseTimeout      = time.Second * 5
)

type QUICGeneratorServerConfig struct {
	TLSConfig          *tls.Config
	ListenAddr         string        // Address to listen on for listener connections, e.g. 127.0.0.1:5000
	ConfigReadTimeout  time.Duration // Max wait for a listener to send its config
	RecordWriteTimeout time.Duration // Write deadline for a single record, zero disables it
	CloseTimeout       time.Duration // Max wait for a listener to close the connection after the last record
}

// ConnAcceptor accepts QUIC connections, *quic.Listener implements it.
type ConnAcceptor interface {
	Accept(ctx context.Context) (quic.Connection, error)
}

// QUICGeneratorServer serves generation runs to listeners. Every connection carries a single run: the listener
// opens a stream and sends a config, the server streams the records back and closes its side of the stream.
type QUICGeneratorServer struct {
	config  QUICGeneratorServerConfig
	runPool *ants.Pool
	worker  *app.Worker
	logger  *zap.Logger
}

func NewQUICGeneratorServer(
	config QUICGeneratorServerConfig,
	runPool *ants.Pool,
	worker *app.Worker,
	logger *zap.Logger,
) *QUICGeneratorServer {
	if config.ConfigReadTimeout <= 0 {
		config.ConfigReadTimeout = DefaultConfigReadTimeout
	}
	if config.CloseTimeout <= 0 {
		config.CloseTimeout = DefaultCloseTimeout
	}
	return &QUICGeneratorServer{
		config:  config,
		runPool: runPool,
		worker:  worker,
		logger:  logger,
	}
}

// ListenAndServe listens on config.ListenAddr and calls AcceptRuns.
func (s *QUICGeneratorServer) ListenAndServe(ctx context.Context, quicConfig quic.Config) error {
	listener, err := quic.ListenAddr(s.config.ListenAddr, s.config.TLSConfig, &quicConfig)
	if err != nil {
		return errors.Wrap(err, "quic.ListenAddr")
	}
	defer func() {
		if err := listener.Close(); err != nil {
			s.logger.Warn("listener.Close", zap.Error(err))
		}
	}()

	s.logger.Info("Listening", zap.String("addr", listener.Addr().String()))
	return s.AcceptRuns(ctx, listener)
}

// AcceptRuns accepts connections until ctx is done and processes each of them on the run pool.
// Connections arriving while the pool is full are closed with quichelper.CodeBusy.
func (s *QUICGeneratorServer) AcceptRuns(ctx context.Context, listener ConnAcceptor) error {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping accepting connections, context cancelled")
			return nil
		default:
			s.logger.Debug("Waiting for a listener connection")
			conn, err := listener.Accept(ctx)
			if err != nil {
				if ctx.Err() != nil {
					s.logger.Info("Stopping accepting connections, context cancelled")
					return nil
				}
				return errors.Wrap(err, "listener.Accept")
			}
			s.logger.Info("Got a listener connection", zap.Stringer("remote_addr", conn.RemoteAddr()))

			err = s.runPool.Submit(func() {
				if err := s.processConnection(ctx, conn); err != nil {
					s.logger.Error("processConnection", zap.Error(err))
				}
			})
			if errors.Is(err, ants.ErrPoolOverload) {
				s.logger.Warn("Run pool is full, rejecting connection")
				_ = conn.CloseWithError(quichelper.CodeBusy, "too many runs")
				continue
			}
			if err != nil {
				return errors.Wrap(err, "runPool.Submit")
			}
		}
	}
}

func (s *QUICGeneratorServer) processConnection(ctx context.Context, conn quic.Connection) error {
	// Stop the run as soon as the listener goes away
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-conn.Context().Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	stream, err := s.acceptConfigStream(ctx, conn)
	if err != nil {
		_ = conn.CloseWithError(quichelper.CodeBadConfig, "no config stream")
		return errors.Wrap(err, "acceptConfigStream")
	}

	if err := stream.SetReadDeadline(time.Now().Add(s.config.ConfigReadTimeout)); err != nil {
		return errors.Wrap(err, "SetReadDeadline")
	}
	config, err := quichelper.ReceiveConfig(stream)
	if err != nil {
		var unmarshalErr *quichelper.UnmarshalError
		if errors.As(err, &unmarshalErr) {
			s.logger.Info("Got corrupt config, closing", zap.ByteString("config_body", unmarshalErr.Data))
		}
		_ = conn.CloseWithError(quichelper.CodeBadConfig, "cannot read config")
		return errors.Wrap(err, "ReceiveConfig")
	}

	err = s.worker.Run(ctx, config, NewQUICRecordRecipient(stream, s.config.RecordWriteTimeout))
	if err != nil {
		_ = conn.CloseWithError(quichelper.CodeRunFailed, "run failed")
		return errors.Wrap(err, "worker.Run")
	}

	// The end of the stream tells the listener that the run is over
	if err := stream.Close(); err != nil {
		return errors.Wrap(err, "stream.Close")
	}

	// Let the listener read everything and close the connection first
	select {
	case <-conn.Context().Done():
	case <-time.After(s.config.CloseTimeout):
		s.logger.Debug("Listener did not close the connection in time")
		_ = conn.CloseWithError(quichelper.CodeNoError, "")
	}
	return nil
}

func (s *QUICGeneratorServer) acceptConfigStream(ctx context.Context, conn quic.Connection) (quic.Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ConfigReadTimeout)
	defer cancel()

	stream, err := conn.AcceptStream(ctx) // Blocking call
	if err != nil {
		return nil, errors.Wrap(err, "AcceptStream")
	}
	return stream, nil
}
