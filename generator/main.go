package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"github.com/benbjohnson/clock"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/varfrog/msgstream/generator/internal/app"
	"github.com/varfrog/msgstream/generator/internal/transport"
	"github.com/varfrog/msgstream/pkg/quichelper"
	"github.com/varfrog/msgstream/pkg/sdk"
	"go.uber.org/zap"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const (
	modeServe = "serve" // serve generation runs to listeners over QUIC
	modeLocal = "local" // run a single generation run and hand it to a local sink

	sinkStdout = "stdout"
	sinkKafka  = "kafka"
)

// runConfig represents configuration needed to run this app.
type runConfig struct {
	Help              bool   // Prints usage and exists if true
	Mode              string // modeServe or modeLocal
	Sink              string // Where records go in modeLocal
	Generation        sdk.GenerationConfig
	ListenPort        int    // Port to listen on for listener connections
	TLSCertPemPath    string // Path to TLS cert.pem
	TLSPrivateKeyPath string // Path to TLS private.key
	SelfSigned        bool   // Use a throwaway certificate instead of the files above
	MaxRuns           int    // Max number of simultaneous generation runs (type int required by ants)
	KafkaBrokers      []string
	KafkaTopic        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := parseFlagsIntoConfig()
	if err != nil {
		log.Fatal(err)
	}

	if config.Help {
		flag.PrintDefaults()
		os.Exit(0)
	}

	if err := validateRunConfig(config); err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("zap.NewDevelopment: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	worker := app.NewWorker(
		app.NewGenerator(app.NewTimerSleeper(clock.New()), logger.Named("Generator")),
		logger.Named("Worker"))

	switch config.Mode {
	case modeLocal:
		err = runLocal(ctx, config, worker, logger)
	case modeServe:
		err = serve(ctx, config, worker, logger)
	}
	if isShutdown(err) {
		logger.Info("Shutting down")
		return
	}
	if err != nil {
		logger.Fatal("Generator failed", zap.Error(err))
	}
}

// isShutdown reports whether err only tells that the run was interrupted by a signal.
func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled)
}

func runLocal(ctx context.Context, config runConfig, worker *app.Worker, logger *zap.Logger) error {
	var recipient app.RecordRecipient
	switch config.Sink {
	case sinkStdout:
		recipient = app.NewWriterRecipient(os.Stdout)
	case sinkKafka:
		writer := transport.NewKafkaWriter(config.KafkaBrokers, config.KafkaTopic)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("Failed to close the Kafka writer", zap.Error(err))
			}
		}()
		logger.Info("Producing records to Kafka",
			zap.Strings("brokers", config.KafkaBrokers),
			zap.String("topic", config.KafkaTopic))
		recipient = transport.NewKafkaRecordRecipient(writer)
	}

	return errors.Wrap(worker.Run(ctx, config.Generation, recipient), "worker.Run")
}

func serve(ctx context.Context, config runConfig, worker *app.Worker, logger *zap.Logger) error {
	tlsConfig, err := buildTLSConfig(config)
	if err != nil {
		return errors.Wrap(err, "buildTLSConfig")
	}

	runPool, err := ants.NewPool(config.MaxRuns, ants.WithNonblocking(true))
	if err != nil {
		return errors.Wrap(err, "ants.NewPool")
	}
	defer runPool.Release()

	server := transport.NewQUICGeneratorServer(
		transport.QUICGeneratorServerConfig{
			TLSConfig:          tlsConfig,
			ListenAddr:         fmt.Sprintf("127.0.0.1:%d", config.ListenPort),
			RecordWriteTimeout: time.Second * 10,
		},
		runPool,
		worker,
		logger.Named("QUICGeneratorServer"))

	return server.ListenAndServe(ctx, quic.Config{
		MaxIdleTimeout:     time.Second * 30,
		KeepAlivePeriod:    time.Second * 10, // Runs with long intervals stay quiet for a while
		MaxIncomingStreams: 1,                // One run per connection
	})
}

// parseFlagsIntoConfig gets a config needed to run this app from command-line flags.
func parseFlagsIntoConfig() (runConfig, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return runConfig{}, errors.Wrap(err, "os.Getwd")
	}

	var (
		help           bool
		mode           string
		sink           string
		key            string
		msg            string
		count          int
		interval       int
		listenPort     int
		certPemPath    string
		privateKeyPath string
		selfSigned     bool
		maxRuns        int
		brokers        string
		topic          string
	)

	flag.BoolVar(&help, "help", false, "Print usage information")
	flag.StringVar(&mode, "mode", modeServe, "serve: serve runs to listeners over QUIC, local: run once into -sink")
	flag.StringVar(&sink, "sink", sinkStdout, "Where records go in local mode: stdout or kafka")
	flag.StringVar(&key, "key", "VWT", "Key of the generated records in local mode")
	flag.StringVar(&msg, "msg", "HelloWorld", "Message of the generated records in local mode")
	flag.IntVar(&count, "count", 10, "Number of records to generate in local mode")
	flag.IntVar(&interval, "interval", 1000, "Wait after each record in milliseconds in local mode")
	flag.IntVar(&listenPort, "listen-port", 5000, "Port to listen on for listener connections")
	flag.StringVar(&certPemPath, "cert", filepath.Join(workingDir, "certs", "cert.pem"), "Path to TLS cert.pem")
	flag.StringVar(&privateKeyPath, "key-file", filepath.Join(workingDir, "certs", "private.key"), "Path to TLS private.key")
	flag.BoolVar(&selfSigned, "self-signed", false, "Use a generated self-signed certificate")
	flag.IntVar(&maxRuns, "max-runs", 1000, "Max number of simultaneous generation runs")
	flag.StringVar(&brokers, "brokers", "localhost:9092", "Comma separated Kafka brokers")
	flag.StringVar(&topic, "topic", "messages", "Kafka topic to produce records to")
	flag.Parse()

	return runConfig{
		Help: help,
		Mode: mode,
		Sink: sink,
		Generation: sdk.GenerationConfig{
			Key:        key,
			Msg:        msg,
			MsgCount:   count,
			IntervalMs: interval,
		},
		ListenPort:        listenPort,
		TLSCertPemPath:    certPemPath,
		TLSPrivateKeyPath: privateKeyPath,
		SelfSigned:        selfSigned,
		MaxRuns:           maxRuns,
		KafkaBrokers:      strings.Split(brokers, ","),
		KafkaTopic:        topic,
	}, nil
}

func validateRunConfig(config runConfig) error {
	switch config.Mode {
	case modeLocal:
		if config.Sink != sinkStdout && config.Sink != sinkKafka {
			return errors.Errorf("unknown sink %q", config.Sink)
		}
		if config.Generation.MsgCount < 0 {
			return errors.New("count < 0")
		}
		if config.Generation.IntervalMs < 0 {
			return errors.New("interval < 0")
		}
		if config.Sink == sinkKafka && config.KafkaTopic == "" {
			return errors.New("kafka sink needs a topic")
		}
	case modeServe:
		if config.MaxRuns < 1 {
			return errors.New("MaxRuns < 1, serving runs is impossible")
		}
		if config.SelfSigned {
			return nil
		}
		if _, err := os.Stat(config.TLSCertPemPath); errors.Is(err, os.ErrNotExist) {
			return errors.New("cannot stat the TLS cert.pem file, change the working dir to the project root or specify flag -cert")
		}
		if _, err := os.Stat(config.TLSPrivateKeyPath); errors.Is(err, os.ErrNotExist) {
			return errors.New("cannot stat the TLS private key file, change the working dir to the project root or specify flag -key-file")
		}
	default:
		return errors.Errorf("unknown mode %q", config.Mode)
	}
	return nil
}

func buildTLSConfig(config runConfig) (*tls.Config, error) {
	if config.SelfSigned {
		return quichelper.NewSelfSignedTLSConfig()
	}
	return quichelper.NewServerTLSConfig(config.TLSCertPemPath, config.TLSPrivateKeyPath)
}
