package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/varfrog/msgstream/listener/internal/transport"
	"github.com/varfrog/msgstream/pkg/quichelper"
	"github.com/varfrog/msgstream/pkg/sdk"
	"go.uber.org/zap"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

// Represents configuration needed to run this app.
type runConfig struct {
	Help        bool   // Prints usage and exists if true
	TLSCertsDir string // Path to a directory containing TLS certificates
	Insecure    bool   // Skip verification of the generator certificate
	ServerAddr  string
	Generation  sdk.GenerationConfig
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

	tlsConfig, err := buildTLSConfig(config)
	if err != nil {
		log.Fatalf("buildTLSConfig: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("zap.NewDevelopment: %v", err)
	}

	listener := transport.NewQUICListener(
		transport.QUICListenerConfig{
			TLSConfig:  tlsConfig,
			ServerAddr: config.ServerAddr,
		},
		quic.Config{
			MaxIdleTimeout:  time.Second * 30,
			KeepAlivePeriod: time.Second * 10,
		},
		func(record sdk.MessageRecord) {
			fmt.Println(record.Format())
		},
		logger)

	if _, err := listener.Run(ctx, config.Generation); err != nil {
		log.Fatalf("Run: %v", err)
	}
}

// parseFlagsIntoConfig gets a config needed to run this app.
func parseFlagsIntoConfig() (runConfig, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return runConfig{}, errors.Wrap(err, "os.Getwd")
	}

	var (
		help       bool
		certPath   string
		insecure   bool
		serverAddr string
		key        string
		msg        string
		count      int
		interval   int
	)

	flag.BoolVar(&help, "help", false, "Print usage information")
	flag.StringVar(&certPath, "cert-path", filepath.Join(workingDir, "certs"), "Path to certs dir")
	flag.BoolVar(&insecure, "insecure", false, "Do not verify the generator certificate")
	flag.StringVar(&serverAddr, "server-addr", "127.0.0.1:5000", "Generator address")
	flag.StringVar(&key, "key", "VWT", "Key of the generated records")
	flag.StringVar(&msg, "msg", "HelloWorld", "Message of the generated records")
	flag.IntVar(&count, "count", 10, "Number of records to generate")
	flag.IntVar(&interval, "interval", 1000, "Wait after each record in milliseconds")
	flag.Parse()

	return runConfig{
		Help:        help,
		TLSCertsDir: certPath,
		Insecure:    insecure,
		ServerAddr:  serverAddr,
		Generation: sdk.GenerationConfig{
			Key:        key,
			Msg:        msg,
			MsgCount:   count,
			IntervalMs: interval,
		},
	}, nil
}

func validateRunConfig(config runConfig) error {
	if config.Generation.MsgCount < 0 {
		return errors.New("count < 0")
	}
	if config.Generation.IntervalMs < 0 {
		return errors.New("interval < 0")
	}
	if config.Insecure {
		return nil
	}
	if _, err := os.Stat(config.TLSCertsDir); errors.Is(err, os.ErrNotExist) {
		return errors.New("cannot stat the TLS certs dir, change the working dir to the project root or specify flag -cert-path")
	}
	return nil
}

func buildTLSConfig(config runConfig) (*tls.Config, error) {
	if config.Insecure {
		return quichelper.NewClientTLSConfig(nil, true), nil
	}

	rootCAs, err := quichelper.GetRootCertPool(config.TLSCertsDir)
	if err != nil {
		return nil, errors.Wrap(err, "GetRootCertPool")
	}
	return quichelper.NewClientTLSConfig(rootCAs, false), nil
}
