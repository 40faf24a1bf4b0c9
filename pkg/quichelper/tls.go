package quichelper

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"github.com/pkg/errors"
	"math/big"
	"net"
	"os"
	"path"
	"time"
)

// NextProto is the ALPN protocol negotiated by generators and listeners.
const NextProto = "msgstream"

// GetRootCertPool loads ca.pem from certDirPath.
func GetRootCertPool(certDirPath string) (*x509.CertPool, error) {
	caCertPath := path.Join(certDirPath, "ca.pem")
	caCertRaw, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, errors.Wrap(err, "os.ReadFile(caCertPath)")
	}

	p, _ := pem.Decode(caCertRaw)
	if p == nil || p.Type != "CERTIFICATE" {
		return nil, errors.New("ca.pem Type != CERTIFICATE")
	}

	caCert, err := x509.ParseCertificate(p.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "x509.ParseCertificate")
	}

	certPool := x509.NewCertPool()
	certPool.AddCert(caCert)

	return certPool, nil
}

// NewServerTLSConfig loads a key pair for a generator server.
func NewServerTLSConfig(certFilePath string, privateKeyFilePath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFilePath, privateKeyFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "tls.LoadX509KeyPair")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{NextProto},
	}, nil
}

// NewSelfSignedTLSConfig creates a server config with a throwaway certificate for 127.0.0.1 and localhost.
// Listeners have to skip verification to talk to it.
func NewSelfSignedTLSConfig() (*tls.Config, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "ecdsa.GenerateKey")
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{Organization: []string{"msgstream"}},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, errors.Wrap(err, "x509.CreateCertificate")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{certDER},
			PrivateKey:  key,
		}},
		NextProtos: []string{NextProto},
	}, nil
}

// NewClientTLSConfig builds a listener config. rootCAs may be nil when insecureSkipVerify is set.
func NewClientTLSConfig(rootCAs *x509.CertPool, insecureSkipVerify bool) *tls.Config {
	return &tls.Config{
		RootCAs:            rootCAs,
		InsecureSkipVerify: insecureSkipVerify,
		NextProtos:         []string{NextProto},
	}
}
