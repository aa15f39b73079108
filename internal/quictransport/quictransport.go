// Package quictransport configures the QUIC connections between controller
// and worker processes (spec.md §4.8, §6 "worker wire protocol").
package quictransport

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	maxIdleTimeout  = 60 * time.Second
	keepAlivePeriod = 30 * time.Second
)

// Config returns the shared QUIC transport parameters used on both ends of
// the connection.
func Config() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:  maxIdleTimeout,
		KeepAlivePeriod: keepAlivePeriod,
	}
}

// Listen opens a QUIC listener on addr using tlsConf, ready to accept
// worker connections.
func Listen(addr string, tlsConf *tls.Config) (*quic.Listener, error) {
	return quic.ListenAddr(addr, tlsConf, Config())
}

// Dial connects to a controller's QUIC listener at addr.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config) (quic.Connection, error) {
	return quic.DialAddr(ctx, addr, tlsConf, Config())
}

// GenerateInsecureTLSConfig returns a self-signed, single-use TLS config
// suitable for local development and tests. Production deployments should
// supply real certificates instead.
func GenerateInsecureTLSConfig() (*tls.Config, error) {
	cert, err := selfSignedCert()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"epidemicsim"},
	}, nil
}
