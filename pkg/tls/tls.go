// Package tls builds the server-side TLS configuration for the prediction
// API. TLS 1.3 only; when a CA file is given, client certificates are
// required and verified against it.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Config holds the TLS settings of the HTTP server.
type Config struct {
	Enabled  bool
	CertFile string
	KeyFile  string

	// CAFile, when set, turns on mutual TLS.
	CAFile string
}

// Validate checks that the configured certificate files exist.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.CertFile == "" || c.KeyFile == "" {
		return errors.New("tls enabled but cert/key files not specified")
	}

	files := []string{c.CertFile, c.KeyFile}
	if c.CAFile != "" {
		files = append(files, c.CAFile)
	}
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tls file %q: %w", path, err)
		}
	}
	return nil
}

// NewServerConfig builds the tls.Config for the server. The certificate
// itself is loaded by ListenAndServeTLS; this fixes the protocol floor and
// optional client verification.
func NewServerConfig(c Config) (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion: tls.VersionTLS13,
		CipherSuites: []uint16{
			tls.TLS_AES_128_GCM_SHA256,
			tls.TLS_AES_256_GCM_SHA384,
			tls.TLS_CHACHA20_POLY1305_SHA256,
		},
	}

	if c.CAFile != "" {
		caCert, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}
