// Package transport builds the HTTP client used to fetch manifests.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/net/http2"
)

// Options configures TLS for manifest fetches. All fields are optional;
// CertPath and KeyPath must be given together.
type Options struct {
	CAPath   string // extra CA bundle, appended to the system roots
	CertPath string // client certificate
	KeyPath  string // client key
}

// Build creates an HTTP client with HTTP/2 enabled over TLS.
// No client timeout is set; callers bound requests through their context.
func Build(opts Options) (*http.Client, error) {
	if (opts.CertPath == "") != (opts.KeyPath == "") {
		return nil, fmt.Errorf("certPath and keyPath must be set together")
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if opts.CAPath != "" {
		caCert, err := os.ReadFile(opts.CAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = pool
	}

	if opts.CertPath != "" {
		clientCert, err := tls.LoadX509KeyPair(opts.CertPath, opts.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{clientCert}
	}

	// Plain http:// manifests still go through HTTP/1.1.
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsConfig
	if err := http2.ConfigureTransport(base); err != nil {
		return nil, fmt.Errorf("failed to enable HTTP/2: %w", err)
	}

	return &http.Client{Transport: base}, nil
}
