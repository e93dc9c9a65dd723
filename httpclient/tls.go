package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig controls server certificate verification.
type TLSConfig struct {
	// Insecure skips server certificate verification. Test clusters
	// commonly run with self-signed certificates.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// CAFile is a PEM bundle used instead of the system roots.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile hold an optional client certificate.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
}

// Validate checks that cert and key are given together.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("httpclient: cert_file and key_file must be set together")
	}
	return nil
}

// Build returns the *tls.Config for the transport, or nil when the
// defaults apply.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if c == nil || (!c.Insecure && c.CAFile == "" && c.CertFile == "") {
		return nil, nil
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.Insecure, //nolint:gosec // opt-in for self-signed test clusters
		MinVersion:         tls.VersionTLS12,
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("httpclient: read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("httpclient: no certificates found in %s", c.CAFile)
		}
		cfg.RootCAs = pool
	}

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("httpclient: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
