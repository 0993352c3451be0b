package api

import (
	"crypto/tls"
	"fmt"

	"github.com/AaronLay10/SentientStage/internal/config"
)

// TLSFiles holds the certificate paths for serving HTTPS.
type TLSFiles struct {
	CertFile string `env:"SENTIENT_TLS_CERT"`
	KeyFile  string `env:"SENTIENT_TLS_KEY"`
}

// LoadTLSFiles reads SENTIENT_TLS_CERT and SENTIENT_TLS_KEY.
func LoadTLSFiles() (TLSFiles, error) {
	var f TLSFiles
	if err := config.ParseEnv(&f); err != nil {
		return TLSFiles{}, err
	}
	return f, nil
}

// Enabled reports whether both paths are set.
func (f TLSFiles) Enabled() bool {
	return f.CertFile != "" && f.KeyFile != ""
}

// Config loads the key pair. It returns nil, nil when TLS is not enabled.
func (f TLSFiles) Config() (*tls.Config, error) {
	if !f.Enabled() {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
