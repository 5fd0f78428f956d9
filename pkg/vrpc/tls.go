package vrpc

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/grpc/credentials"
)

// LoadServerTransportCredentials builds mTLS server credentials from
// {certDir}/server.crt, {certDir}/server.key and {certDir}/ca.crt, requiring
// and verifying a client certificate signed by that CA, using the same
// CA/cert directory layout without reimplementing certificate issuance,
// which is out of scope here: operators provision the directory out of
// band.
func LoadServerTransportCredentials(certDir string) (credentials.TransportCredentials, error) {
	cert, err := tls.LoadX509KeyPair(filepath.Join(certDir, "server.crt"), filepath.Join(certDir, "server.key"))
	if err != nil {
		return nil, fmt.Errorf("vrpc: load server keypair: %w", err)
	}

	pool, err := loadCAPool(filepath.Join(certDir, "ca.crt"))
	if err != nil {
		return nil, err
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// LoadClientTransportCredentials builds mTLS client credentials from
// {certDir}/client.crt, {certDir}/client.key and {certDir}/ca.crt.
func LoadClientTransportCredentials(certDir, serverName string) (credentials.TransportCredentials, error) {
	cert, err := tls.LoadX509KeyPair(filepath.Join(certDir, "client.crt"), filepath.Join(certDir, "client.key"))
	if err != nil {
		return nil, fmt.Errorf("vrpc: load client keypair: %w", err)
	}

	pool, err := loadCAPool(filepath.Join(certDir, "ca.crt"))
	if err != nil {
		return nil, err
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS12,
	}), nil
}

func loadCAPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vrpc: read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("vrpc: no certificates parsed from %s", path)
	}
	return pool, nil
}
