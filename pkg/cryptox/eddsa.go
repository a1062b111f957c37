package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// GenerateEd25519Key returns a new Ed25519 private key as PKCS8 PEM.
func GenerateEd25519Key() ([]byte, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// LoadOrGenerateEd25519Key reads a PEM key from path, generating and storing
// one if the file is missing. An empty path yields an ephemeral key.
func LoadOrGenerateEd25519Key(path string) ([]byte, error) {
	raw, err := loadOrCreate(path, GenerateEd25519Key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: signing key: %w", err)
	}
	if _, err := ParseEd25519PrivateKey(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ParseEd25519PrivateKey decodes a PKCS8 PEM Ed25519 private key.
func ParseEd25519PrivateKey(pemBytes []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("cryptox: no PEM block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cryptox: parse PKCS8 key: %w", err)
	}
	edKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("cryptox: key is %T, not Ed25519", key)
	}
	return edKey, nil
}
