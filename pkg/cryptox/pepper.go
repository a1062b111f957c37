package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const pepperLength = 32

// LoadOrGeneratePepper returns the pepper stored at path, creating the file
// with a fresh random value on first use. An empty path yields an ephemeral
// pepper, which is only useful for tests and throwaway deployments.
func LoadOrGeneratePepper(path string) (string, error) {
	raw, err := loadOrCreate(path, func() ([]byte, error) {
		buf := make([]byte, pepperLength)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		return []byte(base64.RawURLEncoding.EncodeToString(buf)), nil
	})
	if err != nil {
		return "", fmt.Errorf("cryptox: pepper: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// loadOrCreate reads path, or writes the output of generate to it with 0600
// permissions if it does not exist yet.
func loadOrCreate(path string, generate func() ([]byte, error)) ([]byte, error) {
	if path == "" {
		return generate()
	}

	path = filepath.Clean(path)
	raw, err := os.ReadFile(path)
	if err == nil {
		return raw, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	raw, err = generate()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, err
	}
	return raw, nil
}
