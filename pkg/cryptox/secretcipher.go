package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrSecretKeyMissing = errors.New("cryptox: versioned secret but cipher has no key")
	ErrSecretCorrupt    = errors.New("cryptox: secret failed authentication")
)

const (
	secretVersion = "v1"
	gcmTagSize    = 16
)

// SecretCipher protects small secrets at rest with AES-256-GCM.
//
// Encrypted values are four dot separated std-base64 segments:
//
//	v1.<nonce>.<tag>.<ciphertext>
//
// Key material of any length is stretched to 256 bits with SHA-256. A cipher
// built without key material runs degraded: Encrypt returns the plaintext
// and Decrypt passes unversioned values through untouched.
//
// Decrypt is strict for v1 values and lenient for everything else. An
// unprefixed three segment value (nonce.tag.ciphertext, written before
// versioning) is decrypted when possible and otherwise returned as-is, as is
// any value with a different shape.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher builds a cipher from key material. Empty material yields a
// degraded cipher.
func NewSecretCipher(keyMaterial []byte) (*SecretCipher, error) {
	if len(keyMaterial) == 0 {
		return &SecretCipher{}, nil
	}

	key := sha256.Sum256(keyMaterial)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	return &SecretCipher{aead: gcm}, nil
}

// Enabled reports whether the cipher has a key.
func (c *SecretCipher) Enabled() bool {
	return c != nil && c.aead != nil
}

func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	if !c.Enabled() {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	// Seal appends the tag to the ciphertext; split it out for the wire form.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-gcmTagSize], sealed[len(sealed)-gcmTagSize:]

	enc := base64.StdEncoding
	return strings.Join([]string{
		secretVersion,
		enc.EncodeToString(nonce),
		enc.EncodeToString(tag),
		enc.EncodeToString(ct),
	}, "."), nil
}

func (c *SecretCipher) Decrypt(value string) (string, error) {
	parts := strings.Split(value, ".")

	switch {
	case len(parts) == 4 && parts[0] == secretVersion:
		if !c.Enabled() {
			return "", ErrSecretKeyMissing
		}
		pt, err := c.open(parts[1], parts[2], parts[3])
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSecretCorrupt, err)
		}
		return pt, nil

	case len(parts) == 3:
		if !c.Enabled() {
			return value, nil
		}
		pt, err := c.open(parts[0], parts[1], parts[2])
		if err != nil {
			return value, nil
		}
		return pt, nil

	default:
		return value, nil
	}
}

func (c *SecretCipher) open(nonceB64, tagB64, ctB64 string) (string, error) {
	enc := base64.StdEncoding

	nonce, err := enc.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	if len(nonce) != c.aead.NonceSize() {
		return "", fmt.Errorf("nonce is %d bytes", len(nonce))
	}
	tag, err := enc.DecodeString(tagB64)
	if err != nil {
		return "", fmt.Errorf("decode tag: %w", err)
	}
	if len(tag) != gcmTagSize {
		return "", fmt.Errorf("tag is %d bytes", len(tag))
	}
	ct, err := enc.DecodeString(ctB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	pt, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
