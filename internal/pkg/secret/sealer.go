package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	hkdfInfo  = "skill-radar/codehost-token"
)

var (
	ErrEmptyKey      = errors.New("empty secret key")
	ErrInvalidSealed = errors.New("invalid sealed value")
)

// Sealer encrypts small secrets (access tokens) for storage at rest.
type Sealer struct {
	key [keySize]byte
}

// NewSealer accepts either a base64 encoded 32 byte key or an arbitrary passphrase,
// which is stretched with HKDF-SHA256.
func NewSealer(secret string) (*Sealer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrEmptyKey
	}

	s := &Sealer{}
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == keySize {
		copy(s.key[:], raw)
		return s, nil
	}

	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// Seal returns nonce||box. An empty plaintext seals to nil.
func (s *Sealer) Seal(plain string) ([]byte, error) {
	if plain == "" {
		return nil, nil
	}
	if s == nil {
		return []byte(plain), nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	out := make([]byte, nonceSize, nonceSize+len(plain)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, []byte(plain), &nonce, &s.key), nil
}

func (s *Sealer) Open(sealed []byte) (string, error) {
	if len(sealed) == 0 {
		return "", nil
	}
	if s == nil {
		return string(sealed), nil
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidSealed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrInvalidSealed
	}
	return string(plain), nil
}
