package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealKeySize   = 32
	sealNonceSize = 24
)

var ErrUnsealable = errors.New("stored value could not be unsealed")

// SealedStore encrypts values with NaCl secretbox before handing them to the
// inner store, so tokens are never written to Redis in the clear.
type SealedStore struct {
	inner Store
	key   [sealKeySize]byte
}

var _ Store = (*SealedStore)(nil)

// NewSealedStore wraps inner with a 32-byte key.
func NewSealedStore(inner Store, key []byte) (*SealedStore, error) {
	if len(key) != sealKeySize {
		return nil, fmt.Errorf("[sessions NewSealedStore] key must be %d bytes, got %d", sealKeySize, len(key))
	}
	s := &SealedStore{inner: inner}
	copy(s.key[:], key)
	return s, nil
}

// ParseSealKey decodes a base64 (std or url) encoded key.
func ParseSealKey(encoded string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if key, err := enc.DecodeString(encoded); err == nil {
			if len(key) != sealKeySize {
				return nil, fmt.Errorf("seal key must decode to %d bytes, got %d", sealKeySize, len(key))
			}
			return key, nil
		}
	}
	return nil, errors.New("seal key is not valid base64")
}

func (s *SealedStore) Get(ctx context.Context, namespace, key string) (string, error) {
	sealed, err := s.inner.Get(ctx, namespace, key)
	if err != nil {
		return "", err
	}
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < sealNonceSize {
		return "", ErrUnsealable
	}
	var nonce [sealNonceSize]byte
	copy(nonce[:], raw[:sealNonceSize])
	opened, ok := secretbox.Open(nil, raw[sealNonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(opened), nil
}

func (s *SealedStore) Set(ctx context.Context, namespace, key, value string) error {
	var nonce [sealNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("[sessions SealedStore.Set] nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(ctx, namespace, key, base64.RawURLEncoding.EncodeToString(sealed))
}

func (s *SealedStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	return s.inner.Delete(ctx, namespace, keys...)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}
