package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnknownKey is returned when no active key matches a hash.
var ErrUnknownKey = errors.New("unknown api key")

// APIKeyInfo holds the identity of a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Hash returns the hex encoded HMAC-SHA256 of key under pepper.
func Hash(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// StaticKeys is a Repository over keys supplied in configuration.
type StaticKeys map[string]APIKeyInfo

// NewStaticKeys hashes each plain key under pepper. Empty keys are skipped.
func NewStaticKeys(pepper []byte, keys []string) StaticKeys {
	s := make(StaticKeys, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		h := Hash(pepper, k)
		s[h] = APIKeyInfo{ID: "config", KeyHash: h, Name: "configured key"}
	}
	return s
}

// FindByHash implements Repository.
func (s StaticKeys) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	info, ok := s[hash]
	if !ok {
		return nil, ErrUnknownKey
	}
	return &info, nil
}

// Chain tries each repository in order and returns the first match.
type Chain []Repository

// FindByHash implements Repository. Lookup errors other than ErrUnknownKey
// stop the search.
func (c Chain) FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error) {
	for _, r := range c {
		info, err := r.FindByHash(ctx, hash)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrUnknownKey) {
			return nil, err
		}
	}
	return nil, ErrUnknownKey
}
