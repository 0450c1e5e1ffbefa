package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-gateway/internal/domain/auth"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "x-api-key"

// SecurityHandler authenticates API requests via HMAC-SHA256 hashed API keys.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Middleware rejects requests without a valid API key with 401.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.authenticate(r); err != nil {
			if !errors.Is(err, errUnauthorized) {
				zctx.From(r.Context()).Error("API key lookup failed", zap.Error(err))
			}
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errUnauthorized = errors.New("unauthorized")

// authenticate hashes the provided key, looks the hash up and compares the
// stored hash in constant time.
func (s *SecurityHandler) authenticate(r *http.Request) error {
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return errUnauthorized
	}
	hexHash := auth.Hash(s.pepper, key)

	info, err := s.apikeys.FindByHash(r.Context(), hexHash)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownKey) {
			return errUnauthorized
		}
		return errors.Wrap(err, "find api key")
	}

	hash, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return errUnauthorized
	}
	return nil
}
