package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func generateSigningKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, pemBytes
}

func newKeyServer(t *testing.T, pemBytes []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/public-key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(pemBytes)
	}))
	t.Cleanup(server.Close)
	return server
}

func signToken(t *testing.T, key *rsa.PrivateKey, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestHTTPTokenVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	key, pemBytes := generateSigningKey(t)

	t.Run("accepts a valid token and returns its subject", func(t *testing.T) {
		server := newKeyServer(t, pemBytes)
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    true,
		}, zap.NewNop())

		token := signToken(t, key, "alice", time.Now().Add(time.Hour))
		identity, err := verifier.Verify(ctx, token)
		require.NoError(t, err)

		assert.Equal(t, "alice", identity.Subject)
		assert.Equal(t, token, identity.Token)
	})

	t.Run("rejects an expired token when expiry is enforced", func(t *testing.T) {
		server := newKeyServer(t, pemBytes)
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    true,
		}, zap.NewNop())

		token := signToken(t, key, "alice", time.Now().Add(-time.Hour))
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("accepts an expired token when enforcement is off", func(t *testing.T) {
		server := newKeyServer(t, pemBytes)
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    false,
		}, zap.NewNop())

		token := signToken(t, key, "alice", time.Now().Add(-time.Hour))
		identity, err := verifier.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Subject)
	})

	t.Run("rejects a forged signature even with enforcement off", func(t *testing.T) {
		otherKey, _ := generateSigningKey(t)
		server := newKeyServer(t, pemBytes)
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    false,
		}, zap.NewNop())

		token := signToken(t, otherKey, "alice", time.Now().Add(-time.Hour))
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("rejects a malformed token", func(t *testing.T) {
		server := newKeyServer(t, pemBytes)
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    true,
		}, zap.NewNop())

		_, err := verifier.Verify(ctx, "not.a.token")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		server := newKeyServer(t, pemBytes)
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    true,
		}, zap.NewNop())

		token := signToken(t, key, "", time.Now().Add(time.Hour))
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("unreachable authority fails closed", func(t *testing.T) {
		server := newKeyServer(t, pemBytes)
		server.Close()
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    true,
			Timeout:          time.Second,
		}, zap.NewNop())

		token := signToken(t, key, "alice", time.Now().Add(time.Hour))
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, shared.ErrDependencyUnavailable)
	})

	t.Run("authority error status fails closed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    true,
		}, zap.NewNop())

		token := signToken(t, key, "alice", time.Now().Add(time.Hour))
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, shared.ErrDependencyUnavailable)
	})

	t.Run("garbage key material fails closed", func(t *testing.T) {
		server := newKeyServer(t, []byte("not a pem key"))
		verifier := NewHTTPTokenVerifier(VerifierConfig{
			AuthorityBaseURL: server.URL,
			EnforceExpiry:    true,
		}, zap.NewNop())

		token := signToken(t, key, "alice", time.Now().Add(time.Hour))
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, shared.ErrDependencyUnavailable)
	})
}
