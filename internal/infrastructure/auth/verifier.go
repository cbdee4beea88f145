package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/billing/backend/internal/domain/access"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const maxKeyBytes = 64 * 1024

// VerifierConfig holds settings for HTTPTokenVerifier
type VerifierConfig struct {
	// AuthorityBaseURL is the identity provider serving the PEM signing
	// key at /public-key
	AuthorityBaseURL string
	// EnforceExpiry rejects expired tokens. Development only; never
	// disable in production.
	EnforceExpiry bool
	// Timeout bounds the key fetch
	Timeout time.Duration
}

// HTTPTokenVerifier verifies bearer tokens against the identity
// provider's published signing key. The key is fetched fresh on every
// verification and never cached: if the provider is unreachable,
// verification fails and the request is rejected.
type HTTPTokenVerifier struct {
	config VerifierConfig
	client *http.Client
	logger *zap.Logger
}

var _ access.TokenVerifier = (*HTTPTokenVerifier)(nil)

// NewHTTPTokenVerifier creates a verifier against the given authority
func NewHTTPTokenVerifier(config VerifierConfig, logger *zap.Logger) *HTTPTokenVerifier {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	return &HTTPTokenVerifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Verify validates the token signature against the authority's current
// key and returns the authenticated identity
func (v *HTTPTokenVerifier) Verify(ctx context.Context, token string) (access.Identity, error) {
	key, err := v.fetchSigningKey(ctx)
	if err != nil {
		v.logger.Error("signing key unavailable", zap.Error(err))
		return access.Identity{}, shared.ErrDependencyUnavailable
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		// Expired-but-otherwise-valid tokens pass when enforcement is
		// off. Any other failure is a hard rejection.
		if !v.config.EnforceExpiry && isOnlyExpired(err) {
			v.logger.Warn("accepting expired token, expiry enforcement disabled",
				zap.String("subject", claims.Subject))
		} else {
			return access.Identity{}, shared.ErrUnauthorized
		}
	} else if !parsed.Valid {
		return access.Identity{}, shared.ErrUnauthorized
	}

	if claims.Subject == "" {
		return access.Identity{}, shared.ErrUnauthorized
	}

	return access.Identity{Subject: claims.Subject, Token: token}, nil
}

// isOnlyExpired reports whether the parse failed solely because the
// token is past its expiry. A bad signature or malformed token never
// qualifies; jwt/v5 only runs claim validation after the signature
// checks out.
func isOnlyExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired) &&
		!errors.Is(err, jwt.ErrTokenSignatureInvalid) &&
		!errors.Is(err, jwt.ErrTokenMalformed) &&
		!errors.Is(err, jwt.ErrTokenNotValidYet)
}

func (v *HTTPTokenVerifier) fetchSigningKey(ctx context.Context) (*rsa.PublicKey, error) {
	url := v.config.AuthorityBaseURL + "/public-key"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching signing key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching signing key: unexpected status %d", resp.StatusCode)
	}

	pemBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing signing key: %w", err)
	}
	return key, nil
}
