package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bryanwahyu/lexiguard/internal/domain/identity"
)

// Verifier validates bearer tokens against the identity provider's
// published JWKS. Raw verification errors are logged internally and
// mapped to the stable auth error set before reaching callers.
type Verifier struct {
	keys     keyfunc.Keyfunc
	issuer   string
	audience string
}

// NewVerifier fetches the JWKS and keeps it refreshed in the background.
func NewVerifier(ctx context.Context, jwksURL, issuer, audience string) (*Verifier, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks from %s: %w", jwksURL, err)
	}
	return &Verifier{keys: keys, issuer: issuer, audience: audience}, nil
}

func (v *Verifier) Verify(ctx context.Context, rawToken string) (identity.Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return identity.Identity{}, identity.ErrMissingCredential
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, v.keys.Keyfunc, opts...)
	if err != nil {
		log.Printf("auth: token verification failed: %v", err)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return identity.Identity{}, identity.ErrExpired
		}
		return identity.Identity{}, identity.ErrInvalidSignature
	}
	if !token.Valid {
		return identity.Identity{}, identity.ErrInvalidSignature
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return identity.Identity{}, identity.ErrMissingClaim
	}
	sub, _ := claims["sub"].(string)
	return identity.Identity{Subject: sub, Email: strings.ToLower(email)}, nil
}
