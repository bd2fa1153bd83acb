package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// Claims are the token claims the console cares about. Tokens are issued
// by the hosted identity provider; this service only validates them.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// JWTProvider validates HMAC-signed bearer tokens carried in the request
// context and maintains an in-memory revocation set so that a forced
// sign-out immediately invalidates every token of that principal.
type JWTProvider struct {
	secret []byte
	issuer string

	revoked map[domain.Identity]time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewJWTProvider creates a provider validating tokens signed with the
// shared secret. Revocations are remembered for revocationTTL, which
// should cover the longest token lifetime the issuer hands out.
func NewJWTProvider(secret, issuer string, revocationTTL time.Duration) *JWTProvider {
	return &JWTProvider{
		secret:  []byte(secret),
		issuer:  issuer,
		revoked: make(map[domain.Identity]time.Time),
		ttl:     revocationTTL,
	}
}

// Current validates the context token and returns the identity behind it.
// Missing, malformed, expired, and revoked tokens all return ErrNoCredential.
func (p *JWTProvider) Current(ctx context.Context) (domain.Identity, error) {
	raw, ok := TokenFromContext(ctx)
	if !ok {
		return "", ErrNoCredential
	}

	id, err := p.parse(raw)
	if err != nil {
		return "", ErrNoCredential
	}

	if p.isRevoked(id) {
		return "", ErrNoCredential
	}

	return id, nil
}

// Invalidate revokes every token of the principal behind the current
// credential. No-op when no credential is present, so repeated
// resolutions after an eviction have no further side effects.
func (p *JWTProvider) Invalidate(ctx context.Context) error {
	raw, ok := TokenFromContext(ctx)
	if !ok {
		return nil
	}

	id, err := p.parse(raw)
	if err != nil {
		return nil
	}

	p.mu.Lock()
	p.revoked[id] = time.Now().Add(p.ttl)
	p.mu.Unlock()
	return nil
}

func (p *JWTProvider) parse(raw string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.New("invalid claims")
	}
	if p.issuer != "" && claims.Issuer != p.issuer {
		return "", errors.New("unexpected issuer")
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return "", errors.New("token missing subject")
	}
	return domain.Identity(id), nil
}

func (p *JWTProvider) isRevoked(id domain.Identity) bool {
	p.mu.RLock()
	expiry, ok := p.revoked[id]
	p.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		p.mu.Lock()
		delete(p.revoked, id)
		p.mu.Unlock()
		return false
	}
	return true
}
