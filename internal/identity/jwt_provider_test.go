package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret, issuer, userID string, expiresIn time.Duration) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestCurrentReturnsTokenIdentity(t *testing.T) {
	p := NewJWTProvider(testSecret, "shoefreak", time.Hour)
	ctx := WithToken(context.Background(), signToken(t, testSecret, "shoefreak", "admin-1", time.Hour))

	id, err := p.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity("admin-1"), id)
}

func TestCurrentWithoutToken(t *testing.T) {
	p := NewJWTProvider(testSecret, "shoefreak", time.Hour)

	_, err := p.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestCurrentRejectsBadTokens(t *testing.T) {
	p := NewJWTProvider(testSecret, "shoefreak", time.Hour)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": signToken(t, "other-secret", "shoefreak", "admin-1", time.Hour),
		"expired":      signToken(t, testSecret, "shoefreak", "admin-1", -time.Minute),
		"wrong issuer": signToken(t, testSecret, "someone-else", "admin-1", time.Hour),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Current(WithToken(context.Background(), raw))
			assert.ErrorIs(t, err, ErrNoCredential)
		})
	}
}

func TestInvalidateRevokesPrincipal(t *testing.T) {
	p := NewJWTProvider(testSecret, "shoefreak", time.Hour)
	ctx := WithToken(context.Background(), signToken(t, testSecret, "shoefreak", "seller-2", time.Hour))

	_, err := p.Current(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Invalidate(ctx))
	_, err = p.Current(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	// Every token of the principal is revoked, not just the one seen.
	other := WithToken(context.Background(), signToken(t, testSecret, "shoefreak", "seller-2", time.Hour))
	_, err = p.Current(other)
	assert.ErrorIs(t, err, ErrNoCredential)

	// Unrelated principals are untouched.
	admin := WithToken(context.Background(), signToken(t, testSecret, "shoefreak", "admin-1", time.Hour))
	_, err = p.Current(admin)
	assert.NoError(t, err)
}

func TestInvalidateWithoutCredentialIsNoOp(t *testing.T) {
	p := NewJWTProvider(testSecret, "shoefreak", time.Hour)
	assert.NoError(t, p.Invalidate(context.Background()))
}

func TestRevocationExpires(t *testing.T) {
	p := NewJWTProvider(testSecret, "shoefreak", 10*time.Millisecond)
	ctx := WithToken(context.Background(), signToken(t, testSecret, "shoefreak", "admin-1", time.Hour))

	require.NoError(t, p.Invalidate(ctx))
	_, err := p.Current(ctx)
	require.ErrorIs(t, err, ErrNoCredential)

	time.Sleep(20 * time.Millisecond)
	_, err = p.Current(ctx)
	assert.NoError(t, err)
}
