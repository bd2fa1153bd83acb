package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
	"github.com/JLSed/ShoeFreak-Admin/internal/identity"
)

type fakeProvider struct {
	mu          sync.Mutex
	id          domain.Identity
	err         error
	invalidated int
}

func (p *fakeProvider) Current(ctx context.Context) (domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	return p.id, nil
}

func (p *fakeProvider) Invalidate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated++
	// An evicted credential is gone: later fetches see nothing.
	p.id = ""
	p.err = identity.ErrNoCredential
	return nil
}

func (p *fakeProvider) invalidations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.invalidated
}

type fakeRoles struct {
	role domain.Role
	err  error
}

func (r *fakeRoles) GetRole(ctx context.Context, id domain.Identity) (domain.Role, error) {
	if r.err != nil {
		return domain.RoleNone, r.err
	}
	return r.role, nil
}

func TestResolveReturnsSessionForAdmin(t *testing.T) {
	provider := &fakeProvider{id: "admin-1"}
	resolver := NewResolver(provider, &fakeRoles{role: domain.RoleAdmin})

	session, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, domain.Identity("admin-1"), session.Identity)
	assert.Equal(t, domain.RoleAdmin, session.Role)
	assert.False(t, session.ResolvedAt.IsZero())
	assert.Zero(t, provider.invalidations())
}

func TestResolveAbsentWithoutCredential(t *testing.T) {
	provider := &fakeProvider{err: identity.ErrNoCredential}
	resolver := NewResolver(provider, &fakeRoles{role: domain.RoleAdmin})

	session, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Zero(t, provider.invalidations())
}

func TestResolveEvictsNonPrivilegedRoles(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleNone, domain.ParseRole("CUSTOMER"), domain.ParseRole("SELLER")} {
		provider := &fakeProvider{id: "user-1"}
		resolver := NewResolver(provider, &fakeRoles{role: role})

		session, err := resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Nil(t, session)
		assert.Equal(t, 1, provider.invalidations(), "exactly one eviction per invalid-role resolution")
	}
}

func TestResolveEvictsOnRoleLookupError(t *testing.T) {
	provider := &fakeProvider{id: "user-1"}
	resolver := NewResolver(provider, &fakeRoles{err: errors.New("role store down")})

	session, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, 1, provider.invalidations())
}

func TestResolveIsIdempotentAfterEviction(t *testing.T) {
	provider := &fakeProvider{id: "user-1"}
	resolver := NewResolver(provider, &fakeRoles{role: domain.RoleNone})

	session, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	// The credential is gone; repeated resolutions stay absent with no
	// further side effects.
	for i := 0; i < 3; i++ {
		session, err = resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Nil(t, session)
	}
	assert.Equal(t, 1, provider.invalidations())
}

func TestResolveCanceledLookupDoesNotEvict(t *testing.T) {
	provider := &fakeProvider{id: "admin-1"}
	resolver := NewResolver(provider, &fakeRoles{err: context.Canceled})

	session, err := resolver.Resolve(context.Background())
	assert.Error(t, err)
	assert.Nil(t, session)
	assert.Zero(t, provider.invalidations(), "a canceled resolution is discarded, not an eviction")
}

func TestResolveCanceledNavigationDoesNotEvict(t *testing.T) {
	provider := &fakeProvider{id: "admin-1"}
	resolver := NewResolver(provider, &fakeRoles{role: domain.RoleAdmin})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := resolver.Resolve(ctx)
	assert.Error(t, err)
	assert.Nil(t, session)
	assert.Zero(t, provider.invalidations())
}

type blockingProvider struct{}

func (blockingProvider) Current(ctx context.Context) (domain.Identity, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingProvider) Invalidate(ctx context.Context) error { return nil }

func TestResolveTimesOutClosed(t *testing.T) {
	resolver := NewResolver(blockingProvider{}, &fakeRoles{role: domain.RoleAdmin},
		WithTimeout(10*time.Millisecond))

	session, err := resolver.Resolve(context.Background())
	assert.Error(t, err)
	assert.Nil(t, session)
}
