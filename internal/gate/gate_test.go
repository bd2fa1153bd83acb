package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JLSed/ShoeFreak-Admin/internal/audit"
	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

func adminSession() *domain.Session {
	return &domain.Session{Identity: "admin-1", Role: domain.RoleAdmin, ResolvedAt: time.Now()}
}

func superSession() *domain.Session {
	return &domain.Session{Identity: "root-1", Role: domain.RoleSuperAdmin, ResolvedAt: time.Now()}
}

func TestDecide(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name    string
		route   string
		session *domain.Session
		want    Decision
	}{
		{"public route without session renders", "/", nil, Allow},
		{"public route with session redirects home", "/", adminSession(), RedirectToHome},
		{"privileged route without session redirects to login", "/home", nil, RedirectToLogin},
		{"privileged route with admin renders", "/user-accounts", adminSession(), Allow},
		{"privileged route with super admin renders", "/audit-logs", superSession(), Allow},
		{"super-only route without session redirects to login", "/admin-manage", nil, RedirectToLogin},
		{"super-only route with admin redirects home", "/admin-manage", adminSession(), RedirectToHome},
		{"super-only route with super admin renders", "/admin-manage", superSession(), Allow},
		{"unknown route defaults to privileged", "/not-a-screen", nil, RedirectToLogin},
		{"unknown route with admin renders", "/not-a-screen", adminSession(), Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(policy, tt.route, tt.session))
		})
	}
}

type scriptedResolver struct {
	mu  sync.Mutex
	fns []func(ctx context.Context) (*domain.Session, error)
}

func (s *scriptedResolver) Resolve(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	if len(s.fns) == 0 {
		s.mu.Unlock()
		panic("scriptedResolver: unexpected Resolve call")
	}
	fn := s.fns[0]
	s.fns = s.fns[1:]
	s.mu.Unlock()
	return fn(ctx)
}

func TestEvaluateAllowsAdmin(t *testing.T) {
	r := &scriptedResolver{fns: []func(context.Context) (*domain.Session, error){
		func(context.Context) (*domain.Session, error) { return adminSession(), nil },
	}}
	g := New(r)

	ev, err := g.Evaluate(context.Background(), "/home")
	require.NoError(t, err)
	assert.Equal(t, "allow", ev.Decision)
	assert.Empty(t, ev.RedirectTo)
	assert.False(t, ev.SuperAdmin)
	assert.Equal(t, StatePublicOK, g.State())
}

func TestEvaluateRedirectsSignedInFromPublicRoute(t *testing.T) {
	r := &scriptedResolver{fns: []func(context.Context) (*domain.Session, error){
		func(context.Context) (*domain.Session, error) { return adminSession(), nil },
	}}
	g := New(r)

	ev, err := g.Evaluate(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "redirect_to_home", ev.Decision)
	assert.Equal(t, "/home", ev.RedirectTo)
	assert.Equal(t, StateBlockedHome, g.State())
}

func TestEvaluateSuperOnlyRouteWithAdminRedirectsHome(t *testing.T) {
	r := &scriptedResolver{fns: []func(context.Context) (*domain.Session, error){
		func(context.Context) (*domain.Session, error) { return adminSession(), nil },
	}}
	g := New(r)

	ev, err := g.Evaluate(context.Background(), "/admin-manage")
	require.NoError(t, err)
	assert.Equal(t, "redirect_to_home", ev.Decision)
	assert.Equal(t, "/home", ev.RedirectTo)
}

func TestEvaluateResolverErrorFailsClosed(t *testing.T) {
	r := &scriptedResolver{fns: []func(context.Context) (*domain.Session, error){
		func(context.Context) (*domain.Session, error) { return nil, errors.New("identity provider down") },
	}}
	g := New(r)

	ev, err := g.Evaluate(context.Background(), "/home")
	require.NoError(t, err)
	assert.Equal(t, "redirect_to_login", ev.Decision)
	assert.Equal(t, "/", ev.RedirectTo)
	assert.Equal(t, StateBlockedLogin, g.State())
}

func TestEvaluateLastRouteWins(t *testing.T) {
	started := make(chan struct{})
	r := &scriptedResolver{fns: []func(context.Context) (*domain.Session, error){
		// First navigation: resolution hangs until the gate cancels it
		// in favor of the second navigation.
		func(ctx context.Context) (*domain.Session, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
		func(context.Context) (*domain.Session, error) { return adminSession(), nil },
	}}
	g := New(r)

	var staleEv Evaluation
	var staleErr error
	done := make(chan struct{})
	go func() {
		staleEv, staleErr = g.Evaluate(context.Background(), "/user-accounts")
		close(done)
	}()

	<-started
	ev, err := g.Evaluate(context.Background(), "/seller-accounts")
	require.NoError(t, err)
	assert.Equal(t, "allow", ev.Decision)

	<-done
	require.ErrorIs(t, staleErr, ErrSuperseded)
	assert.Empty(t, staleEv.Decision, "a stale navigation must not carry a decision")

	// The gate's state reflects the winning navigation.
	assert.Equal(t, StatePublicOK, g.State())
}

// pairProvider holds a valid admin credential and releases the role
// lookup once a second navigation begins resolving, so the first is
// reliably superseded mid-lookup.
type pairProvider struct {
	mu          sync.Mutex
	calls       int
	invalidated int
	release     chan struct{}
}

func (p *pairProvider) Current(ctx context.Context) (domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls == 2 {
		close(p.release)
	}
	return "admin-1", nil
}

func (p *pairProvider) Invalidate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated++
	return nil
}

func (p *pairProvider) invalidations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.invalidated
}

type heldRoles struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (r *heldRoles) GetRole(ctx context.Context, id domain.Identity) (domain.Role, error) {
	r.once.Do(func() { close(r.started) })
	select {
	case <-r.release:
		return domain.RoleAdmin, nil
	case <-ctx.Done():
		return domain.RoleNone, ctx.Err()
	}
}

func TestEvaluateSupersededResolutionDoesNotEvict(t *testing.T) {
	release := make(chan struct{})
	provider := &pairProvider{release: release}
	roles := &heldRoles{started: make(chan struct{}), release: release}
	g := New(NewResolver(provider, roles))

	staleDone := make(chan error, 1)
	go func() {
		_, err := g.Evaluate(context.Background(), "/home")
		staleDone <- err
	}()
	<-roles.started

	// Navigating again supersedes the first evaluation while its role
	// lookup is still in flight. The lookup must survive that and feed
	// the winning navigation.
	ev, err := g.Evaluate(context.Background(), "/chat")
	require.NoError(t, err)
	assert.Equal(t, "allow", ev.Decision, "the winning navigation sees the valid admin")

	select {
	case err := <-staleDone:
		require.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the superseded evaluation")
	}

	assert.Zero(t, provider.invalidations(),
		"a superseded resolution is discarded, not an eviction")
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *captureRecorder) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func TestEvaluateRecordsDenials(t *testing.T) {
	rec := &captureRecorder{}
	r := &scriptedResolver{fns: []func(context.Context) (*domain.Session, error){
		func(context.Context) (*domain.Session, error) { return nil, nil },
		func(context.Context) (*domain.Session, error) { return adminSession(), nil },
	}}
	g := New(r, WithRecorder(rec))

	_, err := g.Evaluate(context.Background(), "/home")
	require.NoError(t, err)
	_, err = g.Evaluate(context.Background(), "/home")
	require.NoError(t, err)

	// Only the denied navigation is recorded, not the allowed one.
	require.Len(t, rec.entries, 1)
	assert.Equal(t, audit.ActionAccessDenied, rec.entries[0].Action)
	assert.Equal(t, "/home", rec.entries[0].Target)
	assert.Equal(t, "redirect_to_login", rec.entries[0].Detail)
}

func TestIsSuperAdminDerivedFromLatestSession(t *testing.T) {
	r := &scriptedResolver{fns: []func(context.Context) (*domain.Session, error){
		func(context.Context) (*domain.Session, error) { return superSession(), nil },
		func(context.Context) (*domain.Session, error) { return nil, nil },
	}}
	g := New(r)

	_, err := g.Evaluate(context.Background(), "/admin-manage")
	require.NoError(t, err)
	assert.True(t, g.IsSuperAdmin())

	_, err = g.Evaluate(context.Background(), "/home")
	require.NoError(t, err)
	assert.False(t, g.IsSuperAdmin())
}
