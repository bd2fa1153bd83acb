package gate

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JLSed/ShoeFreak-Admin/internal/audit"
	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
	"github.com/JLSed/ShoeFreak-Admin/internal/identity"
	"github.com/JLSed/ShoeFreak-Admin/internal/repository"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

// SessionSource produces the current session, or nil for absent.
type SessionSource interface {
	Resolve(ctx context.Context) (*domain.Session, error)
}

// Resolver turns the current credential plus a role lookup into a typed
// session. Every failure path is absent: a credential that does not
// resolve to a privileged role is evicted, never downgraded.
type Resolver struct {
	provider identity.Provider
	roles    repository.RoleStore
	recorder audit.Recorder
	timeout  time.Duration

	// Concurrent navigations resolving the same identity share one
	// role lookup.
	sf singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTimeout bounds a single resolution. Exceeding it fails closed.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// WithAuditRecorder sets the audit sink for evictions.
func WithAuditRecorder(rec audit.Recorder) ResolverOption {
	return func(r *Resolver) { r.recorder = rec }
}

// NewResolver creates a session resolver.
func NewResolver(provider identity.Provider, roles repository.RoleStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider: provider,
		roles:    roles,
		recorder: audit.Nop{},
		timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the current session, or (nil, nil) when absent.
// Absent covers: no credential, credential fetch failure, role lookup
// failure, and a non-privileged role. The latter two additionally force
// a sign-out, exactly once per resolution; once evicted, later
// resolutions see no credential and have no further side effects.
// A non-nil error reports infrastructure detail only; the session is
// always nil alongside it and callers must treat it as absent.
// A resolution whose context was canceled mid-flight is discarded
// without side effects: cancellation means a newer navigation took
// over, not that the credential is bad.
func (r *Resolver) Resolve(ctx context.Context) (*domain.Session, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	id, err := r.provider.Current(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrNoCredential) {
			return nil, nil
		}
		// Transient credential fetch failure: fail closed, no eviction.
		return nil, err
	}

	role, err := r.lookupRole(ctx, id)
	if err != nil {
		// A canceled resolution is discarded, never acted on: eviction
		// is reserved for credentials whose role actually came back
		// missing or non-privileged.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		r.evict(ctx, id, audit.ActionRoleLookupFailed, err.Error())
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !role.Privileged() {
		r.evict(ctx, id, audit.ActionSessionEvicted, "non-privileged role")
		return nil, nil
	}

	return &domain.Session{
		Identity:   id,
		Role:       role,
		ResolvedAt: time.Now(),
	}, nil
}

func (r *Resolver) lookupRole(ctx context.Context, id domain.Identity) (domain.Role, error) {
	v, err, _ := r.sf.Do(string(id), func() (interface{}, error) {
		// The flight is shared between concurrent resolutions, so it
		// must not die with whichever navigation started it. It gets
		// its own deadline instead.
		lctx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, r.timeout)
			defer cancel()
		}
		return r.roles.GetRole(lctx, id)
	})
	if err != nil {
		return domain.RoleNone, err
	}
	return v.(domain.Role), nil
}

func (r *Resolver) evict(ctx context.Context, id domain.Identity, action, detail string) {
	l := log.Ctx(ctx)
	l.Info().Str(log.FieldUserID, string(id)).Msg("non-privileged account detected, signing out")

	if err := r.provider.Invalidate(ctx); err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, string(id)).Msg("failed to invalidate credential")
	}

	r.recorder.Record(ctx, audit.Entry{
		Action:  action,
		ActorID: string(id),
		Detail:  detail,
		At:      time.Now().UTC(),
	})
}
