package gate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JLSed/ShoeFreak-Admin/internal/audit"
	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

// ErrSuperseded is returned when a newer navigation started while this
// evaluation's resolution was in flight. Its decision must be discarded:
// a stale redirect must never fire after the route has moved on.
var ErrSuperseded = errors.New("evaluation superseded by a newer navigation")

// Evaluation is the gate's answer for one navigation.
type Evaluation struct {
	Route      string `json:"route"`
	Decision   string `json:"decision"`
	RedirectTo string `json:"redirect_to,omitempty"`
	SuperAdmin bool   `json:"super_admin"`
}

// Gate is the navigation-triggered access state machine. Every route
// change is a fresh transition: resolution runs again, the decision is
// recomputed, and only the latest navigation's outcome applies.
type Gate struct {
	resolver SessionSource
	policy   Policy
	recorder audit.Recorder

	loginRoute string
	homeRoute  string

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	state   State
	session *domain.Session
}

// Option configures a Gate.
type Option func(*Gate)

// WithPolicy overrides the route policy table.
func WithPolicy(p Policy) Option {
	return func(g *Gate) { g.policy = p }
}

// WithRedirects overrides the login and home redirect targets.
func WithRedirects(login, home string) Option {
	return func(g *Gate) {
		g.loginRoute = login
		g.homeRoute = home
	}
}

// WithRecorder sets the audit sink for denied navigations.
func WithRecorder(rec audit.Recorder) Option {
	return func(g *Gate) { g.recorder = rec }
}

// New creates an access gate over the resolver.
func New(resolver SessionSource, opts ...Option) *Gate {
	g := &Gate{
		resolver:   resolver,
		policy:     DefaultPolicy(),
		recorder:   audit.Nop{},
		loginRoute: "/",
		homeRoute:  "/home",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate resolves the session and decides the route. Last route wins:
// starting a new evaluation cancels the previous in-flight one, and an
// evaluation that was overtaken returns ErrSuperseded instead of a
// decision. Resolver errors fail closed (treated as absent).
func (g *Gate) Evaluate(ctx context.Context, route string) (Evaluation, error) {
	g.mu.Lock()
	g.seq++
	mine := g.seq
	if g.cancel != nil {
		g.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.state = StateUnknown
	g.mu.Unlock()

	session, err := g.resolver.Resolve(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoute, route).Msg("session resolution failed, treating as absent")
		session = nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seq != mine {
		return Evaluation{Route: route}, ErrSuperseded
	}

	decision := Decide(g.policy, route, session)
	g.session = session
	g.state = stateFor(decision)

	// Only applied decisions are audited; a superseded one never gets here.
	if decision != Allow {
		entry := audit.Entry{
			Action: audit.ActionAccessDenied,
			Target: route,
			Detail: decision.String(),
			At:     time.Now().UTC(),
		}
		if session != nil {
			entry.ActorID = string(session.Identity)
		}
		g.recorder.Record(ctx, entry)
	}

	ev := Evaluation{
		Route:      route,
		Decision:   decision.String(),
		SuperAdmin: session.IsSuperAdmin(),
	}
	switch decision {
	case RedirectToLogin:
		ev.RedirectTo = g.loginRoute
	case RedirectToHome:
		ev.RedirectTo = g.homeRoute
	}
	return ev, nil
}

// State returns the gate's position after the latest completed
// evaluation; StateUnknown while one is in flight.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsSuperAdmin reports whether the latest resolved session is
// super-admin. UI convenience only: the decision in Evaluate is the
// actual boundary.
func (g *Gate) IsSuperAdmin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.IsSuperAdmin()
}

func stateFor(d Decision) State {
	switch d {
	case RedirectToLogin:
		return StateBlockedLogin
	case RedirectToHome:
		return StateBlockedHome
	default:
		return StatePublicOK
	}
}
