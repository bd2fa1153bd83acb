package gate

import "github.com/JLSed/ShoeFreak-Admin/internal/domain"

// RouteCategory is the minimum role a route category requires.
type RouteCategory int

const (
	// Public routes are reachable only WITHOUT a session (the login
	// screen). A signed-in admin is redirected home.
	Public RouteCategory = iota
	// Privileged routes require any privileged session.
	Privileged
	// SuperOnly routes require a super-admin session.
	SuperOnly
)

func (c RouteCategory) String() string {
	switch c {
	case Public:
		return "public"
	case SuperOnly:
		return "super_only"
	default:
		return "privileged"
	}
}

// Decision is the gate's verdict for one navigation.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	default:
		return "allow"
	}
}

// State is the gate's position after the latest completed evaluation.
type State int

const (
	StateUnknown State = iota
	StatePublicOK
	StateBlockedLogin
	StateBlockedHome
)

// Policy maps route names to their category. Immutable at runtime.
type Policy map[string]RouteCategory

// RequiredFor returns the category of the route. Unknown routes are
// Privileged: an unlisted screen must never be reachable anonymously.
func (p Policy) RequiredFor(route string) RouteCategory {
	if c, ok := p[route]; ok {
		return c
	}
	return Privileged
}

// DefaultPolicy is the console's route table.
func DefaultPolicy() Policy {
	return Policy{
		"/":                   Public,
		"/home":               Privileged,
		"/user-accounts":      Privileged,
		"/seller-accounts":    Privileged,
		"/product-moderation": Privileged,
		"/post-moderation":    Privileged,
		"/post-detail":        Privileged,
		"/audit-logs":         Privileged,
		"/chat":               Privileged,
		"/middleman":          Privileged,
		"/admin-manage":       SuperOnly,
	}
}

// Decide is the pure transition function over (route, session). It is
// deterministic; all asynchrony lives in the resolver.
func Decide(policy Policy, route string, session *domain.Session) Decision {
	switch policy.RequiredFor(route) {
	case Public:
		if session != nil {
			return RedirectToHome
		}
		return Allow

	case SuperOnly:
		if session == nil {
			return RedirectToLogin
		}
		if session.Role != domain.RoleSuperAdmin {
			return RedirectToHome
		}
		return Allow

	default: // Privileged
		if session == nil {
			return RedirectToLogin
		}
		return Allow
	}
}
