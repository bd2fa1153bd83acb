package domain

import "time"

// Session is a fully resolved, privileged login. A session is never
// partially valid: it exists only when both the credential and a
// privileged role were confirmed in the same resolution cycle.
// Sessions are process-local and recomputed per navigation event.
type Session struct {
	Identity   Identity
	Role       Role
	ResolvedAt time.Time
}

// IsSuperAdmin reports whether the session holds the super-admin role.
func (s *Session) IsSuperAdmin() bool {
	return s != nil && s.Role == RoleSuperAdmin
}
