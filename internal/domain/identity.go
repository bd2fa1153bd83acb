package domain

// Identity is the opaque, stable identifier the identity provider assigns
// to a principal (staff member or seller). It carries no structure this
// service may rely on.
type Identity string

func (i Identity) String() string {
	return string(i)
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i == ""
}

// Role is the account role attached to an identity. Every role outside
// the privileged set collapses to RoleNone for gate purposes: ordinary
// customers and sellers are indistinguishable from "no role" here.
type Role string

const (
	RoleNone       Role = "NONE"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// ParseRole maps a raw role column value onto the gate's role set.
// Unknown values collapse to RoleNone.
func ParseRole(s string) Role {
	switch s {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleSuperAdmin):
		return RoleSuperAdmin
	default:
		return RoleNone
	}
}

// Privileged reports whether the role is allowed to hold a session.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}
