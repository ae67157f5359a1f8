package credential

import "fmt"

// Role is the privilege level carried by an access credential. It is a
// closed set: anything outside it is rejected at decode time.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// rank orders roles by privilege. Unknown roles rank zero and satisfy nothing.
func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r.rank() > 0 }

// Satisfies reports whether r grants at least the privileges of required.
// super_admin satisfies admin, admin satisfies user.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.rank() >= required.rank()
}

func (r Role) String() string { return string(r) }

// ParseRole maps a claim value to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrMalformed, s)
	}
	return r, nil
}
