package domain

import dErrors "petidentity/pkg/domain-errors"

// Role identifies what a principal may do.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

const (
	RoleOwner          Role = "OWNER"
	RoleClinic         Role = "CLINIC"
	RoleAdmin          Role = "ADMIN"
	RolePublicVerifier Role = "PUBLIC_VERIFIER"
)

var validRoles = map[Role]bool{
	RoleOwner:          true,
	RoleClinic:         true,
	RoleAdmin:          true,
	RolePublicVerifier: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeValidation when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid role: "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}

// CanSelfRegister reports whether the role may be chosen at sign-up.
func (r Role) CanSelfRegister() bool {
	return r == RoleOwner || r == RoleClinic
}
