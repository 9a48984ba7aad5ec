package entity

import "slices"

// Role is the capacity a caller acts in, as asserted by the identity provider's token.
type Role string

const (
	// RoleCustomer earns and redeems points.
	RoleCustomer Role = "customer"
	// RoleBusiness administers a loyalty program and verifies redemption codes.
	// A business account's user ID is the business ID.
	RoleBusiness Role = "business"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleBusiness:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// RolesFromStrings converts token claims to Roles, dropping unknown values.
func RolesFromStrings(ss []string) Roles {
	result := make(Roles, 0, len(ss))
	for _, s := range ss {
		role := Role(s)
		if role.IsValid() {
			result = append(result, role)
		}
	}

	return result
}
