package enums

import "fmt"

// UserRole is the coarse role carried in access tokens.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleStaff    UserRole = "staff"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleStaff,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// RoleFor derives the token role from the user's staff flags.
func RoleFor(isStaff, isSuperuser bool) UserRole {
	switch {
	case isSuperuser:
		return UserRoleAdmin
	case isStaff:
		return UserRoleStaff
	default:
		return UserRoleCustomer
	}
}

// IsStaff reports whether the role may use operator endpoints.
func (u UserRole) IsStaff() bool {
	return u == UserRoleStaff || u == UserRoleAdmin
}
