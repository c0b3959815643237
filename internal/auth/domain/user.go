package domain

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrNoRoles          = errors.New("user must have at least one role")
	ErrUnknownRole      = errors.New("unknown role")
	ErrTenantRequired   = errors.New("only super admins may exist without a tenant")
	ErrSuperAdminTenant = errors.New("super admins may not belong to a tenant")
	ErrEmailRequired    = errors.New("email is required")
)

type User struct {
	ID           string
	TenantID     *string // nil for platform super admins
	Email        string  // unique, compared as stored
	PasswordHash string  // argon2id PHC string
	Roles        []string
	Active       bool

	TwoFactorEnabled              bool
	PendingTwoFactorCode          *string
	PendingTwoFactorCodeExpiresAt *time.Time

	RefreshTokens []RefreshToken // oldest first
	DeactivatedAt *time.Time

	Version   int64 // bumped by every successful save
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) HasRole(role string) bool { return slices.Contains(u.Roles, role) }

func (u *User) IsSuperAdmin() bool { return u.HasRole(RoleSuperAdmin) }

// Tenant returns the tenant id or "" for users without one.
func (u *User) Tenant() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

// Validate checks the role and tenant shape of a user.
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	if len(u.Roles) == 0 {
		return ErrNoRoles
	}
	for _, r := range u.Roles {
		if !IsKnownRole(r) {
			return ErrUnknownRole
		}
	}
	switch {
	case u.TenantID == nil && !u.IsSuperAdmin():
		return ErrTenantRequired
	case u.TenantID != nil && u.IsSuperAdmin():
		return ErrSuperAdminTenant
	}
	return nil
}

// ClearTwoFactorChallenge drops any pending code.
func (u *User) ClearTwoFactorChallenge() {
	u.PendingTwoFactorCode = nil
	u.PendingTwoFactorCodeExpiresAt = nil
}
