package profile

import (
	"context"
	"time"
)

// Role labels observed across the application. Admin is a super-role: a
// holder passes every role check.
const (
	RoleUser      = "user"
	RoleSubmitter = "submitter"
	RoleApprover  = "approver"
	RoleRejector  = "rejector"
	RoleDeleter   = "deleter"
	RoleAdmin     = "admin"
)

// Profile is the application-level user record, distinct from the auth
// identity. Roles is the canonical role collection; the legacy singular
// column is reconciled into it at read time by the repository.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) HasRole(role string) bool {
	if p.IsAdmin() {
		return true
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Profile) IsAdmin() bool {
	for _, r := range p.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// DefaultRoles is what a profile falls back to when no role was ever
// recorded.
func DefaultRoles() []string {
	return []string{RoleUser}
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) error
	UpdateRoles(ctx context.Context, id string, roles []string) error
}
