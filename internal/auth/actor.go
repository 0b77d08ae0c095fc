package auth

import (
	"context"

	"resto-be/internal/utils"
)

const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// StaffRoles may read and approve orders.
var StaffRoles = []string{RoleAdmin, RoleStaff}

// Actor is the resolved caller of a core operation.
type Actor struct {
	UserID    uint
	Role      string
	SessionID string
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// HasAnyRole reports whether the token role is one of roles. It does not consult
// the user store; services that need the authoritative answer use a RoleChecker.
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// RoleChecker is the role lookup backed by the user store.
type RoleChecker interface {
	HasRole(ctx context.Context, userID uint, roles []string) (bool, error)
}

// ActorFromContext assembles the actor placed in ctx by the auth middleware.
func ActorFromContext(ctx context.Context) Actor {
	id, _ := utils.GetUserIDFromContext(ctx)
	return Actor{
		UserID:    id,
		Role:      utils.GetUserRoleFromContext(ctx),
		SessionID: utils.GetSessionIDFromContext(ctx),
	}
}
