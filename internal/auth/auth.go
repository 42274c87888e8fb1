package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleClient  Role = "client"
	RoleCourier Role = "courier"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapCreateShipment Capability = "create_shipment"
	CapViewShipment   Capability = "view_shipment"
	CapUpdateStatus   Capability = "update_status"
	CapAssignCourier  Capability = "assign_courier"
)

// capabilities maps each role to its allowed actions. Roles are not
// hierarchical; every grant is listed explicitly.
var capabilities = map[Role]map[Capability]bool{
	RoleClient: {
		CapCreateShipment: true,
		CapViewShipment:   true,
	},
	RoleCourier: {
		CapViewShipment: true,
		CapUpdateStatus: true,
	},
	RoleManager: {
		CapViewShipment:  true,
		CapUpdateStatus:  true,
		CapAssignCourier: true,
	},
	RoleAdmin: {
		CapCreateShipment: true,
		CapViewShipment:   true,
		CapUpdateStatus:   true,
		CapAssignCourier:  true,
	},
}

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := capabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}

// Session carries the authenticated caller identity. It is passed
// explicitly through the request context instead of living in ambient
// storage.
type Session struct {
	UserID uuid.UUID
	Role   Role
}

type ctxKey struct{}

// WithSession attaches a session to the context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the session, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
