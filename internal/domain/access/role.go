package access

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is a user's grant on a single area
type Role string

const (
	RoleViewer  Role = "VIEWER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether r grants everything min grants
func (r Role) AtLeast(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

// ParseRole validates a stored role name
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r.rank() == 0 {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// UserArea grants a user a role scoped to one area
type UserArea struct {
	UserID uuid.UUID `json:"user_id"`
	AreaID uuid.UUID `json:"area_id"`
	Role   Role      `json:"role"`
}

// Principal is the authenticated caller and every grant it holds
type Principal struct {
	UserID    uuid.UUID
	Email     string
	IsAdmin   bool
	AreaRoles map[uuid.UUID]Role
}

// NewPrincipal builds a Principal from its area grants
func NewPrincipal(userID uuid.UUID, email string, isAdmin bool, grants []UserArea) *Principal {
	p := &Principal{
		UserID:    userID,
		Email:     email,
		IsAdmin:   isAdmin,
		AreaRoles: make(map[uuid.UUID]Role, len(grants)),
	}
	for _, g := range grants {
		if existing, ok := p.AreaRoles[g.AreaID]; ok && existing.AtLeast(g.Role) {
			continue
		}
		p.AreaRoles[g.AreaID] = g.Role
	}
	return p
}

// RoleIn returns the principal's role on an area and whether it has one
func (p *Principal) RoleIn(areaID uuid.UUID) (Role, bool) {
	r, ok := p.AreaRoles[areaID]
	return r, ok
}

// AccessibleAreas lists areas the principal holds any role on.
// It is meaningless for global admins, who see every area.
func (p *Principal) AccessibleAreas() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.AreaRoles))
	for id := range p.AreaRoles {
		ids = append(ids, id)
	}
	return ids
}

// CanSeeArea reports whether the principal may read an area's data
func (p *Principal) CanSeeArea(areaID uuid.UUID) bool {
	if p.IsAdmin {
		return true
	}
	_, ok := p.AreaRoles[areaID]
	return ok
}
