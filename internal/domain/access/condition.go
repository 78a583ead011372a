package access

import "github.com/google/uuid"

// Resource is what an action is evaluated against
type Resource struct {
	AreaID  uuid.UUID
	OwnerID uuid.UUID
}

// Condition is a closed set of grant rules. Only types in this package implement it.
type Condition interface {
	satisfiedBy(p *Principal, r Resource) bool
	String() string
}

// AreaScoped grants when the principal holds at least MinRole on the resource's area
type AreaScoped struct {
	MinRole Role
}

func (c AreaScoped) satisfiedBy(p *Principal, r Resource) bool {
	role, ok := p.RoleIn(r.AreaID)
	return ok && role.AtLeast(c.MinRole)
}

func (c AreaScoped) String() string { return "area:" + string(c.MinRole) }

// OwnerOnly grants when the principal created the resource and still holds
// at least MinRole on its area
type OwnerOnly struct {
	MinRole Role
}

func (c OwnerOnly) satisfiedBy(p *Principal, r Resource) bool {
	if r.OwnerID == uuid.Nil || r.OwnerID != p.UserID {
		return false
	}
	role, ok := p.RoleIn(r.AreaID)
	return ok && role.AtLeast(c.MinRole)
}

func (c OwnerOnly) String() string { return "owner:" + string(c.MinRole) }

// GlobalAdmin grants only to users with the global admin flag
type GlobalAdmin struct{}

func (GlobalAdmin) satisfiedBy(p *Principal, _ Resource) bool { return p.IsAdmin }

func (GlobalAdmin) String() string { return "global_admin" }
