package access

import (
	"fmt"

	"github.com/google/uuid"
)

// Action names a permission-checked operation
type Action string

const (
	ActionView     Action = "view"
	ActionComment  Action = "comment"
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionImport   Action = "import"
	ActionFinalize Action = "finalize"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSplit    Action = "split"
	ActionCancel   Action = "cancel"
	ActionManage   Action = "manage" // areas, departments, bank accounts
)

// Policy maps each action to the conditions that grant it; any one suffices
type Policy map[Action][]Condition

// DefaultPolicy is the portal's permission table
func DefaultPolicy() Policy {
	return Policy{
		ActionView:     {AreaScoped{MinRole: RoleViewer}},
		ActionComment:  {AreaScoped{MinRole: RoleViewer}},
		ActionCreate:   {AreaScoped{MinRole: RoleManager}},
		ActionImport:   {AreaScoped{MinRole: RoleManager}},
		ActionEdit:     {AreaScoped{MinRole: RoleManager}},
		ActionDelete:   {AreaScoped{MinRole: RoleManager}},
		ActionFinalize: {AreaScoped{MinRole: RoleManager}, OwnerOnly{MinRole: RoleViewer}},
		ActionApprove:  {AreaScoped{MinRole: RoleManager}},
		ActionReject:   {AreaScoped{MinRole: RoleManager}},
		ActionSplit:    {AreaScoped{MinRole: RoleManager}},
		ActionCancel:   {AreaScoped{MinRole: RoleAdmin}},
		ActionManage:   {GlobalAdmin{}},
	}
}

// Evaluator answers whether a principal may perform an action on a resource
type Evaluator struct {
	policy Policy
}

func NewEvaluator(policy Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Can reports whether p may perform action on r. Global admins bypass every check.
func (e *Evaluator) Can(p *Principal, action Action, r Resource) bool {
	if p == nil {
		return false
	}
	if p.IsAdmin {
		return true
	}
	for _, cond := range e.policy[action] {
		if cond.satisfiedBy(p, r) {
			return true
		}
	}
	return false
}

// Authorize is Can returning a typed error
func (e *Evaluator) Authorize(p *Principal, action Action, r Resource) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !e.Can(p, action, r) {
		return ErrForbidden{Action: action, AreaID: r.AreaID}
	}
	return nil
}

// ErrForbidden indicates the caller lacks the role an action requires
type ErrForbidden struct {
	Action Action
	AreaID uuid.UUID
}

func (e ErrForbidden) Error() string {
	if e.AreaID == uuid.Nil {
		return fmt.Sprintf("not allowed to %s", e.Action)
	}
	return fmt.Sprintf("not allowed to %s in area %s", e.Action, e.AreaID)
}
