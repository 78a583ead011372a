package movement

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrMovementNotFound indicates a missing or soft-deleted movement
type ErrMovementNotFound struct {
	MovementID uuid.UUID
}

func (e ErrMovementNotFound) Error() string {
	return "movement not found: " + e.MovementID.String()
}

// ErrInvalidTransition indicates an action the current status does not permit
type ErrInvalidTransition struct {
	MovementID uuid.UUID
	Current    Status
	Action     string
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s movement %s in status %s", e.Action, e.MovementID, e.Current)
}

// CurrentStatus is reported back to callers so they can refresh
func (e ErrInvalidTransition) CurrentStatus() Status { return e.Current }

// ErrAlreadySplit indicates a split was requested on an existing split parent
type ErrAlreadySplit struct {
	MovementID uuid.UUID
	Current    Status
}

func (e ErrAlreadySplit) Error() string {
	return "movement is already split: " + e.MovementID.String()
}

func (e ErrAlreadySplit) CurrentStatus() Status { return e.Current }

// ErrNotSplit indicates a split edit on a movement that has no children
type ErrNotSplit struct {
	MovementID uuid.UUID
	Current    Status
}

func (e ErrNotSplit) Error() string {
	return "movement is not split: " + e.MovementID.String()
}

func (e ErrNotSplit) CurrentStatus() Status { return e.Current }

// ErrSplitParent indicates an operation reserved for the children of a split
type ErrSplitParent struct {
	MovementID uuid.UUID
	Current    Status
	Operation  string
}

func (e ErrSplitParent) Error() string {
	return fmt.Sprintf("cannot %s split parent %s; act on its allocations instead", e.Operation, e.MovementID)
}

func (e ErrSplitParent) CurrentStatus() Status { return e.Current }

// ErrSplitChild indicates an operation that would break the parent's split total
type ErrSplitChild struct {
	MovementID uuid.UUID
	Current    Status
	Operation  string
}

func (e ErrSplitChild) Error() string {
	return fmt.Sprintf("cannot %s split allocation %s; update the split instead", e.Operation, e.MovementID)
}

func (e ErrSplitChild) CurrentStatus() Status { return e.Current }

// ErrNeedsCategorization indicates finalize without a department and without override
type ErrNeedsCategorization struct {
	MovementID uuid.UUID
	Current    Status
}

func (e ErrNeedsCategorization) Error() string {
	return "movement needs a department before it can be finalized: " + e.MovementID.String()
}

func (e ErrNeedsCategorization) CurrentStatus() Status { return e.Current }

// ErrDuplicateIdempotencyKey indicates the movement was already created
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "movement already exists for idempotency key: " + e.Key
}
