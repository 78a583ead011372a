package shared

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// EventType names a movement lifecycle event published through the outbox
type EventType string

const (
	EventMovementCreated      EventType = "movement.created"
	EventMovementImported     EventType = "movement.imported"
	EventMovementUpdated      EventType = "movement.updated"
	EventMovementFinalized    EventType = "movement.finalized"
	EventMovementApproved     EventType = "movement.approved"
	EventMovementRejected     EventType = "movement.rejected"
	EventMovementCommented    EventType = "movement.commented"
	EventMovementCancelled    EventType = "movement.cancelled"
	EventMovementDeleted      EventType = "movement.deleted"
	EventMovementSplit        EventType = "movement.split"
	EventMovementSplitUpdated EventType = "movement.split_updated"
	EventMovementUnsplit      EventType = "movement.unsplit"
)

// IsKnown reports whether t is one of the declared event types
func (t EventType) IsKnown() bool {
	switch t {
	case EventMovementCreated, EventMovementImported, EventMovementUpdated, EventMovementFinalized,
		EventMovementApproved, EventMovementRejected, EventMovementCommented, EventMovementCancelled,
		EventMovementDeleted, EventMovementSplit, EventMovementSplitUpdated, EventMovementUnsplit:
		return true
	}
	return false
}
