package approval

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxCommentLength bounds free-text history entries
const MaxCommentLength = 2000

var (
	ErrEmptyComment   = errors.New("comment cannot be empty")
	ErrCommentTooLong = errors.New("comment exceeds 2000 characters")
	ErrInvalidAction  = errors.New("invalid approval action")
)

// Action is the kind of an approval history entry
type Action string

const (
	ActionApproved Action = "APPROVED"
	ActionRejected Action = "REJECTED"
	ActionComment  Action = "COMMENT"
	ActionEdited   Action = "EDITED"
)

// Entry is an immutable approval-history record. Entries are only ever appended.
type Entry struct {
	ID         int64     `json:"id"`
	MovementID uuid.UUID `json:"movement_id"`
	UserID     uuid.UUID `json:"user_id"`
	Action     Action    `json:"action"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEntry validates and builds a history entry. COMMENT entries require text.
func NewEntry(movementID, userID uuid.UUID, action Action, comment *string) (*Entry, error) {
	switch action {
	case ActionApproved, ActionRejected, ActionComment, ActionEdited:
	default:
		return nil, ErrInvalidAction
	}

	var text *string
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if len(trimmed) > MaxCommentLength {
			return nil, ErrCommentTooLong
		}
		if trimmed != "" {
			text = &trimmed
		}
	}
	if action == ActionComment && text == nil {
		return nil, ErrEmptyComment
	}

	return &Entry{
		MovementID: movementID,
		UserID:     userID,
		Action:     action,
		Comment:    text,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
