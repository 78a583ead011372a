package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

// ApprovalServiceImpl implements the ApprovalService interface. Every
// transition locks the movement row, so concurrent approvals of one movement
// serialize and the loser sees the winner's status.
type ApprovalServiceImpl struct {
	tx        persistence.TxRunner
	movements movement.Repository
	approvals approval.Repository
	outbox    outbox.Repository
	policy    *access.Evaluator
	logger    *slog.Logger
	now       func() time.Time
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	logger *slog.Logger,
	tx persistence.TxRunner,
	movements movement.Repository,
	approvals approval.Repository,
	outboxRepo outbox.Repository,
	policy *access.Evaluator,
) ApprovalService {
	return &ApprovalServiceImpl{
		tx:        tx,
		movements: movements,
		approvals: approvals,
		outbox:    outboxRepo,
		policy:    policy,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// transition is one locked state change: authorize, mutate, then optionally
// describe the history entry to append
type transition struct {
	action    access.Action
	eventType shared.EventType
	apply     func(m *movement.Movement, now time.Time) error
	history   func(m *movement.Movement) (approval.Action, *string, bool)
	comment   string
}

func (s *ApprovalServiceImpl) run(ctx context.Context, p *access.Principal, id uuid.UUID, t transition) (*movement.Movement, error) {
	log := logger.FromContext(ctx, s.logger)
	var result *movement.Movement

	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movements := s.movements.WithTx(tx)

		m, err := movements.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(p, t.action, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID}); err != nil {
			return err
		}

		now := s.now()
		if err := t.apply(m, now); err != nil {
			return err
		}
		if err := movements.Update(ctx, m); err != nil {
			return err
		}

		if t.history != nil {
			if action, comment, ok := t.history(m); ok {
				entry, err := approval.NewEntry(m.ID, p.UserID, action, comment)
				if err != nil {
					return asValidation(err)
				}
				if err := s.approvals.WithTx(tx).Append(ctx, entry); err != nil {
					return err
				}
			}
		}

		event := newEvent(ctx, t.eventType, m, p.UserID, now)
		event.Comment = t.comment
		if err := stageEvent(ctx, s.outbox.WithTx(tx), event); err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		log.Warn("Movement transition failed",
			"movement_id", id.String(),
			"action", string(t.action),
			"error", err,
		)
		return nil, err
	}

	log.Info("Movement transitioned",
		"movement_id", id.String(),
		"action", string(t.action),
		"status", string(result.Status),
		"user_id", p.UserID.String(),
	)
	return result, nil
}

// Finalize moves a DRAFT to PENDING. Overriding a missing department needs the
// edit permission on the area, not just ownership.
func (s *ApprovalServiceImpl) Finalize(ctx context.Context, p *access.Principal, id uuid.UUID, override bool) (*movement.Movement, error) {
	return s.run(ctx, p, id, transition{
		action:    access.ActionFinalize,
		eventType: shared.EventMovementFinalized,
		apply: func(m *movement.Movement, now time.Time) error {
			if override && m.NeedsCategorization() {
				if err := s.policy.Authorize(p, access.ActionEdit, access.Resource{AreaID: m.AreaID}); err != nil {
					return err
				}
			}
			return m.Finalize(override, now)
		},
	})
}

func (s *ApprovalServiceImpl) Approve(ctx context.Context, p *access.Principal, id uuid.UUID, comment *string) (*movement.Movement, error) {
	return s.run(ctx, p, id, transition{
		action:    access.ActionApprove,
		eventType: shared.EventMovementApproved,
		apply: func(m *movement.Movement, now time.Time) error {
			return m.Approve(p.UserID, now)
		},
		history: func(*movement.Movement) (approval.Action, *string, bool) {
			return approval.ActionApproved, comment, true
		},
		comment: deref(comment),
	})
}

// Reject records the reason on the movement. The history entry carries the
// comment, falling back to the reason.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, p *access.Principal, id uuid.UUID, reason, comment *string) (*movement.Movement, error) {
	reason = trimmed(reason)
	note := trimmed(comment)
	if note == nil {
		note = reason
	}
	return s.run(ctx, p, id, transition{
		action:    access.ActionReject,
		eventType: shared.EventMovementRejected,
		apply: func(m *movement.Movement, now time.Time) error {
			return m.Reject(p.UserID, reason, now)
		},
		history: func(*movement.Movement) (approval.Action, *string, bool) {
			return approval.ActionRejected, note, true
		},
		comment: deref(note),
	})
}

// Cancel withdraws a movement. The withdrawal is recorded as an EDITED entry.
func (s *ApprovalServiceImpl) Cancel(ctx context.Context, p *access.Principal, id uuid.UUID, reason *string) (*movement.Movement, error) {
	note := "Cancelled"
	if r := trimmed(reason); r != nil {
		note = "Cancelled: " + *r
	}
	return s.run(ctx, p, id, transition{
		action:    access.ActionCancel,
		eventType: shared.EventMovementCancelled,
		apply: func(m *movement.Movement, now time.Time) error {
			return m.Cancel(now)
		},
		history: func(*movement.Movement) (approval.Action, *string, bool) {
			return approval.ActionEdited, &note, true
		},
		comment: note,
	})
}

// AddComment appends a COMMENT entry without touching the movement status
func (s *ApprovalServiceImpl) AddComment(ctx context.Context, p *access.Principal, id uuid.UUID, comment string) (*approval.Entry, error) {
	var entry *approval.Entry

	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		m, err := s.movements.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(p, access.ActionComment, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID}); err != nil {
			return err
		}

		entry, err = approval.NewEntry(m.ID, p.UserID, approval.ActionComment, &comment)
		if err != nil {
			return asValidation(err)
		}
		if err := s.approvals.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		event := newEvent(ctx, shared.EventMovementCommented, m, p.UserID, s.now())
		event.Comment = deref(entry.Comment)
		return stageEvent(ctx, s.outbox.WithTx(tx), event)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *ApprovalServiceImpl) History(ctx context.Context, p *access.Principal, id uuid.UUID) ([]*approval.Entry, error) {
	m, err := s.movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, access.ActionView, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID}); err != nil {
		return nil, err
	}

	entries, err := s.approvals.ListByMovement(ctx, id)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("Failed to load approval history", "movement_id", id.String(), "error", err)
		return nil, err
	}
	return entries, nil
}
