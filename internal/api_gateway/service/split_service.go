package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

// SplitServiceImpl implements the SplitService interface
type SplitServiceImpl struct {
	tx        persistence.TxRunner
	movements movement.Repository
	approvals approval.Repository
	outbox    outbox.Repository
	refs      references
	policy    *access.Evaluator
	logger    *slog.Logger
	now       func() time.Time
}

// NewSplitService creates a new split service
func NewSplitService(
	logger *slog.Logger,
	tx persistence.TxRunner,
	movements movement.Repository,
	approvals approval.Repository,
	outboxRepo outbox.Repository,
	areas org.AreaRepository,
	departments org.DepartmentRepository,
	policy *access.Evaluator,
) SplitService {
	return &SplitServiceImpl{
		tx:        tx,
		movements: movements,
		approvals: approvals,
		outbox:    outboxRepo,
		refs:      references{areas: areas, departments: departments},
		policy:    policy,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *SplitServiceImpl) Split(ctx context.Context, p *access.Principal, id uuid.UUID, allocations []movement.Allocation) (*movement.Split, error) {
	var result movement.Split

	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movements := s.movements.WithTx(tx)

		parent, err := s.lockParent(ctx, movements, p, id)
		if err != nil {
			return err
		}
		if err := parent.CanSplit(); err != nil {
			return err
		}
		if err := s.checkAllocations(ctx, p, parent.Amount, allocations); err != nil {
			return err
		}

		now := s.now()
		result = movement.NewSplit(parent, allocations, now)
		if err := s.persist(ctx, tx, result); err != nil {
			return err
		}

		event := newEvent(ctx, shared.EventMovementSplit, parent, p.UserID, now)
		event.Comment = fmt.Sprintf("Split into %d allocations", len(result.Children))
		return stageEvent(ctx, s.outbox.WithTx(tx), event)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Movement split",
		"movement_id", id.String(),
		"allocations", len(result.Children),
		"user_id", p.UserID.String(),
	)
	return &result, nil
}

// UpdateSplit replaces every allocation of an existing split
func (s *SplitServiceImpl) UpdateSplit(ctx context.Context, p *access.Principal, id uuid.UUID, allocations []movement.Allocation) (*movement.Split, error) {
	var result movement.Split

	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movements := s.movements.WithTx(tx)

		parent, err := s.lockParent(ctx, movements, p, id)
		if err != nil {
			return err
		}
		if err := parent.CanResplit("update split"); err != nil {
			return err
		}
		if err := s.checkAllocations(ctx, p, parent.Amount, allocations); err != nil {
			return err
		}

		now := s.now()
		if _, err := s.removeChildren(ctx, movements, parent, now); err != nil {
			return err
		}

		result = movement.NewSplit(parent, allocations, now)
		if err := s.persist(ctx, tx, result); err != nil {
			return err
		}

		event := newEvent(ctx, shared.EventMovementSplitUpdated, parent, p.UserID, now)
		event.Comment = fmt.Sprintf("Split replaced with %d allocations", len(result.Children))
		return stageEvent(ctx, s.outbox.WithTx(tx), event)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Movement split updated",
		"movement_id", id.String(),
		"allocations", len(result.Children),
		"user_id", p.UserID.String(),
	)
	return &result, nil
}

// Unsplit removes every child and restores the parent as a plain movement
func (s *SplitServiceImpl) Unsplit(ctx context.Context, p *access.Principal, id uuid.UUID) (*movement.Movement, error) {
	var result *movement.Movement

	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movements := s.movements.WithTx(tx)

		parent, err := s.lockParent(ctx, movements, p, id)
		if err != nil {
			return err
		}
		if err := parent.CanResplit("unsplit"); err != nil {
			return err
		}

		now := s.now()
		removed, err := s.removeChildren(ctx, movements, parent, now)
		if err != nil {
			return err
		}

		parent.Unsplit(now)
		if err := movements.Update(ctx, parent); err != nil {
			return err
		}

		note := fmt.Sprintf("Split reversed: %d allocations removed", removed)
		entry, err := approval.NewEntry(parent.ID, p.UserID, approval.ActionEdited, &note)
		if err != nil {
			return err
		}
		if err := s.approvals.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		event := newEvent(ctx, shared.EventMovementUnsplit, parent, p.UserID, now)
		event.Comment = note
		if err := stageEvent(ctx, s.outbox.WithTx(tx), event); err != nil {
			return err
		}

		result = parent
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Movement unsplit",
		"movement_id", id.String(),
		"user_id", p.UserID.String(),
	)
	return result, nil
}

func (s *SplitServiceImpl) lockParent(ctx context.Context, movements movement.Repository, p *access.Principal, id uuid.UUID) (*movement.Movement, error) {
	parent, err := movements.LockForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, access.ActionSplit, access.Resource{AreaID: parent.AreaID, OwnerID: parent.UserID}); err != nil {
		return nil, err
	}
	return parent, nil
}

// checkAllocations validates amounts, then that every target area and
// department exists and the caller may create movements there
func (s *SplitServiceImpl) checkAllocations(ctx context.Context, p *access.Principal, parentAmount int64, allocations []movement.Allocation) error {
	if err := movement.ValidateAllocations(parentAmount, allocations); err != nil {
		return err
	}

	for i, a := range allocations {
		if _, err := s.refs.area(ctx, fmt.Sprintf("allocations[%d].area_id", i), a.AreaID); err != nil {
			return err
		}
		if a.DepartmentID != nil {
			if _, err := s.refs.department(ctx, fmt.Sprintf("allocations[%d].department_id", i), *a.DepartmentID, a.AreaID); err != nil {
				return err
			}
		}
		if err := s.policy.Authorize(p, access.ActionCreate, access.Resource{AreaID: a.AreaID}); err != nil {
			return err
		}
	}
	return nil
}

// removeChildren soft deletes the current allocations. Approved children go
// too; that is logged so the reversal can be traced.
func (s *SplitServiceImpl) removeChildren(ctx context.Context, movements movement.Repository, parent *movement.Movement, now time.Time) (int64, error) {
	children, err := movements.LockChildren(ctx, parent.ID)
	if err != nil {
		return 0, err
	}

	approved := 0
	for _, c := range children {
		if c.Status == movement.StatusApproved {
			approved++
		}
	}
	if approved > 0 {
		logger.FromContext(ctx, s.logger).Warn("Removing approved split allocations",
			"movement_id", parent.ID.String(),
			"approved_children", approved,
		)
	}

	return movements.SoftDeleteChildren(ctx, parent.ID, now)
}

func (s *SplitServiceImpl) persist(ctx context.Context, tx pgx.Tx, split movement.Split) error {
	movements := s.movements.WithTx(tx)
	for _, child := range split.Children {
		if err := movements.Create(ctx, child); err != nil {
			return fmt.Errorf("failed to create split allocation: %w", err)
		}
	}
	return movements.Update(ctx, split.Parent)
}
