package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
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

// CreateMovementInput is a direct entry. Currency defaults to the area's.
type CreateMovementInput struct {
	Type                     movement.Type
	Amount                   int64
	Currency                 *string
	Description              string
	Category                 *string
	TransactionDate          time.Time
	AreaID                   uuid.UUID
	DepartmentID             *uuid.UUID
	SourceBankAccountID      *uuid.UUID
	DestinationBankAccountID *uuid.UUID

	// Approve creates the movement APPROVED when the caller may approve in the area
	Approve bool
}

// MovementDetail is a movement together with its split allocations
type MovementDetail struct {
	*movement.Movement
	Children []*movement.Movement `json:"children,omitempty"`
}

// ListMovementsInput filters a movement listing; Page is 1-based
type ListMovementsInput struct {
	AreaID  *uuid.UUID
	Status  *movement.Status
	Page    int
	PerPage int
}

// MovementServiceImpl implements the MovementService interface
type MovementServiceImpl struct {
	tx        persistence.TxRunner
	movements movement.Repository
	approvals approval.Repository
	outbox    outbox.Repository
	refs      references
	policy    *access.Evaluator
	logger    *slog.Logger
	now       func() time.Time
}

// NewMovementService creates a new movement service
func NewMovementService(
	logger *slog.Logger,
	tx persistence.TxRunner,
	movements movement.Repository,
	approvals approval.Repository,
	outboxRepo outbox.Repository,
	areas org.AreaRepository,
	departments org.DepartmentRepository,
	bankAccounts org.BankAccountRepository,
	policy *access.Evaluator,
) MovementService {
	return &MovementServiceImpl{
		tx:        tx,
		movements: movements,
		approvals: approvals,
		outbox:    outboxRepo,
		refs:      references{areas: areas, departments: departments, bankAccounts: bankAccounts},
		policy:    policy,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MovementServiceImpl) Create(ctx context.Context, p *access.Principal, in CreateMovementInput) (*movement.Movement, error) {
	log := logger.FromContext(ctx, s.logger)

	if in.AreaID == uuid.Nil {
		return nil, shared.NewValidationError("area_id", movement.ErrMissingArea.Error())
	}
	if err := s.policy.Authorize(p, access.ActionCreate, access.Resource{AreaID: in.AreaID}); err != nil {
		return nil, err
	}

	area, err := s.refs.area(ctx, "area_id", in.AreaID)
	if err != nil {
		return nil, err
	}
	if in.DepartmentID != nil {
		if _, err := s.refs.department(ctx, "department_id", *in.DepartmentID, in.AreaID); err != nil {
			return nil, err
		}
	}
	if err := s.checkBankAccounts(ctx, in.SourceBankAccountID, in.DestinationBankAccountID); err != nil {
		return nil, err
	}

	currency := area.Currency
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		currency = strings.TrimSpace(*in.Currency)
	}

	m, err := movement.New(movement.Params{
		Type:                     in.Type,
		Amount:                   in.Amount,
		Currency:                 currency,
		Description:              in.Description,
		Category:                 trimmed(in.Category),
		TransactionDate:          in.TransactionDate,
		AreaID:                   in.AreaID,
		DepartmentID:             in.DepartmentID,
		UserID:                   p.UserID,
		SourceBankAccountID:      in.SourceBankAccountID,
		DestinationBankAccountID: in.DestinationBankAccountID,
	}, movement.StatusPending)
	if err != nil {
		return nil, asValidation(err)
	}

	now := s.now()
	approveNow := in.Approve && s.policy.Can(p, access.ActionApprove, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID})
	if approveNow {
		if err := m.Approve(p.UserID, now); err != nil {
			return nil, err
		}
	}

	err = s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.movements.WithTx(tx).Create(ctx, m); err != nil {
			return err
		}
		if approveNow {
			entry, err := approval.NewEntry(m.ID, p.UserID, approval.ActionApproved, nil)
			if err != nil {
				return err
			}
			if err := s.approvals.WithTx(tx).Append(ctx, entry); err != nil {
				return err
			}
		}
		return stageEvent(ctx, s.outbox.WithTx(tx), newEvent(ctx, shared.EventMovementCreated, m, p.UserID, now))
	})
	if err != nil {
		log.Error("Failed to create movement", "area_id", in.AreaID.String(), "error", err)
		return nil, err
	}

	log.Info("Movement created",
		"movement_id", m.ID.String(),
		"area_id", m.AreaID.String(),
		"status", string(m.Status),
	)
	return m, nil
}

func (s *MovementServiceImpl) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*MovementDetail, error) {
	m, err := s.movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, access.ActionView, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID}); err != nil {
		return nil, err
	}

	detail := &MovementDetail{Movement: m}
	if m.IsSplitParent {
		children, err := s.movements.GetChildren(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load split allocations: %w", err)
		}
		detail.Children = children
	}
	return detail, nil
}

// List returns one page of the movements the caller can see and the total match count
func (s *MovementServiceImpl) List(ctx context.Context, p *access.Principal, in ListMovementsInput) ([]*movement.Movement, int, error) {
	if p == nil {
		return nil, 0, access.ErrUnauthenticated
	}
	if in.AreaID != nil {
		if err := s.policy.Authorize(p, access.ActionView, access.Resource{AreaID: *in.AreaID}); err != nil {
			return nil, 0, err
		}
	}

	filter := movement.ListFilter{
		AllAreas: p.IsAdmin,
		AreaIDs:  p.AccessibleAreas(),
		AreaID:   in.AreaID,
		Status:   in.Status,
	}
	if !filter.AllAreas && len(filter.AreaIDs) == 0 {
		return []*movement.Movement{}, 0, nil
	}
	filter.Limit, filter.Offset = pageBounds(in.Page, in.PerPage)

	return s.movements.List(ctx, filter)
}

// Update applies a content edit. Every effective edit leaves an EDITED entry.
func (s *MovementServiceImpl) Update(ctx context.Context, p *access.Principal, id uuid.UUID, patch movement.Patch) (*movement.Movement, error) {
	var (
		result *movement.Movement
		edit   movement.EditResult
	)

	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movements := s.movements.WithTx(tx)

		m, err := movements.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(p, access.ActionEdit, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID}); err != nil {
			return err
		}

		if patch.DepartmentID != nil && *patch.DepartmentID != uuid.Nil {
			if _, err := s.refs.department(ctx, "department_id", *patch.DepartmentID, m.AreaID); err != nil {
				return err
			}
		}
		if err := s.checkBankAccounts(ctx, nonNil(patch.SourceBankAccountID), nonNil(patch.DestinationBankAccountID)); err != nil {
			return err
		}

		now := s.now()
		edit, err = m.ApplyEdit(patch, now)
		if err != nil {
			return err
		}
		result = m
		if len(edit.Changed) == 0 {
			return nil
		}

		if err := movements.Update(ctx, m); err != nil {
			return err
		}

		note := "Edited: " + strings.Join(edit.Changed, ", ")
		if edit.Resubmitted {
			note += fmt.Sprintf(" (was %s, resubmitted for approval)", edit.PrevStatus)
		}
		entry, err := approval.NewEntry(m.ID, p.UserID, approval.ActionEdited, &note)
		if err != nil {
			return err
		}
		if err := s.approvals.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		event := newEvent(ctx, shared.EventMovementUpdated, m, p.UserID, now)
		event.Comment = note
		return stageEvent(ctx, s.outbox.WithTx(tx), event)
	})
	if err != nil {
		return nil, err
	}

	if len(edit.Changed) > 0 {
		logger.FromContext(ctx, s.logger).Info("Movement updated",
			"movement_id", id.String(),
			"fields", edit.Changed,
			"resubmitted", edit.Resubmitted,
		)
	}
	return result, nil
}

// Delete soft deletes a DRAFT or PENDING movement that takes no part in a split
func (s *MovementServiceImpl) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movements := s.movements.WithTx(tx)

		m, err := movements.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(p, access.ActionDelete, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID}); err != nil {
			return err
		}
		if err := m.CanDelete(); err != nil {
			return err
		}

		now := s.now()
		if err := movements.SoftDelete(ctx, id, now); err != nil {
			return err
		}
		m.DeletedAt = &now

		return stageEvent(ctx, s.outbox.WithTx(tx), newEvent(ctx, shared.EventMovementDeleted, m, p.UserID, now))
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("Movement deleted", "movement_id", id.String())
	return nil
}

func (s *MovementServiceImpl) checkBankAccounts(ctx context.Context, source, destination *uuid.UUID) error {
	if source != nil {
		if _, err := s.refs.bankAccount(ctx, "source_bank_account_id", *source); err != nil {
			return err
		}
	}
	if destination != nil {
		if _, err := s.refs.bankAccount(ctx, "destination_bank_account_id", *destination); err != nil {
			return err
		}
	}
	return nil
}

// nonNil drops ids that a patch uses to clear a field
func nonNil(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
