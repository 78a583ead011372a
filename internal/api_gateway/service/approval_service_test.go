package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
)

type approvalFixture struct {
	svc       *ApprovalServiceImpl
	tx        *fakeTxRunner
	movements *MockMovementRepository
	approvals *MockApprovalRepository
	outbox    *MockOutboxRepository
}

func newApprovalFixture() *approvalFixture {
	f := &approvalFixture{
		tx:        &fakeTxRunner{},
		movements: new(MockMovementRepository),
		approvals: new(MockApprovalRepository),
		outbox:    new(MockOutboxRepository),
	}
	f.svc = NewApprovalService(newTestLogger(), f.tx, f.movements, f.approvals, f.outbox, newPolicy()).(*ApprovalServiceImpl)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *approvalFixture) assertExpectations(t *testing.T) {
	f.movements.AssertExpectations(t)
	f.approvals.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
}

func historyEntry(action approval.Action, comment string) interface{} {
	return mock.MatchedBy(func(e *approval.Entry) bool {
		if e.Action != action {
			return false
		}
		if comment == "" {
			return e.Comment == nil
		}
		return e.Comment != nil && *e.Comment == comment
	})
}

func TestApprovalService_Approve(t *testing.T) {
	ctx := context.Background()
	areaID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		f := newApprovalFixture()
		p := manager(areaID)
		m := pendingMovement(areaID)
		comment := "looks right"

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.approvals.On("Append", ctx, historyEntry(approval.ActionApproved, comment)).Return(nil).Once()
		f.outbox.On("Create", ctx, eventOfType(shared.EventMovementApproved)).Return(nil).Once()

		got, err := f.svc.Approve(ctx, p, m.ID, &comment)

		require.NoError(t, err)
		assert.Equal(t, movement.StatusApproved, got.Status)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, p.UserID, *got.ApprovedBy)
		assert.Equal(t, fixedNow, *got.ApprovedAt)
		assert.Equal(t, 1, f.tx.calls)
		f.assertExpectations(t)
	})

	t.Run("NotPending", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		m.Status = movement.StatusApproved

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		got, err := f.svc.Approve(ctx, manager(areaID), m.ID, nil)

		assert.Nil(t, got)
		var transition movement.ErrInvalidTransition
		require.ErrorAs(t, err, &transition)
		assert.Equal(t, movement.StatusApproved, transition.CurrentStatus())
		f.movements.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("ViewerForbidden", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.Approve(ctx, viewer(areaID), m.ID, nil)

		var forbidden access.ErrForbidden
		require.ErrorAs(t, err, &forbidden)
		assert.Equal(t, access.ActionApprove, forbidden.Action)
		assert.Equal(t, movement.StatusPending, m.Status)
		f.assertExpectations(t)
	})

	t.Run("SplitParent", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		m.IsSplitParent = true

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.Approve(ctx, manager(areaID), m.ID, nil)

		var splitParent movement.ErrSplitParent
		assert.ErrorAs(t, err, &splitParent)
		f.assertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newApprovalFixture()
		id := uuid.New()

		f.movements.On("LockForUpdate", ctx, id).Return(nil, movement.ErrMovementNotFound{MovementID: id}).Once()

		_, err := f.svc.Approve(ctx, manager(areaID), id, nil)

		var notFound movement.ErrMovementNotFound
		assert.ErrorAs(t, err, &notFound)
		f.assertExpectations(t)
	})

	t.Run("OutboxFailure", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.approvals.On("Append", ctx, mock.Anything).Return(nil).Once()
		f.outbox.On("Create", ctx, mock.Anything).Return(errors.New("connection reset")).Once()

		got, err := f.svc.Approve(ctx, manager(areaID), m.ID, nil)

		assert.Nil(t, got)
		assert.ErrorContains(t, err, "failed to stage movement.approved event")
		f.assertExpectations(t)
	})
}

func TestApprovalService_Reject(t *testing.T) {
	ctx := context.Background()
	areaID := uuid.New()

	t.Run("CommentFallsBackToReason", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		reason := "  missing receipt "

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.approvals.On("Append", ctx, historyEntry(approval.ActionRejected, "missing receipt")).Return(nil).Once()
		f.outbox.On("Create", ctx, eventOfType(shared.EventMovementRejected)).Return(nil).Once()

		got, err := f.svc.Reject(ctx, manager(areaID), m.ID, &reason, nil)

		require.NoError(t, err)
		assert.Equal(t, movement.StatusRejected, got.Status)
		require.NotNil(t, got.RejectionReason)
		assert.Equal(t, "missing receipt", *got.RejectionReason)
		f.assertExpectations(t)
	})

	t.Run("CommentPreferred", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		reason := "wrong area"
		comment := "please move this to the youth fund"

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.approvals.On("Append", ctx, historyEntry(approval.ActionRejected, comment)).Return(nil).Once()
		f.outbox.On("Create", ctx, eventOfType(shared.EventMovementRejected)).Return(nil).Once()

		_, err := f.svc.Reject(ctx, manager(areaID), m.ID, &reason, &comment)

		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("Draft", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		m.Status = movement.StatusDraft

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.Reject(ctx, manager(areaID), m.ID, nil, nil)

		var transition movement.ErrInvalidTransition
		assert.ErrorAs(t, err, &transition)
		f.assertExpectations(t)
	})
}

func TestApprovalService_Cancel(t *testing.T) {
	ctx := context.Background()
	areaID := uuid.New()

	t.Run("AdminCancelsApproved", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		m.Status = movement.StatusApproved
		reason := "duplicate of bank import"

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.approvals.On("Append", ctx, historyEntry(approval.ActionEdited, "Cancelled: duplicate of bank import")).Return(nil).Once()
		f.outbox.On("Create", ctx, eventOfType(shared.EventMovementCancelled)).Return(nil).Once()

		got, err := f.svc.Cancel(ctx, admin(), m.ID, &reason)

		require.NoError(t, err)
		assert.Equal(t, movement.StatusCancelled, got.Status)
		f.assertExpectations(t)
	})

	t.Run("AreaAdminWithoutReason", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		p := access.NewPrincipal(uuid.New(), "area-admin@example.org", false, []access.UserArea{{AreaID: areaID, Role: access.RoleAdmin}})

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.approvals.On("Append", ctx, historyEntry(approval.ActionEdited, "Cancelled")).Return(nil).Once()
		f.outbox.On("Create", ctx, eventOfType(shared.EventMovementCancelled)).Return(nil).Once()

		_, err := f.svc.Cancel(ctx, p, m.ID, nil)

		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("ManagerForbidden", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.Cancel(ctx, manager(areaID), m.ID, nil)

		var forbidden access.ErrForbidden
		assert.ErrorAs(t, err, &forbidden)
		f.assertExpectations(t)
	})

	t.Run("DraftCannotBeCancelled", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		m.Status = movement.StatusDraft

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.Cancel(ctx, admin(), m.ID, nil)

		var transition movement.ErrInvalidTransition
		assert.ErrorAs(t, err, &transition)
		f.assertExpectations(t)
	})
}

func TestApprovalService_Finalize(t *testing.T) {
	ctx := context.Background()
	areaID := uuid.New()

	t.Run("OwnerFinalizesCategorizedDraft", func(t *testing.T) {
		f := newApprovalFixture()
		p := viewer(areaID)
		m := pendingMovement(areaID)
		m.Status = movement.StatusDraft
		m.UserID = p.UserID

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.outbox.On("Create", ctx, eventOfType(shared.EventMovementFinalized)).Return(nil).Once()

		got, err := f.svc.Finalize(ctx, p, m.ID, false)

		require.NoError(t, err)
		assert.Equal(t, movement.StatusPending, got.Status)
		f.approvals.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("NeedsCategorization", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		m.Status = movement.StatusDraft
		m.DepartmentID = nil

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.Finalize(ctx, manager(areaID), m.ID, false)

		var uncategorized movement.ErrNeedsCategorization
		assert.ErrorAs(t, err, &uncategorized)
		assert.Equal(t, movement.StatusDraft, m.Status)
		f.assertExpectations(t)
	})

	t.Run("ManagerOverride", func(t *testing.T) {
		f := newApprovalFixture()
		m := pendingMovement(areaID)
		m.Status = movement.StatusDraft
		m.DepartmentID = nil

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()
		f.movements.On("Update", ctx, m).Return(nil).Once()
		f.outbox.On("Create", ctx, eventOfType(shared.EventMovementFinalized)).Return(nil).Once()

		got, err := f.svc.Finalize(ctx, manager(areaID), m.ID, true)

		require.NoError(t, err)
		assert.Equal(t, movement.StatusPending, got.Status)
		f.assertExpectations(t)
	})

	t.Run("OwnerViewerCannotOverride", func(t *testing.T) {
		f := newApprovalFixture()
		p := viewer(areaID)
		m := pendingMovement(areaID)
		m.Status = movement.StatusDraft
		m.DepartmentID = nil
		m.UserID = p.UserID

		f.movements.On("LockForUpdate", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.Finalize(ctx, p, m.ID, true)

		var forbidden access.ErrForbidden
		require.ErrorAs(t, err, &forbidden)
		assert.Equal(t, access.ActionEdit, forbidden.Action)
		f.assertExpectations(t)
	})
}

func TestApprovalService_AddComment(t *testing.T) {
	areaID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		ctx := logger.WithCorrelationID(context.Background(), "req-42")
		f := newApprovalFixture()
		m := pendingMovement(areaID)

		f.movements.On("GetByID", ctx, m.ID).Return(m, nil).Once()
		f.approvals.On("Append", ctx, historyEntry(approval.ActionComment, "receipt attached")).Return(nil).Once()
		f.outbox.On("Create", ctx, mock.MatchedBy(func(msg *outbox.Message) bool {
			e, err := msg.Event()
			return err == nil && e.Type == shared.EventMovementCommented && e.CorrelationID == "req-42" && e.Comment == "receipt attached"
		})).Return(nil).Once()

		entry, err := f.svc.AddComment(ctx, viewer(areaID), m.ID, " receipt attached ")

		require.NoError(t, err)
		assert.Equal(t, approval.ActionComment, entry.Action)
		assert.Equal(t, movement.StatusPending, m.Status)
		f.assertExpectations(t)
	})

	t.Run("Blank", func(t *testing.T) {
		ctx := context.Background()
		f := newApprovalFixture()
		m := pendingMovement(areaID)

		f.movements.On("GetByID", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.AddComment(ctx, viewer(areaID), m.ID, "   ")

		var verr shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "comment", verr.Fields[0].Field)
		f.assertExpectations(t)
	})

	t.Run("OutsideArea", func(t *testing.T) {
		ctx := context.Background()
		f := newApprovalFixture()
		m := pendingMovement(areaID)

		f.movements.On("GetByID", ctx, m.ID).Return(m, nil).Once()

		_, err := f.svc.AddComment(ctx, viewer(uuid.New()), m.ID, "hello")

		var forbidden access.ErrForbidden
		assert.ErrorAs(t, err, &forbidden)
		f.assertExpectations(t)
	})
}

func TestApprovalService_History(t *testing.T) {
	ctx := context.Background()
	areaID := uuid.New()
	f := newApprovalFixture()
	m := pendingMovement(areaID)
	entries := []*approval.Entry{
		{ID: 1, MovementID: m.ID, Action: approval.ActionEdited},
		{ID: 2, MovementID: m.ID, Action: approval.ActionApproved},
	}

	f.movements.On("GetByID", ctx, m.ID).Return(m, nil).Once()
	f.approvals.On("ListByMovement", ctx, m.ID).Return(entries, nil).Once()

	got, err := f.svc.History(ctx, viewer(areaID), m.ID)

	require.NoError(t, err)
	assert.Equal(t, entries, got)
	f.assertExpectations(t)
}
