package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalRepository_Append(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &ApprovalRepository{querier: mock, logger: newTestLogger()}
	comment := "looks right"
	entry, err := approval.NewEntry(uuid.New(), uuid.New(), approval.ActionApproved, &comment)
	require.NoError(t, err)

	query := `INSERT INTO movement_approvals \(movement_id, user_id, action, comment, created_at\) VALUES \(\$1, \$2, \$3, \$4, \$5\) RETURNING id`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(entry.MovementID, entry.UserID, entry.Action, entry.Comment, entry.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		require.NoError(t, repo.Append(ctx, entry))
		assert.Equal(t, int64(7), entry.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("insert failed")
		mock.ExpectQuery(query).WithArgs(anyArgs(5)...).WillReturnError(dbErr)

		err := repo.Append(ctx, entry)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to append approval entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApprovalRepository_ListByMovement(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &ApprovalRepository{querier: mock, logger: newTestLogger()}
	movementID := uuid.New()
	userID := uuid.New()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	note := "please attach the invoice"

	rows := pgxmock.NewRows([]string{"id", "movement_id", "user_id", "action", "comment", "created_at"}).
		AddRow(int64(1), movementID, userID, approval.ActionComment, &note, t0).
		AddRow(int64(2), movementID, userID, approval.ActionApproved, nil, t0.Add(time.Hour))

	mock.ExpectQuery(`FROM movement_approvals WHERE movement_id = \$1 ORDER BY created_at ASC, id ASC`).
		WithArgs(movementID).
		WillReturnRows(rows)

	entries, err := repo.ListByMovement(ctx, movementID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, approval.ActionComment, entries[0].Action)
	assert.Equal(t, note, *entries[0].Comment)
	assert.Equal(t, approval.ActionApproved, entries[1].Action)
	assert.Nil(t, entries[1].Comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
