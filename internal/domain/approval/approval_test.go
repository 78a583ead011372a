package approval

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	movementID, userID := uuid.New(), uuid.New()

	t.Run("approval without comment", func(t *testing.T) {
		e, err := NewEntry(movementID, userID, ActionApproved, nil)
		require.NoError(t, err)
		assert.Equal(t, ActionApproved, e.Action)
		assert.Nil(t, e.Comment)
		assert.False(t, e.CreatedAt.IsZero())
	})

	t.Run("blank comment is dropped", func(t *testing.T) {
		blank := "   "
		e, err := NewEntry(movementID, userID, ActionRejected, &blank)
		require.NoError(t, err)
		assert.Nil(t, e.Comment)
	})

	t.Run("comment requires text", func(t *testing.T) {
		blank := ""
		_, err := NewEntry(movementID, userID, ActionComment, &blank)
		assert.ErrorIs(t, err, ErrEmptyComment)

		_, err = NewEntry(movementID, userID, ActionComment, nil)
		assert.ErrorIs(t, err, ErrEmptyComment)
	})

	t.Run("comment trimmed", func(t *testing.T) {
		text := "  looks fine  "
		e, err := NewEntry(movementID, userID, ActionComment, &text)
		require.NoError(t, err)
		assert.Equal(t, "looks fine", *e.Comment)
	})

	t.Run("too long", func(t *testing.T) {
		long := strings.Repeat("x", MaxCommentLength+1)
		_, err := NewEntry(movementID, userID, ActionComment, &long)
		assert.ErrorIs(t, err, ErrCommentTooLong)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := NewEntry(movementID, userID, Action("MERGED"), nil)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})
}
