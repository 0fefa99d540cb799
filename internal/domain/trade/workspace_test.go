package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace() *Workspace {
	w := NewWorkspace()
	locked := enrichedRow(2, "ZOR1", "1000", "2000")
	locked.MarkCreated("0000004711")
	w.Replace([]*Row{
		enrichedRow(1, "ZOR1", "1000", "2000"),
		locked,
		enrichedRow(3, "ZOR1", "1000", "2000"),
	})
	return w
}

func TestWorkspace_Replace(t *testing.T) {
	w := newTestWorkspace()
	_, err := w.Toggle(1)
	require.NoError(t, err)
	require.True(t, w.IsSelected(1))

	w.Replace([]*Row{enrichedRow(1, "ZOR9", "1", "2")})

	assert.Equal(t, 1, w.Len())
	assert.False(t, w.IsSelected(1), "replace clears the selection")
	row, ok := w.Get(1)
	require.True(t, ok)
	assert.Equal(t, "ZOR9", row.OrderReason)
}

func TestWorkspace_Toggle(t *testing.T) {
	w := newTestWorkspace()

	t.Run("selects and deselects", func(t *testing.T) {
		selected, err := w.Toggle(1)
		require.NoError(t, err)
		assert.True(t, selected)

		selected, err = w.Toggle(1)
		require.NoError(t, err)
		assert.False(t, selected)
	})

	t.Run("rejects rows with a document number", func(t *testing.T) {
		selected, err := w.Toggle(2)
		assert.ErrorIs(t, err, ErrRowLocked)
		assert.False(t, selected)
		assert.False(t, w.IsSelected(2))
	})

	t.Run("unknown row", func(t *testing.T) {
		_, err := w.Toggle(99)
		assert.ErrorIs(t, err, ErrRowNotFound)
	})
}

func TestWorkspace_SelectAll(t *testing.T) {
	w := newTestWorkspace()
	assert.Equal(t, 2, w.SelectAll())

	selected := w.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, 1, selected[0].RowNumber)
	assert.Equal(t, 3, selected[1].RowNumber)

	assert.ErrorIs(t, w.Select(2), ErrRowLocked)
}

func TestWorkspace_SelectedKeepsStoredOrder(t *testing.T) {
	w := NewWorkspace()
	w.Replace([]*Row{
		enrichedRow(3, "ZOR1", "1000", "2000"),
		enrichedRow(1, "ZOR1", "1000", "2000"),
	})
	require.NoError(t, w.Select(1))
	require.NoError(t, w.Select(3))

	selected := w.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, 3, selected[0].RowNumber)
	assert.Equal(t, 1, selected[1].RowNumber)
}

func TestWorkspace_ApplyUpdates(t *testing.T) {
	w := newTestWorkspace()
	w.SelectAll()

	updated3 := enrichedRow(3, "ZOR1", "1000", "2000")
	updated3.MarkCreated("0000004712")
	updated1 := enrichedRow(1, "ZOR1", "1000", "2000")
	updated1.MarkCreateFailed("Timeout")

	// Out of order and with an unknown row number: merge is by row number.
	applied := w.ApplyUpdates([]*Row{updated3, enrichedRow(42, "", "", ""), updated1})
	assert.Equal(t, 2, applied)

	rows := w.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, CreateFailed("Timeout"), rows[0].Status)
	assert.Equal(t, "0000004711", rows[1].DocumentNumber)
	assert.Equal(t, "0000004712", rows[2].DocumentNumber)

	assert.True(t, w.IsSelected(1))
	assert.False(t, w.IsSelected(3), "created rows leave the selection")
}

func TestWorkspace_ReturnsCopies(t *testing.T) {
	w := newTestWorkspace()
	rows := w.Rows()
	rows[0].Material = "CHANGED"

	row, ok := w.Get(1)
	require.True(t, ok)
	assert.Equal(t, "MAT001", row.Material)
}
