package trade

import (
	"errors"
	"sync"
)

var (
	ErrRowNotFound = errors.New("trade: row not found")
	ErrRowLocked   = errors.New("trade: row already has a document number")
)

// Workspace is the in-memory row state store: the ordered rows plus the
// selection set. Only Replace and ApplyUpdates change rows.
type Workspace struct {
	mu        sync.RWMutex
	rows      []*Row
	index     map[int]int
	selection map[int]struct{}
}

// NewWorkspace creates an empty workspace
func NewWorkspace() *Workspace {
	return &Workspace{
		index:     make(map[int]int),
		selection: make(map[int]struct{}),
	}
}

// Replace swaps in a new row sequence and clears the selection
func (w *Workspace) Replace(rows []*Row) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rows = CloneRows(rows)
	w.index = make(map[int]int, len(w.rows))
	for i, r := range w.rows {
		w.index[r.RowNumber] = i
	}
	w.selection = make(map[int]struct{})
}

// ApplyUpdates merges updated rows by row number. Rows whose number is not
// in the workspace are ignored. A row that becomes locked leaves the selection.
func (w *Workspace) ApplyUpdates(updated []*Row) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	applied := 0
	for _, u := range updated {
		if u == nil {
			continue
		}
		i, ok := w.index[u.RowNumber]
		if !ok {
			continue
		}
		w.rows[i] = u.Clone()
		applied++
		if w.rows[i].IsLocked() {
			delete(w.selection, u.RowNumber)
		}
	}
	return applied
}

// Toggle flips the selection of a row and returns whether it is now selected.
// Locked rows cannot be selected.
func (w *Workspace) Toggle(rowNumber int) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, ok := w.index[rowNumber]
	if !ok {
		return false, ErrRowNotFound
	}
	if _, selected := w.selection[rowNumber]; selected {
		delete(w.selection, rowNumber)
		return false, nil
	}
	if w.rows[i].IsLocked() {
		return false, ErrRowLocked
	}
	w.selection[rowNumber] = struct{}{}
	return true, nil
}

// Select adds a row to the selection
func (w *Workspace) Select(rowNumber int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, ok := w.index[rowNumber]
	if !ok {
		return ErrRowNotFound
	}
	if w.rows[i].IsLocked() {
		return ErrRowLocked
	}
	w.selection[rowNumber] = struct{}{}
	return nil
}

// SelectAll selects every row without a document number and returns the count
func (w *Workspace) SelectAll() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, r := range w.rows {
		if !r.IsLocked() {
			w.selection[r.RowNumber] = struct{}{}
		}
	}
	return len(w.selection)
}

// IsSelected reports whether a row is selected
func (w *Workspace) IsSelected(rowNumber int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.selection[rowNumber]
	return ok
}

// Selected returns copies of the selected rows in their stored order
func (w *Workspace) Selected() []*Row {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*Row, 0, len(w.selection))
	for _, r := range w.rows {
		if _, ok := w.selection[r.RowNumber]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Rows returns copies of all rows in their stored order
func (w *Workspace) Rows() []*Row {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return CloneRows(w.rows)
}

// Get returns a copy of one row
func (w *Workspace) Get(rowNumber int) (*Row, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	i, ok := w.index[rowNumber]
	if !ok {
		return nil, false
	}
	return w.rows[i].Clone(), true
}

// Len returns the number of rows
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.rows)
}
