// Package history holds the per-run record of every simulated variable
// as append-only columns keyed by variable name. Price functions read
// it through the View interface; only the stepper writes it.
package history

import "sort"

// View is the read-only access price functions and reporting get.
type View interface {
	// Len returns the number of recorded values for name, 0 if unknown.
	Len(name string) int

	// Last returns the most recent value of name.
	Last(name string) (float64, bool)

	// At returns the value of name at step (0-based).
	At(name string, step int) (float64, bool)

	// Series returns a copy of the full column for name, nil if unknown.
	Series(name string) []float64

	// Variables returns all recorded variable names, sorted.
	Variables() []string
}

// Table is the mutable implementation owned by a TokenEconomy.
type Table struct {
	cols map[string][]float64
}

var _ View = (*Table)(nil)

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{cols: make(map[string][]float64)}
}

// Append records the next value of name.
func (t *Table) Append(name string, v float64) {
	t.cols[name] = append(t.cols[name], v)
}

// SetLast overwrites the most recent value of name. Returns false if
// the column is unknown or empty.
func (t *Table) SetLast(name string, v float64) bool {
	col := t.cols[name]
	if len(col) == 0 {
		return false
	}
	col[len(col)-1] = v
	return true
}

// Reset discards all recorded values.
func (t *Table) Reset() {
	t.cols = make(map[string][]float64)
}

// Len returns the number of recorded values for name, 0 if unknown.
func (t *Table) Len(name string) int {
	return len(t.cols[name])
}

// Last returns the most recent value of name.
func (t *Table) Last(name string) (float64, bool) {
	col := t.cols[name]
	if len(col) == 0 {
		return 0, false
	}
	return col[len(col)-1], true
}

// At returns the value of name at step (0-based).
func (t *Table) At(name string, step int) (float64, bool) {
	col := t.cols[name]
	if step < 0 || step >= len(col) {
		return 0, false
	}
	return col[step], true
}

// Series returns a copy of the full column for name, nil if unknown.
func (t *Table) Series(name string) []float64 {
	col, ok := t.cols[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out
}

// Variables returns all recorded variable names, sorted.
func (t *Table) Variables() []string {
	names := make([]string, 0, len(t.cols))
	for name := range t.cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
