package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// TuplesIterator replays a compile-time list of constant rows — the
// constant-folding leaf for VALUES clauses and literal row sources
// (spec §4.5.2 "Tuples").
type TuplesIterator struct {
	base
	rows []lf.Tuple
	pos  int
}

// NewTuplesIterator returns an iterator over rows, in order.
func NewTuplesIterator(rows []lf.Tuple) *TuplesIterator {
	return &TuplesIterator{rows: rows}
}

func (it *TuplesIterator) StartUp(p *Program) (Status, error) {
	it.pos = 0
	if len(it.rows) == 0 {
		return StatusFalse, nil
	}
	return StatusSuccess, nil
}

func (it *TuplesIterator) Next(p *Program) (lf.Tuple, bool, error) {
	if it.wasLast || it.pos >= len(it.rows) {
		return nil, false, nil
	}
	row := it.rows[it.pos]
	it.pos++
	return row, true, nil
}

// Reset returns to row 0, as the spec requires.
func (it *TuplesIterator) Reset(p *Program) error {
	it.pos = 0
	it.wasLast = false
	return nil
}
