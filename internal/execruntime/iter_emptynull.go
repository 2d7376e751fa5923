package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// EmptyNullIterator passes through an operand's rows; if the operand
// produces zero rows at all, it emits a single default row instead
// (spec §4.5.2 "EmptyNull") — the mechanism behind "aggregate over empty
// input still returns one row" and outer-join unmatched-side defaults.
type EmptyNullIterator struct {
	base
	operand    ID
	defaultRow lf.Tuple
	sawAny     bool
	emittedDef bool
}

// NewEmptyNullIterator wraps operand, falling back to defaultRow when
// operand is exhausted without ever having produced a row.
func NewEmptyNullIterator(operand ID, defaultRow lf.Tuple) *EmptyNullIterator {
	return &EmptyNullIterator{operand: operand, defaultRow: defaultRow}
}

func (it *EmptyNullIterator) Initialize(p *Program) error {
	if err := it.base.Initialize(p); err != nil {
		return err
	}
	return p.Iterator(it.operand).Initialize(p)
}

func (it *EmptyNullIterator) StartUp(p *Program) (Status, error) {
	it.sawAny = false
	it.emittedDef = false
	return p.Iterator(it.operand).StartUp(p)
}

func (it *EmptyNullIterator) Next(p *Program) (lf.Tuple, bool, error) {
	if it.wasLast {
		return nil, false, nil
	}
	row, ok, err := p.Iterator(it.operand).Next(p)
	if err != nil {
		return nil, false, err
	}
	if ok {
		it.sawAny = true
		return row, true, nil
	}
	if !it.sawAny && !it.emittedDef {
		it.emittedDef = true
		return it.defaultRow, true, nil
	}
	return nil, false, nil
}

func (it *EmptyNullIterator) Reset(p *Program) error {
	it.sawAny = false
	it.emittedDef = false
	it.wasLast = false
	return p.Iterator(it.operand).Reset(p)
}

func (it *EmptyNullIterator) Finish(p *Program) error {
	return p.Iterator(it.operand).Finish(p)
}

func (it *EmptyNullIterator) Terminate(p *Program) error {
	if err := it.base.Terminate(p); err != nil {
		return err
	}
	return p.Iterator(it.operand).Terminate(p)
}
