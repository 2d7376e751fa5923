package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// CascadeInputIterator concatenates N operands in declared order (spec
// §4.5.2 "CascadeInput") — the UNION ALL leaf, walking one operand to
// exhaustion before moving to the next.
type CascadeInputIterator struct {
	base
	operands []ID
	cur      int
}

// NewCascadeInputIterator concatenates operands, in the given order.
func NewCascadeInputIterator(operands []ID) *CascadeInputIterator {
	return &CascadeInputIterator{operands: operands}
}

func (it *CascadeInputIterator) Initialize(p *Program) error {
	if err := it.base.Initialize(p); err != nil {
		return err
	}
	for _, op := range it.operands {
		if err := p.Iterator(op).Initialize(p); err != nil {
			return err
		}
	}
	return nil
}

func (it *CascadeInputIterator) StartUp(p *Program) (Status, error) {
	it.cur = 0
	if len(it.operands) == 0 {
		return StatusFalse, nil
	}
	return p.Iterator(it.operands[0]).StartUp(p)
}

func (it *CascadeInputIterator) Next(p *Program) (lf.Tuple, bool, error) {
	if it.wasLast {
		return nil, false, nil
	}
	for it.cur < len(it.operands) {
		row, ok, err := p.Iterator(it.operands[it.cur]).Next(p)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return row, true, nil
		}
		if err := p.Iterator(it.operands[it.cur]).Finish(p); err != nil {
			return nil, false, err
		}
		it.cur++
		if it.cur < len(it.operands) {
			if _, err := p.Iterator(it.operands[it.cur]).StartUp(p); err != nil {
				return nil, false, err
			}
		}
	}
	return nil, false, nil
}

func (it *CascadeInputIterator) Reset(p *Program) error {
	it.cur = 0
	it.wasLast = false
	for _, op := range it.operands {
		if err := p.Iterator(op).Reset(p); err != nil {
			return err
		}
	}
	return nil
}

func (it *CascadeInputIterator) Finish(p *Program) error {
	for _, op := range it.operands {
		if err := p.Iterator(op).Finish(p); err != nil {
			return err
		}
	}
	return nil
}

func (it *CascadeInputIterator) Terminate(p *Program) error {
	if err := it.base.Terminate(p); err != nil {
		return err
	}
	for _, op := range it.operands {
		if err := p.Iterator(op).Terminate(p); err != nil {
			return err
		}
	}
	return nil
}
