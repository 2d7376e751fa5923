package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// MergeSortIterator k-way merges N already-sorted operands into one
// globally sorted stream (spec §4.5.2 "MergeSort"), lazily filling each
// operand's lookahead row only as needed.
type MergeSortIterator struct {
	base
	operands []ID
	spec     SortSpec

	head    []lf.Tuple
	headSet []bool
	done    []bool
}

// NewMergeSortIterator merges operands according to spec.
func NewMergeSortIterator(operands []ID, spec SortSpec) *MergeSortIterator {
	return &MergeSortIterator{operands: operands, spec: spec}
}

func (it *MergeSortIterator) Initialize(p *Program) error {
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

func (it *MergeSortIterator) StartUp(p *Program) (Status, error) {
	n := len(it.operands)
	it.head = make([]lf.Tuple, n)
	it.headSet = make([]bool, n)
	it.done = make([]bool, n)
	for _, op := range it.operands {
		if _, err := p.Iterator(op).StartUp(p); err != nil {
			return StatusFalse, err
		}
	}
	return StatusSuccess, nil
}

// fill ensures operand i's lookahead row is populated unless it is done.
func (it *MergeSortIterator) fill(p *Program, i int) error {
	if it.headSet[i] || it.done[i] {
		return nil
	}
	row, ok, err := p.Iterator(it.operands[i]).Next(p)
	if err != nil {
		return err
	}
	if !ok {
		it.done[i] = true
		return nil
	}
	it.head[i] = row
	it.headSet[i] = true
	return nil
}

func (it *MergeSortIterator) Next(p *Program) (lf.Tuple, bool, error) {
	if it.wasLast {
		return nil, false, nil
	}
	winner := -1
	for i := range it.operands {
		if err := it.fill(p, i); err != nil {
			return nil, false, err
		}
		if it.done[i] {
			continue
		}
		if winner == -1 {
			winner = i
			continue
		}
		c, err := it.spec.compare(it.head[i], it.head[winner])
		if err != nil {
			return nil, false, err
		}
		if c < 0 {
			winner = i
		}
	}
	if winner == -1 {
		return nil, false, nil
	}
	row := it.head[winner]
	it.headSet[winner] = false
	return row, true, nil
}

func (it *MergeSortIterator) Reset(p *Program) error {
	it.wasLast = false
	for i, op := range it.operands {
		it.headSet[i] = false
		it.done[i] = false
		if err := p.Iterator(op).Reset(p); err != nil {
			return err
		}
	}
	return nil
}

func (it *MergeSortIterator) Finish(p *Program) error {
	for _, op := range it.operands {
		if err := p.Iterator(op).Finish(p); err != nil {
			return err
		}
	}
	return nil
}

func (it *MergeSortIterator) Terminate(p *Program) error {
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
