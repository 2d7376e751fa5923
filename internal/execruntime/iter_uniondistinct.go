package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// UnionDistinctIterator k-way merges N operands, each already sorted by
// the key prefix, deduplicating on that key (spec §4.5.2
// "UnionDistinct") — an operand that does not hold a round's winning key
// may supply a default for the merged row via Defaults.
type UnionDistinctIterator struct {
	base
	operands []ID
	spec     SortSpec
	// Defaults[i], if non-nil, is consulted for operand i's contribution
	// to the merged row whenever operand i does not hold the winning key
	// for a round (the "default when another has the winning key" case).
	Defaults []lf.Tuple

	head    []lf.Tuple
	headSet []bool
	done    []bool
}

// NewUnionDistinctIterator merges operands by spec's key prefix,
// dropping duplicate keys.
func NewUnionDistinctIterator(operands []ID, spec SortSpec) *UnionDistinctIterator {
	return &UnionDistinctIterator{operands: operands, spec: spec}
}

func (it *UnionDistinctIterator) Initialize(p *Program) error {
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

func (it *UnionDistinctIterator) StartUp(p *Program) (Status, error) {
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

func (it *UnionDistinctIterator) fill(p *Program, i int) error {
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

// Next returns the next distinct key's row, consuming (and discarding)
// every operand that shares the winning key this round and applying the
// Defaults of every operand that does not.
func (it *UnionDistinctIterator) Next(p *Program) (lf.Tuple, bool, error) {
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
	key := it.head[winner]
	result := key
	for i := range it.operands {
		if i == winner {
			continue
		}
		if !it.done[i] && it.headSet[i] {
			c, err := it.spec.compare(it.head[i], key)
			if err != nil {
				return nil, false, err
			}
			if c == 0 {
				it.headSet[i] = false
				continue
			}
		}
		if i < len(it.Defaults) && it.Defaults[i] != nil {
			result = mergeDefault(result, it.Defaults[i])
		}
	}
	it.headSet[winner] = false
	return result, true, nil
}

// mergeDefault fills any nil field in result from def at the same
// position — the "another operand supplies a default" rule.
func mergeDefault(result, def lf.Tuple) lf.Tuple {
	out := make(lf.Tuple, len(result))
	copy(out, result)
	for i := range out {
		if out[i] == nil && i < len(def) {
			out[i] = def[i]
		}
	}
	return out
}

func (it *UnionDistinctIterator) Reset(p *Program) error {
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

func (it *UnionDistinctIterator) Finish(p *Program) error {
	for _, op := range it.operands {
		if err := p.Iterator(op).Finish(p); err != nil {
			return err
		}
	}
	return nil
}

func (it *UnionDistinctIterator) Terminate(p *Program) error {
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
