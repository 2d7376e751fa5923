package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// RowIDCheckKind selects which structure RowIDCheck pre-materializes its
// inner iterator into.
type RowIDCheckKind int

const (
	// RowIDCheckBitSet: inner produces row-ids only.
	RowIDCheckBitSet RowIDCheckKind = iota
	// RowIDCheckMap: inner produces full tuples, keyed by row-id to
	// position in a Collection.
	RowIDCheckMap
)

// RowIDCheck pre-materializes an inner iterator once, then answers probe
// queries against the built structure (spec §4.5.3 "RowIDCheck"): a
// `BitSet` when the inner operand is rowid-only, or a
// `rowid -> tuple-position` map when the inner produces full tuples
// consulted against a backing Collection. Probing an empty built
// structure always returns false without touching the inner iterator
// again (the "NeverTrue" fast path).
type RowIDCheck struct {
	Inner      ID
	Kind       RowIDCheckKind
	Collection ID // only consulted when Kind == RowIDCheckMap

	built   bool
	bitSet  map[int64]struct{}
	posMap  map[int64]int
	neverOK bool
}

// Build drains Inner exactly once into the configured structure. Safe to
// call more than once; only the first call does work.
func (op *RowIDCheck) Build(p *Program) error {
	if op.built {
		return nil
	}
	op.built = true
	inner := p.Iterator(op.Inner)
	if _, err := inner.StartUp(p); err != nil {
		return err
	}
	switch op.Kind {
	case RowIDCheckBitSet:
		op.bitSet = make(map[int64]struct{})
		for {
			row, ok, err := inner.Next(p)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			id, isInt := row[0].(int64)
			if isInt {
				op.bitSet[id] = struct{}{}
			}
		}
		op.neverOK = len(op.bitSet) == 0
	case RowIDCheckMap:
		op.posMap = make(map[int64]int)
		pos := 0
		coll := p.Collection(op.Collection)
		for {
			row, ok, err := inner.Next(p)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if _, err := coll.PutData(p, row); err != nil {
				return err
			}
			id, isInt := row[0].(int64)
			if isInt {
				op.posMap[id] = pos
			}
			pos++
		}
		op.neverOK = len(op.posMap) == 0
	}
	return inner.Finish(p)
}

// Probe reports whether rowID is present in the built structure, and if
// Kind is RowIDCheckMap, the matching tuple (fetched from Collection by
// position).
func (op *RowIDCheck) Probe(p *Program, rowID int64) (lf.Tuple, bool, error) {
	if op.neverOK {
		return nil, false, nil
	}
	switch op.Kind {
	case RowIDCheckBitSet:
		_, ok := op.bitSet[rowID]
		return nil, ok, nil
	default:
		pos, ok := op.posMap[rowID]
		if !ok {
			return nil, false, nil
		}
		t, found, supported, err := p.Collection(op.Collection).GetDataAt(p, pos)
		if err != nil {
			return nil, false, err
		}
		if !supported || !found {
			return nil, false, nil
		}
		return t, true, nil
	}
}
