package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// CollectionCheck probes a side Collection for membership with the
// current tuple (spec §4.5.3 "CollectionCheck") — the mechanism behind
// EXISTS and IN sub-queries: the side collection was already
// materialized (typically via Output into a probe-only ArrayCollection),
// and this operator just compares keys against it.
type CollectionCheck struct {
	Side ID
	// KeyFn extracts the comparable key from a probe or side row. EXISTS
	// ignores the row's own key entirely (any row present ⇒ true); IN
	// supplies the projected expression value.
	KeyFn func(lf.Tuple) (any, error)
}

// Exists reports whether Side holds at least one row, ignoring content —
// used for an (optionally correlated) EXISTS sub-query whose side
// collection was rebuilt per outer row.
func (op *CollectionCheck) Exists(p *Program) (bool, error) {
	side := p.Collection(op.Side)
	if err := side.Reset(p); err != nil {
		return false, err
	}
	_, ok, err := side.GetData(p)
	return ok, err
}

// Contains reports whether probe's key (via KeyFn) matches any row
// currently in Side — an IN sub-query membership test.
func (op *CollectionCheck) Contains(p *Program, probe lf.Tuple) (bool, error) {
	key, err := op.KeyFn(probe)
	if err != nil {
		return false, err
	}
	side := p.Collection(op.Side)
	if err := side.Reset(p); err != nil {
		return false, err
	}
	for {
		row, ok, err := side.GetData(p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		sideKey, err := op.KeyFn(row)
		if err != nil {
			return false, err
		}
		if sideKey == key {
			return true, nil
		}
	}
}
