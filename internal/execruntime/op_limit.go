package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// Limit enforces an (offset, count) ceiling on a stream of rows (spec
// §4.5.3 "Limit"). In Partial mode the ceiling applies per group keyed
// by KeyFn; `setWasLast`-equivalent behavior (Done becoming true) fires
// only when the group key changes after the group's count is reached, so
// a caller can keep pulling rows from a sibling group.
type Limit struct {
	Offset int
	Count  int // <0 means unbounded
	KeyFn  func(lf.Tuple) (string, error)

	seen      int
	groupSeen map[string]int
	lastKey   string
	haveKey   bool
	done      bool
}

// Apply filters one row through the limit, returning keep=true if it
// should be passed downstream. done is set once the operator will never
// again return keep=true for the current (or, outside Partial mode, any)
// group.
func (op *Limit) Apply(row lf.Tuple) (keep bool, done bool, err error) {
	if op.KeyFn == nil {
		return op.applyWhole(row)
	}
	return op.applyPartial(row)
}

func (op *Limit) applyWhole(row lf.Tuple) (bool, bool, error) {
	if op.done {
		return false, true, nil
	}
	idx := op.seen
	op.seen++
	if idx < op.Offset {
		return false, false, nil
	}
	if op.Count >= 0 && idx >= op.Offset+op.Count {
		op.done = true
		return false, true, nil
	}
	if op.Count >= 0 && idx == op.Offset+op.Count-1 {
		op.done = true
		return true, true, nil
	}
	return true, false, nil
}

// applyPartial re-runs the cap per group. A group's exhaustion is only
// reported (done=true) once a row belonging to a *different* group is
// observed — the spec's "setWasLast fires only when the group-key
// changes" — so a caller scanning a sorted-by-key stream keeps consuming
// (and discarding) the tail of an over-cap group until the next group
// starts, rather than stopping mid-group.
func (op *Limit) applyPartial(row lf.Tuple) (bool, bool, error) {
	key, err := op.KeyFn(row)
	if err != nil {
		return false, false, err
	}
	if op.groupSeen == nil {
		op.groupSeen = make(map[string]int)
	}

	groupChanged := op.haveKey && key != op.lastKey
	wasDone := op.done
	if groupChanged {
		op.done = false
	}

	idx := op.groupSeen[key]
	op.groupSeen[key] = idx + 1
	op.lastKey = key
	op.haveKey = true

	keep := idx >= op.Offset && (op.Count < 0 || idx < op.Offset+op.Count)
	if op.Count >= 0 && idx >= op.Offset+op.Count {
		op.done = true
	}
	return keep, groupChanged && wasDone, nil
}
