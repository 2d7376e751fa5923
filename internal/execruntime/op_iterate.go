package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// IterateMode selects one of the four drive modes §4.5.3 names.
type IterateMode int

const (
	IterateOnce IterateMode = iota
	IterateAll
	IterateRuntimeStartup
	IterateNestedAll
)

// Iterate drives an inner Iterator according to Mode (spec §4.5.3
// "Iterate"): Once calls Next exactly once per outer tick, All loops the
// inner iterator to exhaustion once at the start and is not re-primed,
// RuntimeStartup re-runs StartUp on the inner iterator every outer tick
// before driving it, NestedAll additionally calls Reset on the inner
// iterator every outer tick (a full rewind, not just a fresh StartUp).
type Iterate struct {
	Inner ID
	Mode  IterateMode

	started bool
}

// OuterTick executes one outer-loop iteration of the operator, invoking
// visit for every row the inner iterator yields during this tick.
// Returns StatusBreak if StartUp signaled the whole loop should be
// skipped.
func (op *Iterate) OuterTick(p *Program, visit func(lf.Tuple) error) (Status, error) {
	inner := p.Iterator(op.Inner)

	switch op.Mode {
	case IterateRuntimeStartup:
		st, err := inner.StartUp(p)
		if err != nil || st == StatusBreak {
			return st, err
		}
	case IterateNestedAll:
		if err := inner.Reset(p); err != nil {
			return StatusFalse, err
		}
		st, err := inner.StartUp(p)
		if err != nil || st == StatusBreak {
			return st, err
		}
	default:
		if !op.started {
			op.started = true
			st, err := inner.StartUp(p)
			if err != nil || st == StatusBreak {
				return st, err
			}
		}
	}

	if op.Mode == IterateOnce {
		row, ok, err := inner.Next(p)
		if err != nil {
			return StatusFalse, err
		}
		if !ok {
			return StatusFalse, nil
		}
		return StatusSuccess, visit(row)
	}

	for {
		row, ok, err := inner.Next(p)
		if err != nil {
			return StatusFalse, err
		}
		if !ok {
			break
		}
		if err := visit(row); err != nil {
			return StatusFalse, err
		}
	}
	return StatusSuccess, nil
}
