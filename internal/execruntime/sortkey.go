package execruntime

import (
	"fmt"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// SortSpec names the key positions and per-key directions a k-way merge
// iterator (UnionDistinct, MergeSort) orders its operands by — the
// "(key-positions, directions)" the spec requires each of them to carry.
type SortSpec struct {
	Positions  []int
	Descending []bool
}

// compare compares a[pos] against b[pos] for every position in spec,
// honoring each position's direction, stopping at the first tie-break.
func (s SortSpec) compare(a, b lf.Tuple) (int, error) {
	for i, pos := range s.Positions {
		c, err := compareAny(a[pos], b[pos])
		if err != nil {
			return 0, err
		}
		if s.Descending != nil && i < len(s.Descending) && s.Descending[i] {
			c = -c
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

func compareAny(a, b any) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	switch av := a.(type) {
	case int64:
		bv, ok := toInt64Generic(b)
		if !ok {
			return 0, fmt.Errorf("execruntime: cannot compare %T with %T", a, b)
		}
		return sign(av - bv), nil
	case float64:
		bv, ok := toFloat64Generic(b)
		if !ok {
			return 0, fmt.Errorf("execruntime: cannot compare %T with %T", a, b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("execruntime: cannot compare %T with %T", a, b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("execruntime: cannot compare %T with %T", a, b)
		}
		if av == bv {
			return 0, nil
		}
		if !av {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("execruntime: unsupported key type %T", a)
	}
}

func sign(d int64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func toInt64Generic(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func toFloat64Generic(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
