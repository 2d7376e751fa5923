package btreedriver

import (
	"fmt"
	"strings"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// rowMatchesBounds applies exact per-field operator semantics to one
// candidate row's key-field values. byteRange's [lo, hi] walk is
// intentionally coarse (composite-key byte ranges can't express strict
// vs. non-strict bounds or Like precisely); this is the exact filter that
// decides whether a row BTree.ScanRange handed back actually qualifies.
func rowMatchesBounds(keyFields []lf.FieldDescriptor, row lf.Tuple, bounds []lf.SearchBound) bool {
	for _, b := range bounds {
		if b.FieldIndex >= len(row) {
			return false
		}
		fd := keyFields[b.FieldIndex]
		actual := fmt.Sprint(row[b.FieldIndex])

		if b.HasStart {
			switch b.StartOpe {
			case lf.OpEquals:
				if compareValues(fd, actual, b.Start) != 0 {
					return false
				}
			case lf.OpGreaterThan:
				if compareValues(fd, actual, b.Start) <= 0 {
					return false
				}
			case lf.OpGreaterThanEquals:
				if compareValues(fd, actual, b.Start) < 0 {
					return false
				}
			case lf.OpLessThan:
				if compareValues(fd, actual, b.Start) >= 0 {
					return false
				}
			case lf.OpLessThanEquals:
				if compareValues(fd, actual, b.Start) > 0 {
					return false
				}
			case lf.OpIsNull:
				if actual != "" && actual != "<nil>" {
					return false
				}
			case lf.OpLike:
				if !matchLike(actual, b.Start, "") {
					return false
				}
			}
		}
		if b.HasStop {
			switch b.StopOpe {
			case lf.OpLessThan:
				if compareValues(fd, actual, b.Stop) >= 0 {
					return false
				}
			case lf.OpLessThanEquals:
				if compareValues(fd, actual, b.Stop) > 0 {
					return false
				}
			}
		}
	}
	return true
}

// matchLike implements the SQL LIKE pattern ('%' = any run, '_' = any one
// character) with an optional single-character escape, per spec §4.3.1's
// LIKE contract. Good enough for the leading-field prefix patterns the
// compiler accepts (no leading wildcard).
func matchLike(s, pattern, escape string) bool {
	var esc byte
	if escape != "" {
		esc = escape[0]
	}
	return likeMatch(s, pattern, esc)
}

func likeMatch(s, p string, esc byte) bool {
	var si, pi int
	var starIdx, starMatch = -1, -1
	for si < len(s) {
		if pi < len(p) {
			c := p[pi]
			if esc != 0 && c == esc && pi+1 < len(p) {
				if s[si] == p[pi+1] {
					si++
					pi += 2
					continue
				}
			} else if c == '_' {
				si++
				pi++
				continue
			} else if c == '%' {
				starIdx = pi
				starMatch = si
				pi++
				continue
			} else if c == s[si] {
				si++
				pi++
				continue
			}
		}
		if starIdx >= 0 {
			pi = starIdx + 1
			starMatch++
			si = starMatch
			continue
		}
		return false
	}
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}

// compareValues orders two string-serialized field values: numerically
// for integer, date and double field types, and by raw bytes otherwise.
// Unlike internal/openoption's comparator it does not apply the field's
// Collation. It is kept independent of internal/openoption since this
// package must not import it (the dependency
// runs the other way: drivers are called BY the compiled OpenOption, they
// don't call back into the compiler).
func compareValues(fd lf.FieldDescriptor, a, b string) int {
	switch fd.Type {
	case lf.FieldInt, lf.FieldLong, lf.FieldDate:
		var ai, bi int64
		_, aerr := fmt.Sscanf(a, "%d", &ai)
		_, berr := fmt.Sscanf(b, "%d", &bi)
		if aerr == nil && berr == nil {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			default:
				return 0
			}
		}
	case lf.FieldDouble:
		var af, bf float64
		_, aerr := fmt.Sscanf(a, "%g", &af)
		_, berr := fmt.Sscanf(b, "%g", &bf)
		if aerr == nil && berr == nil {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(a, b)
}
