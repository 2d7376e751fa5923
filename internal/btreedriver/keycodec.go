// Package btreedriver adapts tinySQL's page-based B+Tree (internal/storage/pager)
// into a logicalfile.FileDriver: the ordered index implementation behind
// every range-search-capable table.
//
// Grounded on internal/storage/pager/btree.go, pager.go, btree_page.go.
package btreedriver

import (
	"encoding/binary"
	"fmt"
	"math"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// keyCodec turns typed key-field values into order-preserving byte strings,
// so that BTree.ScanRange's plain byte comparison agrees with the tuple
// comparison internal/openoption computed the bounds against.
type keyCodec struct {
	fields []lf.FieldDescriptor
}

// encodeComponent appends the order-preserving encoding of one field's
// string-serialized value (the convention SearchBound.Start/Stop use) to
// buf.
func (kc keyCodec) encodeComponent(buf []byte, fd lf.FieldDescriptor, val string) ([]byte, error) {
	switch fd.Type {
	case lf.FieldInt, lf.FieldLong, lf.FieldDate:
		var n int64
		if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
			return nil, fmt.Errorf("btreedriver: not an integer: %q", val)
		}
		u := uint64(n) ^ (1 << 63) // flip sign bit so two's-complement order matches byte order
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], u)
		return append(buf, tmp[:]...), nil

	case lf.FieldDouble:
		var f float64
		if _, err := fmt.Sscanf(val, "%g", &f); err != nil {
			return nil, fmt.Errorf("btreedriver: not a float: %q", val)
		}
		bits := math.Float64bits(f)
		if bits&(1<<63) != 0 {
			bits = ^bits // negative: flip all bits
		} else {
			bits |= 1 << 63 // positive: flip sign bit only
		}
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], bits)
		return append(buf, tmp[:]...), nil

	case lf.FieldString:
		// Escape 0x00 as 0x00 0xFF and terminate with 0x00 0x00, so that a
		// shorter string always sorts before any string it's a prefix of
		// (classic order-preserving variable-length encoding).
		for i := 0; i < len(val); i++ {
			if val[i] == 0x00 {
				buf = append(buf, 0x00, 0xFF)
			} else {
				buf = append(buf, val[i])
			}
		}
		return append(buf, 0x00, 0x00), nil

	default:
		return nil, fmt.Errorf("btreedriver: field type %v cannot appear in a search key", fd.Type)
	}
}

// encodePrefix encodes an ordered, left-to-right prefix of key-field
// values (used both for a full key and for a partial composite-key range
// boundary).
func (kc keyCodec) encodePrefix(vals []string) ([]byte, error) {
	var buf []byte
	for i, v := range vals {
		var err error
		buf, err = kc.encodeComponent(buf, kc.fields[i], v)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// encodeTuple encodes a full key tuple (one value per key field) for
// Insert/Delete/Get/Fetch.
func (kc keyCodec) encodeTuple(key lf.Tuple) ([]byte, error) {
	vals := make([]string, len(key))
	for i, v := range key {
		vals[i] = fmt.Sprint(v)
	}
	return kc.encodePrefix(vals)
}

// byteRange computes the inclusive [lo, hi] byte range BTree.ScanRange
// should be asked to walk for the given compiled bounds. The range is
// deliberately coarse — callers still need rowMatchesBounds to apply exact
// operator semantics (strict vs non-strict, Like, IsNull) to each
// candidate row. A Like pattern bounds neither end of the range, and an
// upper bound carried in the start slot bounds only its high end.
func (kc keyCodec) byteRange(bounds []lf.SearchBound) (lo, hi []byte, err error) {
	loVals := make([]string, 0, len(bounds))
	for _, b := range bounds {
		if !b.HasStart || b.StartOpe == lf.OpLike || b.StartOpe == lf.OpLessThan || b.StartOpe == lf.OpLessThanEquals {
			break
		}
		loVals = append(loVals, b.Start)
	}
	if len(loVals) > 0 {
		lo, err = kc.encodePrefix(loVals)
		if err != nil {
			return nil, nil, err
		}
	}

	hiVals := make([]string, 0, len(bounds))
	for _, b := range bounds {
		if b.HasStop {
			hiVals = append(hiVals, b.Stop)
			break
		}
		if b.HasStart {
			if b.StartOpe == lf.OpLike {
				break
			}
			hiVals = append(hiVals, b.Start)
			continue
		}
		break
	}
	if len(hiVals) > 0 {
		hi, err = kc.encodePrefix(hiVals)
		if err != nil {
			return nil, nil, err
		}
		// The high bound may cover fewer fields than the key, and its
		// encoding is then a prefix of every longer key sharing it (e.g.
		// stop=5 on the first of two key fields must still admit the key
		// (5, "x")); pad with 0xFF so the prefix sorts after every extension
		// of it.
		hi = append(hi, 0xFF)
	}
	return lo, hi, nil
}
