package storage

import (
	"encoding/json"
	"math/big"

	"github.com/google/uuid"
)

// normalizeForJSON walks v, converting field-value types that
// encoding/json can't marshal on its own (*big.Rat, uuid.UUID) into their
// string form. Used before marshaling a pager.DirectoryEntry or any tuple
// value that may carry a rational number or a UUID key field.
func normalizeForJSON(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *big.Rat:
		return x.String()
	case big.Rat:
		return x.String()
	case uuid.UUID:
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = normalizeForJSON(vv)
		}
		return out
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = normalizeForJSON(vv)
		}
		return m
	default:
		return v
	}
}

// JSONMarshal marshals v after normalizing any big.Rat or uuid.UUID field
// values it contains into JSON-friendly strings.
func JSONMarshal(v any) ([]byte, error) {
	return json.Marshal(normalizeForJSON(v))
}
