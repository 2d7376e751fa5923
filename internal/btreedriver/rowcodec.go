package btreedriver

import (
	"bytes"
	"encoding/gob"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// encodeRow/decodeRow serialize a full row (key fields followed by value
// fields) as the B+Tree leaf value, so Get/Fetch never need a second page
// touch to recover non-key columns. gob needs no explicit Register calls
// here: every element a Tuple carries (int, int64, float64, string, bool,
// []byte) is one of the kinds encoding/gob pre-registers for interface
// transmission.
func encodeRow(t lf.Tuple) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRow(data []byte) (lf.Tuple, error) {
	var t lf.Tuple
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&t); err != nil {
		return nil, err
	}
	return t, nil
}
