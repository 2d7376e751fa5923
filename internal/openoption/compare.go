package openoption

import (
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// collatorFor returns a golang.org/x/text/collate.Collator for name, or nil
// if name is empty or not a valid language tag (meaning: compare raw
// bytes). A new Collator is built on every call; nothing is cached.
func collatorFor(name string) *collate.Collator {
	if name == "" {
		return nil
	}
	tag, err := language.Parse(name)
	if err != nil {
		return nil
	}
	return collate.New(tag)
}

// compareValues orders two string-serialized field values the way the
// driver's key comparator would: numerically for numeric field types,
// otherwise lexically — collation-aware when the field declares one
// (FieldDescriptor.Collation, sourced from FileID's FieldCollation[i]).
// Returns <0, 0, >0 like strings.Compare / bytes.Compare.
func compareValues(fd lf.FieldDescriptor, a, b string) int {
	switch fd.Type {
	case lf.FieldInt, lf.FieldLong:
		ai, aerr := strconv.ParseInt(a, 10, 64)
		bi, berr := strconv.ParseInt(b, 10, 64)
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
		af, aerr := strconv.ParseFloat(a, 64)
		bf, berr := strconv.ParseFloat(b, 64)
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
	if c := collatorFor(fd.Collation); c != nil {
		return c.CompareString(a, b)
	}
	return strings.Compare(a, b)
}
