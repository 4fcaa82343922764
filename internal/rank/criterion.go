package rank

import (
	"cmp"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// Field is the candidate attribute a SortCriterion compares.
type Field int

const (
	// FieldName compares names alphabetically, ignoring case.
	FieldName Field = iota
	// FieldKey compares the kind specific numeric key.
	FieldKey
	// FieldWeight compares the weight written by the last ranking pass.
	FieldWeight
)

// SortCriterion is the tie-break applied between candidates of equal weight.
type SortCriterion struct {
	Field      Field
	Descending bool
}

var (
	Alphabetical     = SortCriterion{Field: FieldName}
	AlphabeticalDesc = SortCriterion{Field: FieldName, Descending: true}
	SecondaryKey     = SortCriterion{Field: FieldKey}
	SecondaryKeyDesc = SortCriterion{Field: FieldKey, Descending: true}
	RawWeight        = SortCriterion{Field: FieldWeight}
	RawWeightDesc    = SortCriterion{Field: FieldWeight, Descending: true}
)

var fieldNames = map[Field]string{
	FieldName:   "name",
	FieldKey:    "key",
	FieldWeight: "weight",
}

// String returns the configuration form, e.g. "name" or "key-desc".
func (c SortCriterion) String() string {
	s, ok := fieldNames[c.Field]
	if !ok {
		s = fmt.Sprintf("field(%d)", int(c.Field))
	}
	if c.Descending {
		s += "-desc"
	}
	return s
}

// ParseCriterion parses the configuration form of a SortCriterion.
// Accepted: name, key, weight, each optionally suffixed with -asc or -desc.
// "alphabetical" and "line" are accepted as aliases of name and key.
func ParseCriterion(s string) (SortCriterion, error) {
	v := strings.ToLower(strings.TrimSpace(s))

	var c SortCriterion
	switch {
	case strings.HasSuffix(v, "-desc"):
		c.Descending = true
		v = strings.TrimSuffix(v, "-desc")
	case strings.HasSuffix(v, "-asc"):
		v = strings.TrimSuffix(v, "-asc")
	}

	switch v {
	case "name", "alphabetical":
		c.Field = FieldName
	case "key", "line":
		c.Field = FieldKey
	case "weight":
		c.Field = FieldWeight
	default:
		return SortCriterion{}, jerrors.New(jerrors.ErrCodeInvalidSortOrder,
			fmt.Sprintf("unknown sort order %q", s), nil).
			WithSuggestion("Use one of: name, name-desc, key, key-desc, weight, weight-desc")
	}
	return c, nil
}

// MustParseCriterion is ParseCriterion for compile-time constants.
func MustParseCriterion(s string) SortCriterion {
	c, err := ParseCriterion(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Comparator orders two candidates, returning <0, 0 or >0.
type Comparator func(a, b *candidate.Candidate) int

func byName(a, b *candidate.Candidate) int   { return compareFold(a.Name, b.Name) }
func byKey(a, b *candidate.Candidate) int    { return cmp.Compare(a.Key, b.Key) }
func byWeight(a, b *candidate.Candidate) int { return cmp.Compare(a.Weight, b.Weight) }

func reverse(c Comparator) Comparator {
	return func(a, b *candidate.Candidate) int { return c(b, a) }
}

// comparators holds one entry per SortCriterion. Every caller that needs a
// tie-break goes through here.
var comparators = map[SortCriterion]Comparator{
	Alphabetical:     byName,
	AlphabeticalDesc: reverse(byName),
	SecondaryKey:     byKey,
	SecondaryKeyDesc: reverse(byKey),
	RawWeight:        byWeight,
	RawWeightDesc:    reverse(byWeight),
}

// ComparatorFor returns the comparator for c. Unknown criteria fall back to
// Alphabetical.
func ComparatorFor(c SortCriterion) Comparator {
	if cmpFn, ok := comparators[c]; ok {
		return cmpFn
	}
	return byName
}

// compareFold compares two strings rune by rune ignoring case, then falls
// back to a byte comparison so that distinct names never compare equal.
func compareFold(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ra, wa := utf8.DecodeRuneInString(a[i:])
		rb, wb := utf8.DecodeRuneInString(b[j:])
		if ra != rb {
			la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
			if la != lb {
				return cmp.Compare(la, lb)
			}
		}
		i += wa
		j += wb
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return strings.Compare(a, b)
}
