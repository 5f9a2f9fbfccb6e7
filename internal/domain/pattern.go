package domain

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
)

// Pattern is a record whose values are regular expressions. It is only
// ever used as a query or listen argument.
type Pattern struct {
	fields map[string]string
}

func NewPattern(fields map[string]string) Pattern {
	return Pattern{fields: maps.Clone(fields)}
}

// ParsePattern builds a pattern from KEY=REGEX arguments.
func ParsePattern(pairs []string) (Pattern, error) {
	rec, err := ParseRecord(pairs)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	return Pattern{fields: rec.fields}, nil
}

func (p Pattern) Fields() map[string]string {
	return maps.Clone(p.fields)
}

func (p Pattern) String() string {
	return NewRecord(p.fields).String()
}

// Compile validates every expression. Matching is an unanchored search,
// so "(?i)connect" matches "disconnect" as well.
func (p Pattern) Compile() (*Matcher, error) {
	keys := slices.Sorted(maps.Keys(p.fields))
	exprs := make([]fieldExpr, 0, len(keys))
	for _, key := range keys {
		re, err := regexp.Compile(p.fields[key])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidPattern, key, err)
		}
		exprs = append(exprs, fieldExpr{field: key, re: re})
	}

	return &Matcher{exprs: exprs}, nil
}

type fieldExpr struct {
	field string
	re    *regexp.Regexp
}

// Matcher is a compiled Pattern. It is safe for concurrent use.
type Matcher struct {
	exprs []fieldExpr
}

// Match reports whether every pattern field is present in rec and its
// value matches. The empty pattern matches everything.
func (m *Matcher) Match(rec Record) bool {
	for _, expr := range m.exprs {
		value, ok := rec.Get(expr.field)
		if !ok || !expr.re.MatchString(value) {
			return false
		}
	}

	return true
}

// Filter returns the records that match, in input order.
func (m *Matcher) Filter(records []Record) []Record {
	matched := make([]Record, 0, len(records))
	for _, rec := range records {
		if m.Match(rec) {
			matched = append(matched, rec)
		}
	}

	return matched
}
