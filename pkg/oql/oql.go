// Package oql builds Overpass QL statement fragments.
//
// A Statement selects one element kind and accumulates bracketed tag
// filters. Statements are immutable values: every filter call returns a
// new Statement and never touches its receiver, so a common base can be
// branched into independent queries:
//
//	base := oql.Node().Filter("amenity", "cafe")
//	a := base.Filter("cuisine", "coffee")
//	b := base.MatchFold("name", "^starbucks")
//
// renders base as `node[amenity=cafe]`, a and b with only their own
// trailing clause.
package oql

import (
	"fmt"
	"strings"
)

// filterKind discriminates how a clause is rendered.
type filterKind int

const (
	filterExists filterKind = iota
	filterEquals
	filterRegex
	filterRegexFold
)

// TagFilter is a single bracketed clause of a statement.
type TagFilter struct {
	kind  filterKind
	key   string
	value string
}

// Key builds an existence clause, rendered as [key].
func Key(key string) TagFilter {
	return TagFilter{kind: filterExists, key: key}
}

// Tag builds an equality clause, rendered as [key=value]. The value is
// inserted verbatim; escaping is the caller's responsibility.
func Tag(key, value string) TagFilter {
	return TagFilter{kind: filterEquals, key: key, value: value}
}

// Regex builds a regular-expression clause, rendered as [key~"pattern"].
func Regex(key, pattern string) TagFilter {
	return TagFilter{kind: filterRegex, key: key, value: pattern}
}

// RegexFold builds a case-insensitive regular-expression clause, rendered
// as [key~"pattern",i].
func RegexFold(key, pattern string) TagFilter {
	return TagFilter{kind: filterRegexFold, key: key, value: pattern}
}

func (f TagFilter) render(sb *strings.Builder) {
	switch f.kind {
	case filterExists:
		fmt.Fprintf(sb, "[%s]", f.key)
	case filterEquals:
		fmt.Fprintf(sb, "[%s=%s]", f.key, f.value)
	case filterRegex:
		fmt.Fprintf(sb, "[%s~\"%s\"]", f.key, f.value)
	case filterRegexFold:
		fmt.Fprintf(sb, "[%s~\"%s\",i]", f.key, f.value)
	}
}

// Statement is one Overpass QL statement: a selector keyword plus zero or
// more tag filters in accumulation order.
type Statement struct {
	selector string
	filters  []TagFilter
}

// Node starts a node statement.
func Node() Statement { return Statement{selector: "node"} }

// Way starts a way statement.
func Way() Statement { return Statement{selector: "way"} }

// Relation starts a relation statement.
func Relation() Statement { return Statement{selector: "relation"} }

// Rel starts a relation statement using the short keyword.
func Rel() Statement { return Statement{selector: "rel"} }

// NWR starts a statement matching nodes, ways and relations alike.
func NWR() Statement { return Statement{selector: "nwr"} }

// with returns a copy of s with extra clauses appended. The filter slice
// is always reallocated so statements sharing a prefix never alias.
func (s Statement) with(extra ...TagFilter) Statement {
	filters := make([]TagFilter, len(s.filters), len(s.filters)+len(extra))
	copy(filters, s.filters)
	filters = append(filters, extra...)
	return Statement{selector: s.selector, filters: filters}
}

// Filter appends a tag clause. With no value it renders [key]; with one
// value it renders [key=value]; with several values it renders a regex
// alternation, [key~"v1|v2"], matching any of them.
func (s Statement) Filter(key string, value ...string) Statement {
	switch len(value) {
	case 0:
		return s.with(Key(key))
	case 1:
		return s.with(Tag(key, value[0]))
	default:
		return s.with(Regex(key, strings.Join(value, "|")))
	}
}

// Match appends a regular-expression clause, [key~"pattern"].
func (s Statement) Match(key, pattern string) Statement {
	return s.with(Regex(key, pattern))
}

// MatchFold appends a case-insensitive regular-expression clause,
// [key~"pattern",i].
func (s Statement) MatchFold(key, pattern string) Statement {
	return s.with(RegexFold(key, pattern))
}

// FilterAll appends several clauses in argument order, each producing its
// own bracketed rendering.
func (s Statement) FilterAll(filters ...TagFilter) Statement {
	return s.with(filters...)
}

// String renders the statement: the selector keyword followed by each
// clause in accumulation order, with no separators beyond the brackets.
func (s Statement) String() string {
	var sb strings.Builder
	sb.WriteString(s.selector)
	for _, f := range s.filters {
		f.render(&sb)
	}
	return sb.String()
}
