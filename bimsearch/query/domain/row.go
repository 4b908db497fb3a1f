package query

import "github.com/krew-solutions/bimsearch-go/bimsearch/option"

// RowAttribute selects which record value a row filters on.
type RowAttribute string

const (
	AttrCategory   RowAttribute = "Category"
	AttrName       RowAttribute = "Name"
	AttrObjectType RowAttribute = "ObjectType"
	AttrTag        RowAttribute = "Tag"
)

// RowOperator selects how the row value is matched.
type RowOperator string

const (
	OpEqual      RowOperator = "equal"
	OpInclude    RowOperator = "include"
	OpStartsWith RowOperator = "startsWith"
	OpEndsWith   RowOperator = "endsWith"
	OpFromTo     RowOperator = "fromTo"
)

// RowLogic selects how the row combines with the other rows.
type RowLogic string

const (
	LogicAnd RowLogic = "AND"
	LogicNot RowLogic = "NOT"
)

// Row is one user-specified filter condition. Rows live entirely client-side
// and are never persisted.
type Row struct {
	Attribute RowAttribute
	Operator  RowOperator
	Value     string
	ValueEnd  option.Option[string]
	Logic     RowLogic
}

// IsInert reports whether the row is excluded from compilation: an empty
// value always disables a row, and a fromTo row additionally needs a
// non-empty range end.
func (r Row) IsInert() bool {
	if r.Value == "" {
		return true
	}
	if r.Operator == OpFromTo && r.ValueEnd.UnwrapOrZero() == "" {
		return true
	}
	return false
}

// ActiveRows filters out inert rows, preserving order.
func ActiveRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.IsInert() {
			out = append(out, r)
		}
	}
	return out
}

// FindRange returns the index of the first active fromTo row, or -1.
func FindRange(rows []Row) int {
	for i, r := range rows {
		if r.Operator == OpFromTo && !r.IsInert() {
			return i
		}
	}
	return -1
}
