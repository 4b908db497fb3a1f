package query

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrRangeOperator is returned when a fromTo row reaches the compiler.
// Range rows are resolved upstream into repeated equal rows, one per
// expanded identifier.
var ErrRangeOperator = errors.New("query: fromTo row must be expanded before compilation")

// CompileRow turns one active row into a predicate fragment over the field
// its attribute resolves to. Category targets the dedicated category column;
// every other attribute targets attributes[<name>].value.
func CompileRow(row Row) (Visitable, error) {
	field := fieldRef(row.Attribute)
	switch row.Operator {
	case OpEqual:
		return Equal(field, Value(row.Value)), nil
	case OpInclude:
		return ILike(field, Value("%"+EscapePattern(row.Value)+"%")), nil
	case OpStartsWith:
		return ILike(field, Value(EscapePattern(row.Value)+"%")), nil
	case OpEndsWith:
		return ILike(field, Value("%"+EscapePattern(row.Value))), nil
	case OpFromTo:
		return nil, ErrRangeOperator
	default:
		return nil, errors.Errorf("query: unknown operator %q", row.Operator)
	}
}

func fieldRef(attr RowAttribute) Visitable {
	if attr == AttrCategory {
		return Column(ColumnCategory)
	}
	return Attribute(string(attr))
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapePattern escapes LIKE metacharacters in a literal user value so it
// can be embedded in an ILIKE pattern.
func EscapePattern(s string) string {
	return patternEscaper.Replace(s)
}
