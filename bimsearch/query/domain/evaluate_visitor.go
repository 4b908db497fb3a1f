package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/bimsearch-go/bimsearch/query/domain/operators"
)

// Context supplies record values to the evaluate visitor.
type Context interface {
	// ColumnValue resolves a dedicated record column.
	ColumnValue(name string) (any, error)
	// AttributeValue resolves attributes[<name>].value. The second return
	// reports whether the attribute is present.
	AttributeValue(name string) (any, bool)
}

// Evaluate applies a filter expression to one record context. Semantics
// mirror the backing store: comparisons against a missing attribute are
// unknown, and unknown propagates through AND/OR/NOT the SQL way, so a
// record without the attribute matches neither a predicate nor its negation.
func Evaluate(ctx Context, exp Visitable) (bool, error) {
	v := NewEvaluateVisitor(ctx)
	if err := exp.Accept(v); err != nil {
		return false, err
	}
	b, ok := v.CurrentValue().(bool)
	return ok && b, nil
}

func NewEvaluateVisitor(ctx Context) *EvaluateVisitor {
	return &EvaluateVisitor{ctx: ctx}
}

type EvaluateVisitor struct {
	ctx Context
	// currentValue holds the value of the last visited subtree; nil means
	// SQL NULL / unknown.
	currentValue any
}

func (v *EvaluateVisitor) CurrentValue() any {
	return v.currentValue
}

func (v *EvaluateVisitor) VisitColumn(n ColumnNode) error {
	val, err := v.ctx.ColumnValue(n.Name())
	if err != nil {
		return err
	}
	v.currentValue = val
	return nil
}

func (v *EvaluateVisitor) VisitAttribute(n AttributeNode) error {
	val, ok := v.ctx.AttributeValue(n.Name())
	if !ok {
		v.currentValue = nil
		return nil
	}
	v.currentValue = val
	return nil
}

func (v *EvaluateVisitor) VisitValue(n ValueNode) error {
	v.currentValue = n.Value()
	return nil
}

func (v *EvaluateVisitor) VisitMatchAll(MatchAllNode) error {
	v.currentValue = true
	return nil
}

func (v *EvaluateVisitor) VisitPrefix(n PrefixNode) error {
	if n.Operator() != operators.OperatorNot {
		return errors.Errorf("query: evaluate: unknown prefix operator %q", n.Operator())
	}
	if err := n.Operand().Accept(v); err != nil {
		return err
	}
	if v.currentValue == nil {
		return nil // NOT unknown is unknown
	}
	b, ok := v.currentValue.(bool)
	if !ok {
		return errors.Errorf("query: evaluate: NOT over non-boolean %T", v.currentValue)
	}
	v.currentValue = !b
	return nil
}

func (v *EvaluateVisitor) VisitInfix(n InfixNode) error {
	if err := n.Left().Accept(v); err != nil {
		return err
	}
	left := v.currentValue
	if err := n.Right().Accept(v); err != nil {
		return err
	}
	right := v.currentValue

	switch n.Operator() {
	case operators.OperatorAnd:
		v.currentValue = evalAnd(left, right)
	case operators.OperatorOr:
		v.currentValue = evalOr(left, right)
	case operators.OperatorEq:
		v.currentValue = evalCompare(left, right, func(l, r string) bool { return l == r })
	case operators.OperatorILike:
		matched, err := evalILike(left, right)
		if err != nil {
			return err
		}
		v.currentValue = matched
	case operators.OperatorIn:
		v.currentValue = evalIn(left, right)
	default:
		return errors.Errorf("query: evaluate: unknown infix operator %q", n.Operator())
	}
	return nil
}

func evalAnd(left, right any) any {
	if left == false || right == false {
		return false
	}
	if left == nil || right == nil {
		return nil
	}
	return true
}

func evalOr(left, right any) any {
	if left == true || right == true {
		return true
	}
	if left == nil || right == nil {
		return nil
	}
	return false
}

func evalCompare(left, right any, cmp func(l, r string) bool) any {
	if left == nil || right == nil {
		return nil
	}
	return cmp(stringify(left), stringify(right))
}

func evalILike(left, right any) (any, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	re, err := patternRegexp(stringify(right))
	if err != nil {
		return nil, err
	}
	return re.MatchString(stringify(left)), nil
}

func evalIn(left, right any) any {
	if left == nil || right == nil {
		return nil
	}
	candidates, ok := right.([]string)
	if !ok {
		return false
	}
	needle := stringify(left)
	for _, c := range candidates {
		if c == needle {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// patternRegexp translates an escaped ILIKE pattern (see EscapePattern) into
// an anchored case-insensitive regexp.
func patternRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			}
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}
