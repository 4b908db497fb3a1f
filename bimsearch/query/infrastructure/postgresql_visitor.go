package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	q "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
	"github.com/krew-solutions/bimsearch-go/bimsearch/query/domain/operators"
)

// Compile renders a filter expression to a parameterized SQL condition
// suitable for a WHERE clause over the elements table.
func Compile(exp q.Visitable) (sql string, params []any, err error) {
	v := NewPostgresqlVisitor()
	if err := exp.Accept(v); err != nil {
		return "", nil, err
	}
	return v.Result()
}

type PostgresqlVisitorOption func(*PostgresqlVisitor)

// PlaceholderIndex shifts the first placeholder, for embedding the rendered
// condition after existing parameters.
func PlaceholderIndex(index int) PostgresqlVisitorOption {
	return func(v *PostgresqlVisitor) {
		v.placeholderIndex = index
	}
}

func NewPostgresqlVisitor(opts ...PostgresqlVisitorOption) *PostgresqlVisitor {
	v := &PostgresqlVisitor{
		precedenceMapping: make(map[string]int),
	}
	// https://www.postgresql.org/docs/14/sql-syntax-lexical.html#SQL-PRECEDENCE-TABLE
	v.setPrecedence(90, "ILIKE NON")
	v.setPrecedence(80, "= NON", "IN NON")
	v.setPrecedence(60, "NOT RIGHT")
	v.setPrecedence(50, "AND LEFT")
	v.setPrecedence(40, "OR LEFT")
	for i := range opts {
		opts[i](v)
	}
	return v
}

type PostgresqlVisitor struct {
	sql               string
	placeholderIndex  int
	parameters        []any
	precedence        int
	precedenceMapping map[string]int
}

func (v PostgresqlVisitor) nodePrecedenceKey(n q.Operable) string {
	return fmt.Sprintf("%s %s", n.Operator(), n.Associativity())
}

func (v PostgresqlVisitor) setPrecedence(precedence int, keys ...string) {
	for _, key := range keys {
		v.precedenceMapping[key] = precedence
	}
}

func (v *PostgresqlVisitor) visit(precedenceKey string, callable func() error) error {
	outerPrecedence := v.precedence
	innerPrecedence, ok := v.precedenceMapping[precedenceKey]
	if !ok {
		innerPrecedence = outerPrecedence
	}
	v.precedence = innerPrecedence
	if innerPrecedence < outerPrecedence {
		v.sql += "("
	}
	if err := callable(); err != nil {
		return err
	}
	if innerPrecedence < outerPrecedence {
		v.sql += ")"
	}
	v.precedence = outerPrecedence
	return nil
}

func (v *PostgresqlVisitor) VisitColumn(n q.ColumnNode) error {
	switch n.Name() {
	case q.ColumnCategory, q.ColumnContainerID:
		v.sql += n.Name()
		return nil
	default:
		return errors.Errorf("query: unknown column %q", n.Name())
	}
}

func (v *PostgresqlVisitor) VisitAttribute(n q.AttributeNode) error {
	name := strings.ReplaceAll(n.Name(), "'", "''")
	v.sql += fmt.Sprintf("(attributes -> '%s' ->> 'value')", name)
	return nil
}

func (v *PostgresqlVisitor) VisitValue(n q.ValueNode) error {
	v.placeholderIndex++
	v.sql += fmt.Sprintf("$%d", v.placeholderIndex)
	v.parameters = append(v.parameters, n.Value())
	return nil
}

func (v *PostgresqlVisitor) VisitMatchAll(q.MatchAllNode) error {
	v.sql += "TRUE"
	return nil
}

func (v *PostgresqlVisitor) VisitInfix(n q.InfixNode) error {
	if n.Operator() == operators.OperatorIn {
		return v.visitIn(n)
	}
	return v.visit(v.nodePrecedenceKey(n), func() error {
		if err := n.Left().Accept(v); err != nil {
			return err
		}
		v.sql += fmt.Sprintf(" %s ", n.Operator())
		if n.Operator() == operators.OperatorILike {
			defer func() { v.sql += ` ESCAPE '\'` }()
		}
		return n.Right().Accept(v)
	})
}

// visitIn renders membership as "left = ANY($n)" so the candidate slice
// travels as one array parameter.
func (v *PostgresqlVisitor) visitIn(n q.InfixNode) error {
	return v.visit(v.nodePrecedenceKey(n), func() error {
		if err := n.Left().Accept(v); err != nil {
			return err
		}
		v.sql += " = ANY("
		if err := n.Right().Accept(v); err != nil {
			return err
		}
		v.sql += ")"
		return nil
	})
}

func (v *PostgresqlVisitor) VisitPrefix(n q.PrefixNode) error {
	return v.visit(v.nodePrecedenceKey(n), func() error {
		v.sql += fmt.Sprintf("%s ", n.Operator())
		return n.Operand().Accept(v)
	})
}

func (v *PostgresqlVisitor) Result() (sql string, params []any, err error) {
	return v.sql, v.parameters, nil
}
