// Package query models user filter rows and the predicate expression tree
// they compile into. The tree is walked by visitors: the PostgreSQL visitor
// in query/infrastructure renders it to SQL, the evaluate visitor in this
// package applies it to an in-memory record.
package query

import "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain/operators"

type Associativity string

const (
	LeftAssociative  Associativity = "LEFT"
	RightAssociative Associativity = "RIGHT"
	NonAssociative   Associativity = "NON"
)

type Operable interface {
	Associativity() Associativity
	Operator() operators.Operator
}

type Visitable interface {
	Accept(Visitor) error
}

type Visitor interface {
	VisitColumn(ColumnNode) error
	VisitAttribute(AttributeNode) error
	VisitValue(ValueNode) error
	VisitInfix(InfixNode) error
	VisitPrefix(PrefixNode) error
	VisitMatchAll(MatchAllNode) error
}

// Record columns with a dedicated field in the backing store. Every other
// addressable value lives in the attributes mapping.
const (
	ColumnCategory    = "category"
	ColumnContainerID = "container_id"
)

func Column(name string) ColumnNode {
	return ColumnNode{name: name}
}

// ColumnNode references a dedicated record column.
type ColumnNode struct {
	name string
}

func (n ColumnNode) Name() string {
	return n.name
}

func (n ColumnNode) Accept(v Visitor) error {
	return v.VisitColumn(n)
}

func Attribute(name string) AttributeNode {
	return AttributeNode{name: name}
}

// AttributeNode references attributes[<name>].value of a record.
type AttributeNode struct {
	name string
}

func (n AttributeNode) Name() string {
	return n.name
}

func (n AttributeNode) Accept(v Visitor) error {
	return v.VisitAttribute(n)
}

func Value(value any) ValueNode {
	return ValueNode{value: value}
}

type ValueNode struct {
	value any
}

func (n ValueNode) Value() any {
	return n.value
}

func (n ValueNode) Accept(v Visitor) error {
	return v.VisitValue(n)
}

func Equal(left, right Visitable) InfixNode {
	return InfixNode{
		left:          left,
		operator:      operators.OperatorEq,
		right:         right,
		associativity: NonAssociative,
	}
}

// ILike builds a case-insensitive pattern match. The right operand carries
// an already-escaped pattern, see EscapePattern.
func ILike(left, right Visitable) InfixNode {
	return InfixNode{
		left:          left,
		operator:      operators.OperatorILike,
		right:         right,
		associativity: NonAssociative,
	}
}

// In builds a set membership test. The right operand is a ValueNode holding
// the candidate slice.
func In(left, right Visitable) InfixNode {
	return InfixNode{
		left:          left,
		operator:      operators.OperatorIn,
		right:         right,
		associativity: NonAssociative,
	}
}

func And(left Visitable, rights ...Visitable) InfixNode {
	left, right := foldRights(And, left, rights...)
	return InfixNode{
		left:          left,
		operator:      operators.OperatorAnd,
		right:         right,
		associativity: LeftAssociative,
	}
}

func Or(left Visitable, rights ...Visitable) InfixNode {
	left, right := foldRights(Or, left, rights...)
	return InfixNode{
		left:          left,
		operator:      operators.OperatorOr,
		right:         right,
		associativity: LeftAssociative,
	}
}

func foldRights(
	aCallable func(Visitable, ...Visitable) InfixNode,
	aLeft Visitable,
	aRights ...Visitable,
) (left, right Visitable) {
	for len(aRights) > 1 {
		aLeft = aCallable(aLeft, aRights[0])
		aRights = aRights[1:]
	}
	return aLeft, aRights[0]
}

type InfixNode struct {
	left          Visitable
	operator      operators.Operator
	right         Visitable
	associativity Associativity
}

func (n InfixNode) Left() Visitable {
	return n.left
}

func (n InfixNode) Operator() operators.Operator {
	return n.operator
}

func (n InfixNode) Right() Visitable {
	return n.right
}

func (n InfixNode) Associativity() Associativity {
	return n.associativity
}

func (n InfixNode) Accept(v Visitor) error {
	return v.VisitInfix(n)
}

func Not(operand Visitable) PrefixNode {
	return PrefixNode{
		operator:      operators.OperatorNot,
		operand:       operand,
		associativity: RightAssociative,
	}
}

type PrefixNode struct {
	operator      operators.Operator
	operand       Visitable
	associativity Associativity
}

func (n PrefixNode) Operand() Visitable {
	return n.operand
}

func (n PrefixNode) Operator() operators.Operator {
	return n.operator
}

func (n PrefixNode) Associativity() Associativity {
	return n.associativity
}

func (n PrefixNode) Accept(v Visitor) error {
	return v.VisitPrefix(n)
}

// MatchAll is the expression an empty row set with no scope assembles into:
// it matches every record and backs the show-all fallback.
func MatchAll() MatchAllNode {
	return MatchAllNode{}
}

type MatchAllNode struct{}

func (n MatchAllNode) Accept(v Visitor) error {
	return v.VisitMatchAll(n)
}
