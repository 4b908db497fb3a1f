package operators

type Operator string

const (
	// Comparison

	OperatorEq    Operator = "="
	OperatorILike Operator = "ILIKE"
	OperatorIn    Operator = "IN"

	// Logical

	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"
)
