package query

// Assemble combines the active rows into one filter expression.
//
// AND rows are conjoined. NOT rows are not negated individually: their
// predicates are collected into one group and the whole group is combined as
// "matches none of these", a single NOR conjoined with the AND group. This
// grouping is long-standing observed behavior; see the regression test
// before changing it.
//
// A non-empty scope adds a conjunctive container_id membership condition.
// No active rows and no scope assembles to a match-all expression.
//
// Any fromTo row must have been substituted with equal rows beforehand;
// encountering one here is an error.
func Assemble(rows []Row, scopeContainerIDs []string) (Visitable, error) {
	var ands, nots []Visitable
	for _, row := range rows {
		if row.IsInert() {
			continue
		}
		p, err := CompileRow(row)
		if err != nil {
			return nil, err
		}
		if row.Logic == LogicNot {
			nots = append(nots, p)
		} else {
			ands = append(ands, p)
		}
	}

	conj := ands
	if len(nots) > 0 {
		conj = append(conj, Visitable(Not(orAll(nots))))
	}
	if len(scopeContainerIDs) > 0 {
		conj = append(conj, Visitable(In(Column(ColumnContainerID), Value(scopeContainerIDs))))
	}

	if len(conj) == 0 {
		return MatchAll(), nil
	}
	return andAll(conj), nil
}

func andAll(preds []Visitable) Visitable {
	if len(preds) == 1 {
		return preds[0]
	}
	return And(preds[0], preds[1:]...)
}

func orAll(preds []Visitable) Visitable {
	if len(preds) == 1 {
		return preds[0]
	}
	return Or(preds[0], preds[1:]...)
}
