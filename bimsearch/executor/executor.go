// Package executor runs assembled queries against the element store,
// fanning out over expanded range values and merging the results without
// duplication.
package executor

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
	"github.com/krew-solutions/bimsearch-go/bimsearch/logging"
	query "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
	"github.com/krew-solutions/bimsearch-go/bimsearch/rangeexp"
)

// Outcome classifies an execution result.
type Outcome int

const (
	// OutcomeMatched means the query succeeded with at least one item.
	OutcomeMatched Outcome = iota
	// OutcomeEmpty means the query succeeded with zero items.
	OutcomeEmpty
	// OutcomeFailed means range expansion or the backing store failed.
	OutcomeFailed
	// OutcomeCleared means no filter was active and no scope was given:
	// the caller should fall back to showing everything.
	OutcomeCleared
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	case OutcomeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Result is the outcome of one search execution. Items is populated only
// for OutcomeMatched; Err only for OutcomeFailed.
type Result struct {
	Outcome Outcome
	Items   []element.ResultItem
	Err     error
}

func matched(items []element.ResultItem) Result {
	return Result{Outcome: OutcomeMatched, Items: items}
}

func failed(kind, cause error) Result {
	return Result{Outcome: OutcomeFailed, Err: classify(kind, cause)}
}

const defaultResultCap = 5000

type Option func(*Executor)

// WithResultCap bounds the merged result set. Zero disables the cap.
func WithResultCap(cap int) Option {
	return func(e *Executor) {
		e.resultCap = cap
	}
}

// WithRateLimit throttles range fan-out sub-queries.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(e *Executor) {
		e.limiter = limiter
	}
}

func WithLogger(log *logging.Logger) Option {
	return func(e *Executor) {
		e.log = log
	}
}

type Executor struct {
	finder    element.Finder
	resultCap int
	limiter   *rate.Limiter
	log       *logging.Logger
}

func NewExecutor(finder element.Finder, opts ...Option) *Executor {
	e := &Executor{
		finder:    finder,
		resultCap: defaultResultCap,
		log:       logging.Noop(),
	}
	for i := range opts {
		opts[i](e)
	}
	return e
}

// Execute runs the given rows restricted to the scope containers.
//
// A fromTo row fans out into one backing-store query per expanded value,
// issued sequentially so a failure is observed before further work and the
// accumulation order stays deterministic. Records are deduplicated by
// identity across sub-queries; a failure on any sub-query discards partial
// results from the batch.
func (e *Executor) Execute(ctx context.Context, rows []query.Row, scope []string) Result {
	active := query.ActiveRows(rows)

	if len(active) == 0 {
		if len(scope) == 0 {
			return Result{Outcome: OutcomeCleared}
		}
		// Scope alone still restricts visibility, so query by scope only.
		return e.run(ctx, [][]query.Row{nil}, scope)
	}

	rangeIdx := query.FindRange(active)
	if rangeIdx < 0 {
		return e.run(ctx, [][]query.Row{active}, scope)
	}

	rangeRow := active[rangeIdx]
	values, err := rangeexp.Expand(rangeRow.Value, rangeRow.ValueEnd.Unwrap())
	if err != nil {
		return failed(ErrInvalidRange, err)
	}
	e.log.Debug("range expanded", "from", rangeRow.Value, "to", rangeRow.ValueEnd.Unwrap(), "count", len(values))

	batches := make([][]query.Row, 0, len(values))
	for _, v := range values {
		batch := make([]query.Row, len(active))
		copy(batch, active)
		batch[rangeIdx] = query.Row{
			Attribute: rangeRow.Attribute,
			Operator:  query.OpEqual,
			Value:     v,
			Logic:     rangeRow.Logic,
		}
		batches = append(batches, batch)
	}
	return e.run(ctx, batches, scope)
}

func (e *Executor) run(ctx context.Context, batches [][]query.Row, scope []string) Result {
	seen := make(map[element.Identity]struct{})
	var items []element.ResultItem

	for _, rows := range batches {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return failed(ErrBackingStore, err)
			}
		}
		exp, err := query.Assemble(rows, scope)
		if err != nil {
			return failed(ErrQueryBuild, err)
		}
		records, err := e.finder.FindByFilter(ctx, exp, e.resultCap)
		if err != nil {
			return failed(ErrBackingStore, err)
		}
		for _, r := range records {
			id := r.Identity()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, element.NewResultItem(r))
			if e.resultCap > 0 && len(items) >= e.resultCap {
				e.log.Debug("result cap reached", "cap", e.resultCap)
				return matched(items)
			}
		}
	}

	if len(items) == 0 {
		return Result{Outcome: OutcomeEmpty}
	}
	return matched(items)
}
