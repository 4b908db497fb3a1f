package element

import (
	"context"
	"errors"

	query "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
)

// ErrNotFound is returned when an identity resolves to no record.
var ErrNotFound = errors.New("element: record not found")

// Finder reads element records from the backing store.
type Finder interface {
	// FindByFilter returns the records matching the filter expression,
	// capped at limit when limit > 0.
	FindByFilter(ctx context.Context, filter query.Visitable, limit int) ([]Record, error)
	// FindByIdentity resolves one record to its full attribute set.
	// Returns ErrNotFound when the identity is unknown.
	FindByIdentity(ctx context.Context, id Identity) (Record, error)
}
