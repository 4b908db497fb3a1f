// Package memory provides an in-memory element store. It backs the offline
// CLI mode and serves as the collaborator stub in tests.
package memory

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
	query "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
)

type Store struct {
	mu      sync.RWMutex
	records []element.Record
	failErr error
	// Filters records every FindByFilter call compiled, oldest first.
	filters []query.Visitable
}

func NewStore(records ...element.Record) *Store {
	return &Store{records: records}
}

// Add appends records to the store.
func (s *Store) Add(records ...element.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// FailWith makes every subsequent call return err. Pass nil to heal.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Filters returns the filter expressions seen so far.
func (s *Store) Filters() []query.Visitable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]query.Visitable, len(s.filters))
	copy(out, s.filters)
	return out
}

func (s *Store) FindByFilter(ctx context.Context, filter query.Visitable, limit int) ([]element.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.filters = append(s.filters, filter)
	failErr := s.failErr
	records := s.records
	s.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}

	var out []element.Record
	for _, r := range records {
		ok, err := query.Evaluate(recordContext{r}, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) FindByIdentity(ctx context.Context, id element.Identity) (element.Record, error) {
	if err := ctx.Err(); err != nil {
		return element.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failErr != nil {
		return element.Record{}, s.failErr
	}
	for _, r := range s.records {
		if r.Identity() == id {
			return r, nil
		}
	}
	return element.Record{}, element.ErrNotFound
}

// recordContext adapts a record to the evaluate visitor.
type recordContext struct {
	r element.Record
}

func (c recordContext) ColumnValue(name string) (any, error) {
	switch name {
	case query.ColumnCategory:
		return c.r.Category, nil
	case query.ColumnContainerID:
		return c.r.ContainerID, nil
	default:
		return nil, errors.Errorf("memory: unknown column %q", name)
	}
}

func (c recordContext) AttributeValue(name string) (any, bool) {
	return c.r.Attribute(name)
}

// LoadYAML reads a record seed file, a YAML list of records.
func LoadYAML(r io.Reader) ([]element.Record, error) {
	var records []element.Record
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode element seed")
	}
	return records, nil
}
