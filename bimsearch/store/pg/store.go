// Package pg implements the element store over PostgreSQL.
//
// Schema:
//
//	CREATE TABLE elements (
//	    container_id text    NOT NULL,
//	    external_id  bigint  NOT NULL,
//	    category     text    NOT NULL DEFAULT '',
//	    attributes   jsonb   NOT NULL DEFAULT '{}',
//	    PRIMARY KEY (container_id, external_id)
//	);
package pg

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
	"github.com/krew-solutions/bimsearch-go/bimsearch/logging"
	query "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
	pgquery "github.com/krew-solutions/bimsearch-go/bimsearch/query/infrastructure"
)

type Store struct {
	pool *pgxpool.Pool
	log  *logging.Logger
}

func NewStore(pool *pgxpool.Pool, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Noop()
	}
	return &Store{pool: pool, log: log}
}

const selectColumns = "container_id, external_id, category, attributes"

func (s *Store) FindByFilter(ctx context.Context, filter query.Visitable, limit int) ([]element.Record, error) {
	cond, params, err := pgquery.Compile(filter)
	if err != nil {
		return nil, errors.Wrap(err, "compile filter")
	}

	sql := fmt.Sprintf("SELECT %s FROM elements WHERE %s", selectColumns, cond)
	if limit > 0 {
		params = append(params, limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(params))
	}
	s.log.Debug("find by filter", "sql", sql)

	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, errors.Wrap(err, "query elements")
	}
	defer rows.Close()

	var out []element.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate elements")
	}
	return out, nil
}

func (s *Store) FindByIdentity(ctx context.Context, id element.Identity) (element.Record, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM elements WHERE container_id = $1 AND external_id = $2",
		selectColumns,
	)
	row := s.pool.QueryRow(ctx, sql, id.ContainerID, id.ExternalID)

	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return element.Record{}, element.ErrNotFound
	}
	if err != nil {
		return element.Record{}, err
	}
	return r, nil
}

// InsertBatch writes records inside one transaction, used by seeding tools
// and integration tests.
func (s *Store) InsertBatch(ctx context.Context, records []element.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}

	for _, r := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO elements (container_id, external_id, category, attributes)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (container_id, external_id) DO UPDATE
			 SET category = EXCLUDED.category, attributes = EXCLUDED.attributes`,
			r.ContainerID, r.ExternalID, r.Category, r.Attributes,
		)
		if err != nil {
			err = errors.Wrapf(err, "insert element %s", r.Identity())
			if txErr := tx.Rollback(ctx); txErr != nil {
				return multierror.Append(err, txErr)
			}
			return err
		}
	}

	if txErr := tx.Commit(ctx); txErr != nil {
		return errors.Wrap(txErr, "failed to commit transaction")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (element.Record, error) {
	var r element.Record
	if err := row.Scan(&r.ContainerID, &r.ExternalID, &r.Category, &r.Attributes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return element.Record{}, err
		}
		return element.Record{}, errors.Wrap(err, "scan element")
	}
	return r, nil
}
