package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ReadMode selects how Read shapes its result.
type ReadMode int

const (
	// ReadAll returns every matching row as a []map[string]any.
	ReadAll ReadMode = iota

	// ReadRow returns the first matching row as a map[string]any, or nil
	// when nothing matches.
	ReadRow

	// ReadValue returns the first column of the first matching row, or
	// nil when nothing matches.
	ReadValue
)

// ReadOptions tunes a Read call. The zero value selects all columns, no
// ordering, no LIMIT/OFFSET, AND-joined conditions, and ReadAll.
type ReadOptions struct {
	// Fields restricts the selected columns; empty means "*".
	Fields []string

	// OrderBy is "column" or "column ASC|DESC", checked against the
	// per-table ORDER BY allow-list.
	OrderBy string

	// Limit caps the row count; 0 means no LIMIT.
	Limit int

	// Offset skips rows; 0 means no OFFSET.
	Offset int

	// Mode selects the result shape.
	Mode ReadMode

	// UseOr joins top-level conditions with OR instead of AND.
	UseOr bool
}

// DefaultChunkSize is the bulk-insert batch size used when the caller
// passes a non-positive chunk size.
const DefaultChunkSize = 1000

// Create inserts one record and returns the value of the returning column
// ("" disables RETURNING). Security and validation failures propagate
// as-is; driver failures come back wrapped in *TransientError.
func (d *Database) Create(ctx context.Context, table string, data map[string]any, returning string) (any, error) {
	start := time.Now()

	query, params, retCol, err := buildInsert(table, data, returning)
	if err != nil {
		return nil, d.rejected("create", table, err)
	}
	d.log.Debug().Str("query", query).Msg("create query")

	var result any
	err = d.runTx(ctx, func(q querier) error {
		if retCol == "" {
			_, execErr := q.Exec(ctx, query, params...)
			return execErr
		}
		return q.QueryRow(ctx, query, params...).Scan(&result)
	})
	if err != nil {
		return nil, d.execErr("create", table, err)
	}

	d.log.Info().
		Str("table", table).
		Str("returning", retCol).
		Interface("value", result).
		Dur("duration", time.Since(start)).
		Msg("record created")
	return result, nil
}

// Read executes a SELECT directly against the pool (reads are not wrapped
// in a transaction) and shapes the result per opts.Mode. A one-row or
// scalar read that matches nothing returns (nil, nil).
func (d *Database) Read(ctx context.Context, table string, conds Conditions, opts ReadOptions) (any, error) {
	start := time.Now()

	q, err := d.querier()
	if err != nil {
		return nil, err
	}

	query, params, err := buildSelect(table, conds, opts)
	if err != nil {
		return nil, d.rejected("read", table, err)
	}
	d.log.Debug().Str("query", query).Int("params", len(params)).Msg("read query")

	rows, err := q.Query(ctx, query, params...)
	if err != nil {
		return nil, d.execErr("read", table, err)
	}

	var result any
	switch opts.Mode {
	case ReadRow:
		row, collectErr := pgx.CollectOneRow(rows, pgx.RowToMap)
		if collectErr != nil {
			if errors.Is(collectErr, pgx.ErrNoRows) {
				break
			}
			return nil, d.execErr("read", table, collectErr)
		}
		result = row

	case ReadValue:
		value, collectErr := pgx.CollectOneRow(rows, pgx.RowTo[any])
		if collectErr != nil {
			if errors.Is(collectErr, pgx.ErrNoRows) {
				break
			}
			return nil, d.execErr("read", table, collectErr)
		}
		result = value

	default:
		all, collectErr := pgx.CollectRows(rows, pgx.RowToMap)
		if collectErr != nil {
			return nil, d.execErr("read", table, collectErr)
		}
		result = all
	}

	d.log.Debug().
		Str("table", table).
		Dur("duration", time.Since(start)).
		Msg("read completed")
	return result, nil
}

// Update modifies matching records inside a transaction and returns the
// returning column of the (last) affected row. Empty conditions fail with
// a *ValidationError before anything reaches the database.
func (d *Database) Update(ctx context.Context, table string, data map[string]any, conds Conditions, returning string) (any, error) {
	start := time.Now()

	query, params, retCol, err := buildUpdate(table, data, conds, returning)
	if err != nil {
		return nil, d.rejected("update", table, err)
	}
	d.log.Debug().Str("query", query).Int("params", len(params)).Msg("update query")

	var result any
	err = d.runTx(ctx, func(q querier) error {
		if retCol == "" {
			_, execErr := q.Exec(ctx, query, params...)
			return execErr
		}
		return q.QueryRow(ctx, query, params...).Scan(&result)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Matched nothing: not an error, there is just no id to report.
			return nil, nil
		}
		return nil, d.execErr("update", table, err)
	}

	d.log.Info().
		Str("table", table).
		Interface("value", result).
		Dur("duration", time.Since(start)).
		Msg("records updated")
	return result, nil
}

// Delete removes matching records inside a transaction, with the same
// empty-conditions guard as Update.
func (d *Database) Delete(ctx context.Context, table string, conds Conditions, returning string) (any, error) {
	start := time.Now()

	query, params, retCol, err := buildDelete(table, conds, returning)
	if err != nil {
		return nil, d.rejected("delete", table, err)
	}
	d.log.Debug().Str("query", query).Int("params", len(params)).Msg("delete query")

	var result any
	err = d.runTx(ctx, func(q querier) error {
		if retCol == "" {
			_, execErr := q.Exec(ctx, query, params...)
			return execErr
		}
		return q.QueryRow(ctx, query, params...).Scan(&result)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, d.execErr("delete", table, err)
	}

	d.log.Warn().
		Str("table", table).
		Interface("value", result).
		Dur("duration", time.Since(start)).
		Msg("records deleted")
	return result, nil
}

// Count returns COUNT(*) for the table, optionally filtered.
func (d *Database) Count(ctx context.Context, table string, conds Conditions) (int64, error) {
	start := time.Now()

	q, err := d.querier()
	if err != nil {
		return 0, err
	}

	query, params, err := buildCount(table, conds)
	if err != nil {
		return 0, d.rejected("count", table, err)
	}
	d.log.Debug().Str("query", query).Int("params", len(params)).Msg("count query")

	var count int64
	if err := q.QueryRow(ctx, query, params...).Scan(&count); err != nil {
		return 0, d.execErr("count", table, err)
	}

	d.log.Debug().
		Str("table", table).
		Int64("count", count).
		Dur("duration", time.Since(start)).
		Msg("count completed")
	return count, nil
}

// BulkCreate inserts rows in chunks, one multi-row INSERT per chunk, each
// in its own transaction with a fresh placeholder range. Columns come from
// the first row and every row must supply all of them. Unlike the other
// write operations it returns the driver error directly on a partial
// failure: the caller has to decide what a half-inserted batch means.
//
// When returning is non-empty the second result holds the returned column
// values in insertion order.
func (d *Database) BulkCreate(ctx context.Context, table string, rows []map[string]any, chunkSize int, returning string) (int, []any, error) {
	if len(rows) == 0 {
		return 0, nil, nil
	}
	start := time.Now()

	tbl, err := ValidateTable(table)
	if err != nil {
		return 0, nil, d.rejected("bulk_create", table, err)
	}

	columns := sortedKeys(rows[0])
	for _, col := range columns {
		if _, err := ValidateIdentifier(col); err != nil {
			return 0, nil, d.rejected("bulk_create", tbl, err)
		}
	}

	retCol := ""
	if returning != "" {
		if retCol, err = ValidateIdentifier(returning); err != nil {
			return 0, nil, d.rejected("bulk_create", tbl, err)
		}
	}

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	inserted := 0
	var returned []any

	for i := 0; i < len(rows); i += chunkSize {
		end := min(i+chunkSize, len(rows))
		chunk := rows[i:end]

		query, params, err := buildBulkInsert(tbl, columns, chunk, retCol)
		if err != nil {
			return inserted, returned, d.rejected("bulk_create", tbl, err)
		}

		err = d.runTx(ctx, func(q querier) error {
			if retCol == "" {
				_, execErr := q.Exec(ctx, query, params...)
				return execErr
			}
			chunkRows, queryErr := q.Query(ctx, query, params...)
			if queryErr != nil {
				return queryErr
			}
			values, collectErr := pgx.CollectRows(chunkRows, pgx.RowTo[any])
			if collectErr != nil {
				return collectErr
			}
			returned = append(returned, values...)
			return nil
		})
		if err != nil {
			return inserted, returned, d.execErr("bulk_create", tbl, err)
		}

		inserted += len(chunk)
		d.log.Debug().Int("rows", len(chunk)).Msg("bulk insert chunk")
	}

	d.log.Info().
		Str("table", tbl).
		Int("inserted", inserted).
		Dur("duration", time.Since(start)).
		Msg("bulk insert completed")
	return inserted, returned, nil
}

// rejected logs a security violation with enough context to audit the
// attempt, then passes the error through unchanged. Validation errors
// propagate silently: they are caller bugs, not attacks.
func (d *Database) rejected(op, table string, err error) error {
	var sec *SecurityError
	if errors.As(err, &sec) {
		d.log.Error().
			Str("op", op).
			Str("table", table).
			Str("reason", sec.Reason).
			Msg("security violation rejected")
	}
	return err
}

// execErr classifies an execution failure: lifecycle errors pass through,
// anything from the driver is logged and wrapped in *TransientError.
func (d *Database) execErr(op, table string, err error) error {
	if errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrClosed) {
		return err
	}
	d.log.Error().
		Err(err).
		Str("op", op).
		Str("table", table).
		Msg("database operation failed")
	return &TransientError{Op: op, Table: table, Err: err}
}
