package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
)

// fieldCount is the number of value columns (v0..v5) in the rule table.
const fieldCount = 6

// DB is the subset of *pgxpool.Pool the adapter needs.
type DB interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var valueColumns = lo.Times(fieldCount, func(i int) string { return fmt.Sprintf("v%d", i) })

type store struct {
	db    DB
	table string
}

// row is a rule as stored: ptype followed by exactly fieldCount values.
type row [fieldCount + 1]string

func newRow(ptype string, rule []string) (row, error) {
	var r row
	if ptype == "" {
		return r, ErrEmptyPtype
	}
	if len(rule) > fieldCount {
		return r, fmt.Errorf("%w: %v", ErrRuleTooLong, rule)
	}
	r[0] = ptype
	copy(r[1:], rule)
	return r, nil
}

// line drops the empty trailing values casbin does not expect back.
func (r row) line() []string {
	return lo.DropRightWhile(r[:], func(v string) bool { return v == "" })
}

func (r row) args() []any { return lo.ToAnySlice(r[:]) }

func (s *store) insertSQL() string {
	return fmt.Sprintf(
		"INSERT INTO %s (ptype, %s) VALUES ($1, %s) ON CONFLICT DO NOTHING",
		s.table,
		strings.Join(valueColumns, ", "),
		strings.Join(lo.Times(fieldCount, func(i int) string { return fmt.Sprintf("$%d", i+2) }), ", "),
	)
}

func (s *store) deleteSQL() string {
	conds := lo.Times(fieldCount, func(i int) string { return fmt.Sprintf("%s = $%d", valueColumns[i], i+2) })
	return fmt.Sprintf("DELETE FROM %s WHERE ptype = $1 AND %s", s.table, strings.Join(conds, " AND "))
}

// where matches ptype plus the non-empty values starting at column
// fieldIndex. Empty values act as wildcards.
func where(ptype string, fieldIndex int, values []string) (string, []any, error) {
	if ptype == "" {
		return "", nil, ErrEmptyPtype
	}
	if fieldIndex < 0 || fieldIndex+len(values) > fieldCount {
		return "", nil, fmt.Errorf("%w: index %d with %d values", ErrRuleTooLong, fieldIndex, len(values))
	}

	conds := []string{"ptype = $1"}
	args := []any{ptype}
	for i, v := range values {
		if v == "" {
			continue
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", valueColumns[fieldIndex+i], len(args)))
	}
	return strings.Join(conds, " AND "), args, nil
}

func (s *store) selectRows(ctx context.Context, cond string, args ...any) ([][]string, error) {
	query := fmt.Sprintf("SELECT ptype, %s FROM %s", strings.Join(valueColumns, ", "), s.table)
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) ([]string, error) {
		var out row
		dst := lo.Map(out[:], func(_ string, i int) any { return &out[i] })
		if err := r.Scan(dst...); err != nil {
			return nil, err
		}
		return out.line(), nil
	})
}

func (s *store) insert(ctx context.Context, rows ...row) error {
	return s.batch(ctx, s.db, s.insertSQL(), rows)
}

// remove deletes exact rules. A single rule that matches nothing reports
// ErrNoRowsAffected so casbin keeps its in-memory model in sync.
func (s *store) remove(ctx context.Context, rows ...row) error {
	if len(rows) == 1 {
		tag, err := s.db.Exec(ctx, s.deleteSQL(), rows[0].args()...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNoRowsAffected
		}
		return nil
	}
	return s.batch(ctx, s.db, s.deleteSQL(), rows)
}

func (s *store) removeWhere(ctx context.Context, ptype string, fieldIndex int, values []string) error {
	cond, args, err := where(ptype, fieldIndex, values)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", s.table, cond), args...)
	return err
}

// replace swaps the whole table for rows inside one transaction.
func (s *store) replace(ctx context.Context, rows []row) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM "+s.table); err != nil {
		return err
	}
	if err = s.batch(ctx, tx, s.insertSQL(), rows); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (s *store) batch(ctx context.Context, db batcher, sql string, rows []row) error {
	if len(rows) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(sql, r.args()...)
	}

	br := db.SendBatch(ctx, b)
	for range rows {
		if _, err := br.Exec(); err != nil {
			return errors.Join(err, br.Close())
		}
	}
	return br.Close()
}
