// Package pgxcasbin persists casbin policies in postgres through pgx and
// keeps enforcers on every replica in sync with LISTEN/NOTIFY.
package pgxcasbin

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"go.uber.org/atomic"
)

const defaultTableName = "casbin_rules"

var (
	_ persist.Adapter         = (*Adapter)(nil)
	_ persist.BatchAdapter    = (*Adapter)(nil)
	_ persist.FilteredAdapter = (*Adapter)(nil)
)

// Filter narrows LoadFilteredPolicy to one ptype. Values start at column
// FieldIndex and empty values match anything.
type Filter struct {
	Ptype      string
	FieldIndex int
	Values     []string
}

type Adapter struct {
	store    *store
	filtered *atomic.Bool
}

type Option func(*Adapter)

func WithTableName(name string) Option {
	return func(a *Adapter) {
		a.store.table = pgx.Identifier{name}.Sanitize()
	}
}

// NewAdapter expects the rule table to exist already; migrations own it.
func NewAdapter(ctx context.Context, db DB, opts ...Option) (*Adapter, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pgxcasbin: ping: %w", err)
	}

	a := &Adapter{
		store:    &store{db: db, table: pgx.Identifier{defaultTableName}.Sanitize()},
		filtered: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Adapter) LoadPolicy(m model.Model) error {
	lines, err := a.store.selectRows(context.Background(), "")
	if err != nil {
		return err
	}
	a.filtered.Store(false)
	return load(m, lines)
}

func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	var f Filter
	switch v := filter.(type) {
	case nil:
		return a.LoadPolicy(m)
	case Filter:
		f = v
	case *Filter:
		if v == nil {
			return a.LoadPolicy(m)
		}
		f = *v
	default:
		return ErrInvalidFilter
	}

	cond, args, err := where(f.Ptype, f.FieldIndex, f.Values)
	if err != nil {
		return err
	}
	lines, err := a.store.selectRows(context.Background(), cond, args...)
	if err != nil {
		return err
	}
	a.filtered.Store(true)
	return load(m, lines)
}

func (a *Adapter) IsFiltered() bool { return a.filtered.Load() }

func (a *Adapter) SavePolicy(m model.Model) error {
	var rows []row
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				r, err := newRow(ptype, rule)
				if err != nil {
					return err
				}
				rows = append(rows, r)
			}
		}
	}
	return a.store.replace(context.Background(), rows)
}

func (a *Adapter) AddPolicy(_, ptype string, rule []string) error {
	return a.AddPolicies("", ptype, [][]string{rule})
}

func (a *Adapter) AddPolicies(_, ptype string, rules [][]string) error {
	rows, err := toRows(ptype, rules)
	if err != nil {
		return err
	}
	return a.store.insert(context.Background(), rows...)
}

func (a *Adapter) RemovePolicy(_, ptype string, rule []string) error {
	return a.RemovePolicies("", ptype, [][]string{rule})
}

func (a *Adapter) RemovePolicies(_, ptype string, rules [][]string) error {
	rows, err := toRows(ptype, rules)
	if err != nil {
		return err
	}
	return a.store.remove(context.Background(), rows...)
}

func (a *Adapter) RemoveFilteredPolicy(_, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.store.removeWhere(context.Background(), ptype, fieldIndex, fieldValues)
}

func toRows(ptype string, rules [][]string) ([]row, error) {
	rows := make([]row, 0, len(rules))
	for _, rule := range rules {
		r, err := newRow(ptype, rule)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func load(m model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}
