package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLAdapter owns the connection pool shared by every SQLStore and hands out
// the transaction bound to a context when there is one.
type SQLAdapter struct {
	db      *sql.DB
	dialect Dialect
	log     logrus.FieldLogger
}

func NewSQLAdapter(db *sql.DB, dialect Dialect, log logrus.FieldLogger) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: dialect, log: log}
}

func (a *SQLAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w: %w", domain.ErrStore, err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w: %w", domain.ErrStore, err)
	}
	return nil
}

// classify maps a driver error for the caller and logs the driver detail
// that conflicts keep out of their message.
func (a *SQLAdapter) classify(err error, op, table string) error {
	out := a.dialect.classify(err, op, table)
	var ce *conflictError
	if errors.As(out, &ce) {
		a.log.WithError(ce.cause).WithFields(logrus.Fields{"op": op, "table": table}).Debug("unique constraint violated")
	}
	return out
}

func (a *SQLAdapter) affected(result sql.Result, table string) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, a.classify(err, "rows affected", table)
	}
	return rows, nil
}

func (a *SQLAdapter) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return a.db
}

var _ port.Transactor = (*SQLAdapter)(nil)

// SQLStore implements port.Store for one table.
type SQLStore[T any] struct {
	adapter *SQLAdapter
	table   Table[T]

	selectSQL string
}

func NewSQLStore[T any](adapter *SQLAdapter, table Table[T]) *SQLStore[T] {
	return &SQLStore[T]{
		adapter:   adapter,
		table:     table,
		selectSQL: fmt.Sprintf("SELECT %s FROM %s", strings.Join(table.Columns, ", "), table.Name),
	}
}

func (s *SQLStore[T]) FindByID(ctx context.Context, id string) (T, error) {
	query := s.selectSQL + " WHERE " + s.table.Columns[0] + " = ?"
	row := s.adapter.conn(ctx).QueryRowContext(ctx, s.adapter.dialect.rebind(query), id)

	v, err := s.table.Scan(row)
	if err != nil {
		var zero T
		return zero, s.adapter.classify(err, "find", s.table.Name)
	}
	return v, nil
}

func (s *SQLStore[T]) FindAll(ctx context.Context) ([]T, error) {
	return s.FindWhere(ctx, nil)
}

func (s *SQLStore[T]) FindWhere(ctx context.Context, where port.Where) ([]T, error) {
	cond, args, err := s.where(where)
	if err != nil {
		return nil, err
	}
	query := s.selectSQL + cond
	if s.table.OrderBy != "" {
		query += " ORDER BY " + s.table.OrderBy
	}

	rows, err := s.adapter.conn(ctx).QueryContext(ctx, s.adapter.dialect.rebind(query), args...)
	if err != nil {
		return nil, s.adapter.classify(err, "query", s.table.Name)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := s.table.Scan(rows)
		if err != nil {
			return nil, s.adapter.classify(err, "scan", s.table.Name)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, s.adapter.classify(err, "query", s.table.Name)
	}
	return out, nil
}

func (s *SQLStore[T]) Insert(ctx context.Context, v T) error {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(s.table.Columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table.Name, strings.Join(s.table.Columns, ", "), marks)

	_, err := s.adapter.conn(ctx).ExecContext(ctx, s.adapter.dialect.rebind(query), s.table.Values(v)...)
	return s.adapter.classify(err, "insert", s.table.Name)
}

func (s *SQLStore[T]) Update(ctx context.Context, v T) error {
	n, err := s.update(ctx, v, nil)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", s.table.Name, s.table.Key(v), domain.ErrNotFound)
	}
	return nil
}

func (s *SQLStore[T]) UpdateWhere(ctx context.Context, v T, where port.Where) error {
	n, err := s.update(ctx, v, where)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", s.table.Name, s.table.Key(v), port.ErrOptimisticLock)
	}
	return nil
}

func (s *SQLStore[T]) update(ctx context.Context, v T, where port.Where) (int64, error) {
	vals := s.table.Values(v)
	sets := make([]string, 0, len(s.table.Columns)-1)
	for _, c := range s.table.Columns[1:] {
		sets = append(sets, c+" = ?")
	}
	args := append([]any{}, vals[1:]...)

	cond, condArgs, err := s.where(where)
	if err != nil {
		return 0, err
	}
	key := s.table.Columns[0] + " = ?"
	if cond == "" {
		cond = " WHERE " + key
	} else {
		cond += " AND " + key
	}
	args = append(append(args, condArgs...), vals[0])

	query := fmt.Sprintf("UPDATE %s SET %s%s", s.table.Name, strings.Join(sets, ", "), cond)
	result, err := s.adapter.conn(ctx).ExecContext(ctx, s.adapter.dialect.rebind(query), args...)
	if err != nil {
		return 0, s.adapter.classify(err, "update", s.table.Name)
	}

	return s.adapter.affected(result, s.table.Name)
}

func (s *SQLStore[T]) Delete(ctx context.Context, id string) error {
	return s.DeleteWhere(ctx, port.Where{s.table.Columns[0]: id})
}

func (s *SQLStore[T]) DeleteWhere(ctx context.Context, where port.Where) error {
	cond, args, err := s.where(where)
	if err != nil {
		return err
	}
	if cond == "" {
		return fmt.Errorf("delete %s: refusing unfiltered delete: %w", s.table.Name, domain.ErrValidation)
	}

	query := "DELETE FROM " + s.table.Name + cond
	_, err = s.adapter.conn(ctx).ExecContext(ctx, s.adapter.dialect.rebind(query), args...)
	return s.adapter.classify(err, "delete", s.table.Name)
}

// where renders an equality filter with a stable column order.
func (s *SQLStore[T]) where(where port.Where) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	cols := make([]string, 0, len(where))
	for c := range where {
		if !s.table.HasColumn(c) {
			return "", nil, fmt.Errorf("filter %s: unknown column %q: %w", s.table.Name, c, domain.ErrStore)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		if where[c] == nil {
			parts = append(parts, c+" IS NULL")
			continue
		}
		parts = append(parts, c+" = ?")
		args = append(args, where[c])
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

var _ port.Store[domain.Order] = (*SQLStore[domain.Order])(nil)

// Stores builds a SQL-backed store for every table, all sharing a.
func (a *SQLAdapter) Stores() port.Stores {
	return port.Stores{
		Tx:         a,
		Products:   NewSQLStore(a, ProductsTable),
		Categories: NewSQLStore(a, CategoriesTable),
		Carts:      NewSQLStore(a, CartsTable),
		CartItems:  NewSQLStore(a, CartItemsTable),
		Orders:     NewSQLStore(a, OrdersTable),
		OrderItems: NewSQLStore(a, OrderItemsTable),
		Invoices:   NewSQLStore(a, InvoicesTable),
		Profiles:   NewSQLStore(a, ProfilesTable),
		Roles:      NewSQLStore(a, RolesTable),
	}
}
