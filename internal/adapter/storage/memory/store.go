// Package memory keeps every store in process. It backs the dev mode of the
// server and the service tests.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type txKey struct{}

// tx collects one undo step per row a transaction writes.
type tx struct {
	db   *DB
	mu   sync.Mutex
	undo []func()
}

func (t *tx) push(f func()) {
	t.mu.Lock()
	t.undo = append(t.undo, f)
	t.mu.Unlock()
}

// DB serializes transactions over its stores. A failed transaction reverts
// only the rows it wrote; writes made outside it survive. Uncommitted rows
// are visible to readers outside the transaction.
type DB struct {
	txMu sync.Mutex
}

func NewDB() *DB {
	return &DB{}
}

func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t, ok := ctx.Value(txKey{}).(*tx); ok && t.db == db {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	t := &tx{db: db}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		return err
	}
	return nil
}

var _ port.Transactor = (*DB)(nil)

type Store[T any] struct {
	db    *DB
	mu    sync.RWMutex
	table storage.Table[T]
	rows  map[string]T
	order []string
}

func NewStore[T any](db *DB, table storage.Table[T]) *Store[T] {
	return &Store[T]{db: db, table: table, rows: make(map[string]T)}
}

// track records how to restore row id if the surrounding transaction fails.
// Callers hold s.mu.
func (s *Store[T]) track(ctx context.Context, id string) {
	t, ok := ctx.Value(txKey{}).(*tx)
	if !ok || t.db != s.db {
		return
	}

	prev, existed := s.rows[id]
	pos := slices.Index(s.order, id)
	t.push(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if !existed {
			s.remove(id)
			return
		}
		if _, ok := s.rows[id]; !ok {
			s.order = slices.Insert(s.order, min(pos, len(s.order)), id)
		}
		s.rows[id] = prev
	})
}

func (s *Store[T]) FindByID(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.rows[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("find %s %s: %w", s.table.Name, id, domain.ErrNotFound)
	}
	return v, nil
}

func (s *Store[T]) FindAll(ctx context.Context) ([]T, error) {
	return s.FindWhere(ctx, nil)
}

// FindWhere returns rows newest first, matching the ORDER BY of the SQL tables.
func (s *Store[T]) FindWhere(_ context.Context, where port.Where) ([]T, error) {
	if err := s.checkColumns(where); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []T
	for i := len(s.order) - 1; i >= 0; i-- {
		v := s.rows[s.order[i]]
		if matches(s.table.Row(v), where) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store[T]) Insert(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.table.Key(v)
	if _, ok := s.rows[id]; ok {
		return fmt.Errorf("insert %s %s: duplicate key: %w", s.table.Name, id, domain.ErrConflict)
	}
	if err := s.checkUnique(v); err != nil {
		return err
	}
	s.track(ctx, id)
	s.rows[id] = v
	s.order = append(s.order, id)
	return nil
}

func (s *Store[T]) Update(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.table.Key(v)
	if _, ok := s.rows[id]; !ok {
		return fmt.Errorf("update %s %s: %w", s.table.Name, id, domain.ErrNotFound)
	}
	if err := s.checkUnique(v); err != nil {
		return err
	}
	s.track(ctx, id)
	s.rows[id] = v
	return nil
}

func (s *Store[T]) UpdateWhere(ctx context.Context, v T, where port.Where) error {
	if err := s.checkColumns(where); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.table.Key(v)
	cur, ok := s.rows[id]
	if !ok || !matches(s.table.Row(cur), where) {
		return fmt.Errorf("update %s %s: %w", s.table.Name, id, port.ErrOptimisticLock)
	}
	if err := s.checkUnique(v); err != nil {
		return err
	}
	s.track(ctx, id)
	s.rows[id] = v
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; ok {
		s.track(ctx, id)
		s.remove(id)
	}
	return nil
}

func (s *Store[T]) DeleteWhere(ctx context.Context, where port.Where) error {
	if len(where) == 0 {
		return fmt.Errorf("delete %s: refusing unfiltered delete: %w", s.table.Name, domain.ErrValidation)
	}
	if err := s.checkColumns(where); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range append([]string(nil), s.order...) {
		if matches(s.table.Row(s.rows[id]), where) {
			s.track(ctx, id)
			s.remove(id)
		}
	}
	return nil
}

// Len reports the number of stored rows.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Store[T]) remove(id string) {
	if _, ok := s.rows[id]; !ok {
		return
	}
	delete(s.rows, id)
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store[T]) checkColumns(where port.Where) error {
	for c := range where {
		if !s.table.HasColumn(c) {
			return fmt.Errorf("filter %s: unknown column %q: %w", s.table.Name, c, domain.ErrStore)
		}
	}
	return nil
}

// checkUnique enforces the table's unique indexes. NULL values never
// collide, as in SQL.
func (s *Store[T]) checkUnique(v T) error {
	id := s.table.Key(v)
	row := s.table.Row(v)

	for _, idx := range s.table.Unique {
		if idx.When != nil && !idx.When(v) {
			continue
		}
		if hasNull(row, idx.Columns) {
			continue
		}
		for otherID, other := range s.rows {
			if otherID == id {
				continue
			}
			if idx.When != nil && !idx.When(other) {
				continue
			}
			otherRow := s.table.Row(other)
			if sameColumns(row, otherRow, idx.Columns) {
				return fmt.Errorf("%s: duplicate %s: %w", s.table.Name, idx.Name, domain.ErrConflict)
			}
		}
	}
	return nil
}

func hasNull(row map[string]any, cols []string) bool {
	for _, c := range cols {
		if row[c] == nil {
			return true
		}
	}
	return false
}

func sameColumns(a, b map[string]any, cols []string) bool {
	for _, c := range cols {
		if !equal(a[c], b[c]) {
			return false
		}
	}
	return true
}

func matches(row map[string]any, where port.Where) bool {
	for c, want := range where {
		if !equal(row[c], want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if da, ok := a.(decimal.Decimal); ok {
		db, ok := b.(decimal.Decimal)
		return ok && da.Equal(db)
	}
	// Named string types (statuses) compare by value, as the SQL driver would bind them.
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.String && vb.Kind() == reflect.String {
		return va.String() == vb.String()
	}
	return a == b
}

var _ port.Store[domain.Cart] = (*Store[domain.Cart])(nil)
