// Package inmemdb is the process-local store. Nothing survives a restart.
package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/analytics"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
)

type (
	DB struct {
		user       *table[user.User]
		class      *table[school.Class]
		assignment *table[school.Assignment]
		grade      *table[school.Grade]
		attendance *table[school.Attendance]
	}

	// table keeps rows in insertion order. Rows are never deleted, so row N has ID N.
	table[T any] struct {
		sync.RWMutex
		pkCount int
		rows    []T
	}
)

var _ storage.Store = (*DB)(nil)

func Open() *DB {
	return &DB{
		user:       new(table[user.User]),
		class:      new(table[school.Class]),
		assignment: new(table[school.Assignment]),
		grade:      new(table[school.Grade]),
		attendance: new(table[school.Attendance]),
	}
}

func (db *DB) Users() user.Repository { return NewUserRepository(db) }
func (db *DB) School() school.Repository { return NewSchoolRepository(db) }
func (db *DB) Analytics() analytics.Repository { return NewAnalyticsRepository(db) }
func (db *DB) Close() error { return nil }

// insert must be called with the write lock held.
func (t *table[T]) insert(row T, setID func(*T, int)) T {
	t.pkCount++
	setID(&row, t.pkCount)
	t.rows = append(t.rows, row)
	return row
}

func (t *table[T]) create(row T, setID func(*T, int)) T {
	t.Lock()
	defer t.Unlock()
	return t.insert(row, setID)
}

func (t *table[T]) get(id int) (T, bool) {
	t.RLock()
	defer t.RUnlock()

	var zero T
	if id < 1 || id > len(t.rows) {
		return zero, false
	}
	return t.rows[id-1], true
}

func (t *table[T]) filter(keep func(T) bool) []T {
	t.RLock()
	defer t.RUnlock()

	rows := make([]T, 0)
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (t *table[T]) count(keep func(T) bool) int {
	t.RLock()
	defer t.RUnlock()

	var n int
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			n++
		}
	}
	return n
}
