// Package dummydb keeps every repository in memory. It backs the tests and
// local runs without Postgres.
package dummydb

import (
	"sync"

	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/lab"
	"github.com/incubaapp/incuba/core/mentorship"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/user"
	"github.com/incubaapp/incuba/core/venture"
)

type (
	DB struct {
		user        *table[user.User]
		venture     *table[venture.Venture]
		team        *table[venture.Team]
		financing   *table[venture.Financing]
		projections *table[venture.Projections]
		evaluation  *table[evaluation.Evaluation]
		quota       *table[quota.Assignment]
		mentor      *table[mentorship.Assignment]
		session     *table[mentorship.Session]
		module      *table[lab.Module]
		class       *table[lab.Class]
		task        *table[lab.Task]
		submission  *table[lab.Submission]
	}

	// table keeps rows in insertion order.
	table[T any] struct {
		sync.RWMutex
		keys []string
		rows map[string]T
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func Open() (*DB, error) {
	return &DB{
		user:        newTable[user.User](),
		venture:     newTable[venture.Venture](),
		team:        newTable[venture.Team](),
		financing:   newTable[venture.Financing](),
		projections: newTable[venture.Projections](),
		evaluation:  newTable[evaluation.Evaluation](),
		quota:       newTable[quota.Assignment](),
		mentor:      newTable[mentorship.Assignment](),
		session:     newTable[mentorship.Session](),
		module:      newTable[lab.Module](),
		class:       newTable[lab.Class](),
		task:        newTable[lab.Task](),
		submission:  newTable[lab.Submission](),
	}, nil
}

// callers hold the lock for the helpers below

func (t *table[T]) get(key string) (T, bool) {
	row, ok := t.rows[key]
	return row, ok
}

func (t *table[T]) put(key string, row T) {
	if _, ok := t.rows[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.rows[key] = row
}

func (t *table[T]) delete(key string) bool {
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// filter returns matching rows in insertion order.
func (t *table[T]) filter(match func(T) bool) []T {
	out := make([]T, 0, len(t.keys))
	for _, k := range t.keys {
		if row := t.rows[k]; match == nil || match(row) {
			out = append(out, row)
		}
	}
	return out
}
