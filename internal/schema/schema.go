// Package schema holds the type-definition database: the mapping from a
// metric type name to the ordered list of data sources a sample of that
// type must carry. Loaded once at startup, read-only afterwards.
package schema

import (
	"errors"

	"github.com/google/btree"

	"github.com/playok/metricd/internal/metric"
)

// ErrSchemaNotFound is returned by Lookup for an unknown type name.
var ErrSchemaNotFound = errors.New("type not found in schema database")

// DataSource describes one named value slot within a type. Min/Max are
// NaN when unbounded.
type DataSource struct {
	Name string
	Kind metric.ValueKind
	Min  float64
	Max  float64
}

type entry struct {
	name    string
	sources []DataSource
}

func entryLess(a, b entry) bool { return a.name < b.name }

// DB maps type names to their ordered data-source lists.
type DB struct {
	tree *btree.BTreeG[entry]
}

func NewDB() *DB {
	return &DB{tree: btree.NewG(8, entryLess)}
}

// Define registers (or replaces) a type and its data sources.
func (db *DB) Define(name string, sources []DataSource) {
	cp := make([]DataSource, len(sources))
	copy(cp, sources)
	db.tree.ReplaceOrInsert(entry{name: name, sources: cp})
}

// Lookup returns the ordered data sources for a type name. The returned
// slice must be treated as read-only.
func (db *DB) Lookup(name string) ([]DataSource, error) {
	e, ok := db.tree.Get(entry{name: name})
	if !ok {
		return nil, ErrSchemaNotFound
	}
	return e.sources, nil
}

func (db *DB) Len() int { return db.tree.Len() }

// Each calls fn for every type in lexical order.
func (db *DB) Each(fn func(name string, sources []DataSource) bool) {
	db.tree.Ascend(func(e entry) bool {
		return fn(e.name, e.sources)
	})
}
