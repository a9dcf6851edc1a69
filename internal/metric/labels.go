package metric

import "github.com/google/btree"

// labelEntry is one key/value pair in a LabelStore. A key may be
// registered before its value is known; has tracks that state.
type labelEntry struct {
	key   string
	value string
	has   bool
}

func labelLess(a, b labelEntry) bool { return a.key < b.key }

// LabelStore is an ordered map from label key to label value. Keys are
// unique and kept in lexical order; lookups, inserts and removals are
// O(log n).
type LabelStore struct {
	tree *btree.BTreeG[labelEntry]
}

func NewLabelStore() *LabelStore {
	return &LabelStore{tree: btree.NewG(8, labelLess)}
}

// Set inserts key with value. The first writer wins: if the key already
// has a value the call is a no-op. A key previously registered without a
// value is filled. Reports whether the store changed.
func (s *LabelStore) Set(key, value string) bool {
	if cur, ok := s.tree.Get(labelEntry{key: key}); ok && cur.has {
		return false
	}
	s.tree.ReplaceOrInsert(labelEntry{key: key, value: value, has: true})
	return true
}

// Register inserts key with no value yet, so a later Set can fill it.
// Reports whether the store changed (false if the key already exists).
func (s *LabelStore) Register(key string) bool {
	if _, ok := s.tree.Get(labelEntry{key: key}); ok {
		return false
	}
	s.tree.ReplaceOrInsert(labelEntry{key: key})
	return true
}

// Get returns the value for key. ok is false if the key is missing or
// registered without a value.
func (s *LabelStore) Get(key string) (string, bool) {
	e, ok := s.tree.Get(labelEntry{key: key})
	if !ok || !e.has {
		return "", false
	}
	return e.value, true
}

// Has reports whether key exists, with or without a value.
func (s *LabelStore) Has(key string) bool {
	_, ok := s.tree.Get(labelEntry{key: key})
	return ok
}

// Remove deletes key. Reports whether a key was removed.
func (s *LabelStore) Remove(key string) bool {
	_, ok := s.tree.Delete(labelEntry{key: key})
	return ok
}

func (s *LabelStore) Len() int { return s.tree.Len() }

// Each calls fn for every key in lexical order. Keys registered without
// a value are visited with ok=false. Iteration stops if fn returns false.
func (s *LabelStore) Each(fn func(key, value string, ok bool) bool) {
	s.tree.Ascend(func(e labelEntry) bool {
		return fn(e.key, e.value, e.has)
	})
}

// Clone returns a deep copy with independent storage. Entries are copied
// one by one; the copy never shares tree nodes with the original.
func (s *LabelStore) Clone() *LabelStore {
	out := NewLabelStore()
	s.tree.Ascend(func(e labelEntry) bool {
		out.tree.ReplaceOrInsert(e)
		return true
	})
	return out
}
