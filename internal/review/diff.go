// Package review implements the draft/review workflow: an original record, a
// pending draft snapshotted from the form, their structural difference and
// the approve/discard transitions.
package review

import (
	"sort"

	"github.com/and161185/intakedesk/internal/model"
)

// Tree is the comparable shape of a record. Values are string, []any or Tree.
type Tree map[string]any

// EquipmentPath is the path at which equipment list changes are reported.
const EquipmentPath = "equipment"

// RecordTree converts the editable content of r into a Tree.
// Store metadata (id, timestamps, tokens) is not part of it.
func RecordTree(r model.Record) Tree {
	t := make(Tree, len(r.Fields)+1)
	for k, v := range r.Fields {
		t[k] = v
	}
	list := make([]any, len(r.Equipment))
	for i, door := range r.Equipment {
		dt := make(Tree, len(door))
		for k, v := range door {
			dt[k] = v
		}
		list[i] = dt
	}
	t[EquipmentPath] = list
	return t
}

// Entry is one changed path.
type Entry struct {
	Path string
	Old  any
	New  any
}

// Diff compares the editable content of two records.
func Diff(original, pending model.Record) ([]Entry, bool) {
	entries := DiffTrees(RecordTree(original), RecordTree(pending))
	return entries, len(entries) > 0
}

// DiffTrees walks the union of keys of a and b. Nested trees recurse with
// dotted paths; lists and scalars are compared whole and reported once at
// their own path. A missing value equals the zero value of the other side.
func DiffTrees(a, b Tree) []Entry {
	var out []Entry
	diffInto(&out, "", a, b)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func diffInto(out *[]Entry, prefix string, a, b Tree) {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	for k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		va, okA := a[k]
		vb, okB := b[k]
		if !okA {
			va = zeroLike(vb)
		}
		if !okB {
			vb = zeroLike(va)
		}
		ta, aTree := va.(Tree)
		tb, bTree := vb.(Tree)
		if aTree && bTree {
			diffInto(out, path, ta, tb)
			continue
		}
		if !Equal(va, vb) {
			*out = append(*out, Entry{Path: path, Old: va, New: vb})
		}
	}
}

func zeroLike(v any) any {
	switch v.(type) {
	case []any:
		return []any{}
	case Tree:
		return Tree{}
	default:
		return ""
	}
}

// Equal is typed deep equality over tree values. Inside trees a missing key
// equals the empty string, so sparse stored equipment matches a fully
// materialized form door.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Tree:
		y, ok := b.(Tree)
		if !ok {
			return false
		}
		for k, v := range x {
			w, present := y[k]
			if !present {
				w = zeroLike(v)
			}
			if !Equal(v, w) {
				return false
			}
		}
		for k, w := range y {
			if _, present := x[k]; !present && !Equal(zeroLike(w), w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
