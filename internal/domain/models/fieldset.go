// internal/domain/models/fieldset.go
package models

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// FieldSet is an unordered set of document field paths (e.g. "metadata.uploader").
// Two index key patterns cover the same fields iff their FieldSets are Equal,
// regardless of declaration or listing order.
type FieldSet map[string]struct{}

// NewFieldSet builds a FieldSet from field paths. Duplicates collapse.
func NewFieldSet(fields ...string) FieldSet {
	fs := make(FieldSet, len(fields))
	for _, f := range fields {
		fs[f] = struct{}{}
	}
	return fs
}

// FieldSetFromKeys builds a FieldSet from an index key document as returned
// by listIndexes. Direction/type values are ignored.
func FieldSetFromKeys(keys bson.D) FieldSet {
	fs := make(FieldSet, len(keys))
	for _, kv := range keys {
		fs[kv.Key] = struct{}{}
	}
	return fs
}

// Has reports whether field is in the set.
func (fs FieldSet) Has(field string) bool {
	_, ok := fs[field]
	return ok
}

// Len returns the number of fields.
func (fs FieldSet) Len() int { return len(fs) }

// Equal reports set equality.
func (fs FieldSet) Equal(other FieldSet) bool {
	if len(fs) != len(other) {
		return false
	}
	for f := range fs {
		if !other.Has(f) {
			return false
		}
	}
	return true
}

// Sorted returns the fields in lexical order.
func (fs FieldSet) Sorted() []string {
	out := make([]string, 0, len(fs))
	for f := range fs {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (fs FieldSet) String() string {
	return "{" + strings.Join(fs.Sorted(), ", ") + "}"
}
