// internal/domain/models/index.go
package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// IndexRequirement declares that Collection must carry an index over Keys.
//
// Order is only used to build the key document when the index has to be
// created; matching against existing indexes uses Keys (a set).
type IndexRequirement struct {
	Collection string
	Name       string
	Keys       FieldSet
	Order      []string
	Unique     bool
}

// NewIndexRequirement declares an ascending index over fields, in the given
// order. An empty name is derived from the collection and key set.
func NewIndexRequirement(collection, name string, unique bool, fields ...string) IndexRequirement {
	order := make([]string, len(fields))
	copy(order, fields)
	keys := NewFieldSet(fields...)
	if name == "" {
		name = IndexName(collection, unique, keys)
	}
	return IndexRequirement{
		Collection: collection,
		Name:       name,
		Keys:       keys,
		Order:      order,
		Unique:     unique,
	}
}

// IndexName derives an index name from the collection and the sorted key
// set, e.g. uniq_fsfiles_md5_metadata_uploader. Requirements over different
// field sets never share a name, so a changed key set creates a new index
// next to the old one instead of clashing with it.
func IndexName(collection string, unique bool, keys FieldSet) string {
	prefix := "idx"
	if unique {
		prefix = "uniq"
	}
	parts := []string{prefix, strings.ToLower(strings.ReplaceAll(collection, ".", ""))}
	for _, f := range keys.Sorted() {
		parts = append(parts, strings.ToLower(strings.ReplaceAll(f, ".", "_")))
	}
	return strings.Join(parts, "_")
}

// KeyDocument returns the ascending key pattern used for createIndexes.
// Without an explicit Order the fields are used in lexical order.
func (r IndexRequirement) KeyDocument() bson.D {
	order := r.Order
	if len(order) == 0 {
		order = r.Keys.Sorted()
	}
	keys := make(bson.D, 0, len(order))
	for _, f := range order {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	return keys
}

// ExistingIndex is the read-only projection of one listIndexes entry.
type ExistingIndex struct {
	Name   string
	Keys   FieldSet
	Unique bool
}
