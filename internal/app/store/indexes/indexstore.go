// internal/app/store/indexes/indexstore.go
package indexstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/sentinelboot/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Server error codes we classify.
const (
	codeNamespaceNotFound     = 26
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

var (
	// ErrUniqueViolation is returned when a unique index cannot be built
	// because documents already in the collection violate it.
	ErrUniqueViolation = errors.New("existing documents violate the unique index")
	// ErrOptionsConflict is returned when an index with the same name or key
	// pattern already exists with different options.
	ErrOptionsConflict = errors.New("conflicting index already exists")
)

// Store reads and creates indexes on collections of one database.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

type listedIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

// List returns every index currently defined on collection. A collection that
// does not exist yet has no indexes and yields an empty slice.
func (s *Store) List(ctx context.Context, collection string) ([]models.ExistingIndex, error) {
	cur, err := s.db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		if isNamespaceNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ExistingIndex
	for cur.Next(ctx) {
		var idx listedIndex
		if err := cur.Decode(&idx); err != nil {
			return nil, fmt.Errorf("decode index on %s: %w", collection, err)
		}
		out = append(out, models.ExistingIndex{
			Name:   idx.Name,
			Keys:   models.FieldSetFromKeys(idx.Key),
			Unique: idx.Unique != nil && *idx.Unique,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create builds the index described by req and returns the server-assigned name.
func (s *Store) Create(ctx context.Context, req models.IndexRequirement) (string, error) {
	opts := options.Index().SetUnique(req.Unique)
	if req.Name != "" {
		opts.SetName(req.Name)
	}
	name, err := s.db.Collection(req.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    req.KeyDocument(),
		Options: opts,
	})
	if err != nil {
		switch {
		case isDuplicateKey(err):
			return "", fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		case isOptionsConflict(err):
			return "", fmt.Errorf("%w: %w", ErrOptionsConflict, err)
		}
		return "", err
	}
	return name, nil
}

// Index builds report duplicates as a CommandError rather than a
// WriteException, so check both shapes.
func isDuplicateKey(err error) bool {
	return wafflemongo.IsDup(err) || mongo.IsDuplicateKeyError(err)
}

func isNamespaceNotFound(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == codeNamespaceNotFound {
		return true
	}
	return strings.Contains(err.Error(), "ns does not exist")
}

// Mongo/DocDB return IndexOptionsConflict when an index with the same keys
// exists under a different name, and IndexKeySpecsConflict when the name is
// taken by a different key pattern.
func isOptionsConflict(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == codeIndexOptionsConflict || ce.Code == codeIndexKeySpecsConflict) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "IndexOptionsConflict") || strings.Contains(s, "IndexKeySpecsConflict")
}
