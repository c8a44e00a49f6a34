package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/sentinelboot/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the Sentinel user collection.
const CollectionName = "user"

// ErrDuplicateKey is returned when an insert is rejected by a unique index.
var ErrDuplicateKey = errors.New("user insert rejected by a unique index")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// CountMatching counts users whose fields equal every element of key.
func (s *Store) CountMatching(ctx context.Context, key bson.D) (int64, error) {
	return s.c.CountDocuments(ctx, key)
}

// Insert writes u as given. Returns ErrDuplicateKey (wrapping the driver
// error) if a unique index rejects it.
func (s *Store) Insert(ctx context.Context, u models.SeedUser) error {
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

// GetByID loads the user with the application-level id (not _id).
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.SeedUser, error) {
	var u models.SeedUser
	if err := s.c.FindOne(ctx, bson.M{"id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
