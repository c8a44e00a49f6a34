package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/sentinelboot/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fixtures provides helper methods for arranging database state in tests.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// DevUser returns the canonical seed user used across tests.
func DevUser() models.SeedUser {
	return models.SeedUser{
		ID:             "dev",
		Email:          "dev@sentinel.org",
		HashedPassword: "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z5/1V5V5Ztz5Q5z5Q5z5Q5z5",
		ActiveKey:      "dev",
		Verified:       true,
		IsAdmin:        true,
	}
}

// CreateIndex builds an index over fields (in the given order) on collection.
// Returns the server-assigned index name.
func (f *Fixtures) CreateIndex(ctx context.Context, collection string, unique bool, fields ...string) string {
	f.t.Helper()

	keys := bson.D{}
	for _, field := range fields {
		keys = append(keys, bson.E{Key: field, Value: 1})
	}
	name, err := f.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(unique),
	})
	if err != nil {
		f.t.Fatalf("failed to create test index on %s: %v", collection, err)
	}
	return name
}

// InsertUser writes u into the user collection with the given creation time.
func (f *Fixtures) InsertUser(ctx context.Context, u models.SeedUser, created time.Time) models.SeedUser {
	f.t.Helper()

	u.CreationTimeUTC = created.UTC()
	if _, err := f.db.Collection("user").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to insert test user: %v", err)
	}
	return u
}

// InsertDocs writes raw documents into collection.
func (f *Fixtures) InsertDocs(ctx context.Context, collection string, docs ...any) {
	f.t.Helper()

	if _, err := f.db.Collection(collection).InsertMany(ctx, docs); err != nil {
		f.t.Fatalf("failed to insert test documents into %s: %v", collection, err)
	}
}

// IndexNames returns the names of every index on collection.
func (f *Fixtures) IndexNames(ctx context.Context, collection string) map[string]bool {
	f.t.Helper()

	cur, err := f.db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		f.t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

// CountUsers returns the number of documents in the user collection.
func (f *Fixtures) CountUsers(ctx context.Context) int64 {
	f.t.Helper()

	n, err := f.db.Collection("user").CountDocuments(ctx, bson.D{})
	if err != nil {
		f.t.Fatalf("count users failed: %v", err)
	}
	return n
}
