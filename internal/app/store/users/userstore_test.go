package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/sentinelboot/internal/app/store/users"
	"github.com/dalemusser/sentinelboot/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStore_InsertAndGetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.DevUser()
	u.CreationTimeUTC = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := store.Insert(ctx, u); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	found, err := store.GetByID(ctx, "dev")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !found.SameIdentity(u) {
		t.Errorf("stored user %+v does not match inserted %+v", found, u)
	}
	if !found.CreationTimeUTC.Equal(u.CreationTimeUTC) {
		t.Errorf("CreationTimeUTC: got %v, want %v", found.CreationTimeUTC, u.CreationTimeUTC)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, "nobody")
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_CountMatching_AllFieldsMustMatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.DevUser()
	fixtures.InsertUser(ctx, u, time.Now())

	n, err := store.CountMatching(ctx, u.IdentityKey())
	if err != nil {
		t.Fatalf("CountMatching failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountMatching(identity) = %d, want 1", n)
	}

	other := u
	other.ActiveKey = "rotated"
	n, err = store.CountMatching(ctx, other.IdentityKey())
	if err != nil {
		t.Fatalf("CountMatching failed: %v", err)
	}
	if n != 0 {
		t.Errorf("CountMatching(partial match) = %d, want 0", n)
	}
}

func TestStore_Insert_DuplicateKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection(userstore.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create unique index failed: %v", err)
	}

	u := testutil.DevUser()
	if err := store.Insert(ctx, u); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	err = store.Insert(ctx, u)
	if !errors.Is(err, userstore.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}
