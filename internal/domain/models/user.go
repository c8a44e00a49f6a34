// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeedUser is the baseline administrator account written once at bootstrap.
//
// NOTE:
//   - The field names are owned by the Sentinel application; keep them in
//     sync with its user document.
//   - HashedPassword is stored as given. Nothing here hashes or verifies it.
type SeedUser struct {
	MongoID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ID             string             `bson:"id" json:"id"`
	Email          string             `bson:"email" json:"email"`
	HashedPassword string             `bson:"hashedPassword" json:"-"`
	ActiveKey      string             `bson:"activeKey" json:"activeKey"`
	Verified       bool               `bson:"verified" json:"verified"`
	IsAdmin        bool               `bson:"isAdmin" json:"isAdmin"`

	// Volatile: assigned at insert time, never part of IdentityKey.
	CreationTimeUTC time.Time `bson:"creationTimeUtc" json:"creationTimeUtc"`
}

// IdentityKey returns the comparison key used to decide whether a seed user
// already exists: every persisted field except creationTimeUtc.
func (u SeedUser) IdentityKey() bson.D {
	return bson.D{
		{Key: "id", Value: u.ID},
		{Key: "email", Value: u.Email},
		{Key: "hashedPassword", Value: u.HashedPassword},
		{Key: "activeKey", Value: u.ActiveKey},
		{Key: "verified", Value: u.Verified},
		{Key: "isAdmin", Value: u.IsAdmin},
	}
}

// SameIdentity reports whether u and other agree on every IdentityKey field.
func (u SeedUser) SameIdentity(other SeedUser) bool {
	return u.ID == other.ID &&
		u.Email == other.Email &&
		u.HashedPassword == other.HashedPassword &&
		u.ActiveKey == other.ActiveKey &&
		u.Verified == other.Verified &&
		u.IsAdmin == other.IsAdmin
}
