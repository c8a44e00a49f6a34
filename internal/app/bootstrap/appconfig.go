// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/sentinelboot/internal/domain/models"
)

// AppConfig holds bootstrap-specific configuration.
//
// These values come from environment variables (SENTINEL_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// still carries the framework-level settings; nothing here duplicates it.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // The one database this run bootstraps

	// Round-trip bounds; expiry is fatal
	MongoConnectTimeout time.Duration
	MongoOpTimeout      time.Duration

	// Seed administrator. The password hash is precomputed elsewhere and
	// stored verbatim.
	SeedUserID        string
	SeedEmail         string
	SeedPasswordHash  string
	SeedActiveKey     string
	SeedVerified      bool
	SeedIdentityIndex bool // also reconcile a unique index on user.id

	DryRun bool // plan and log only; no writes
}

// SeedUser returns the canonical seed record. The seed user is always an
// administrator; CreationTimeUTC is left zero and stamped at insert.
func (c AppConfig) SeedUser() models.SeedUser {
	return models.SeedUser{
		ID:             c.SeedUserID,
		Email:          c.SeedEmail,
		HashedPassword: c.SeedPasswordHash,
		ActiveKey:      c.SeedActiveKey,
		Verified:       c.SeedVerified,
		IsAdmin:        true,
	}
}
