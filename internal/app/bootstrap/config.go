// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/sentinelboot/internal/app/system/normalize"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// appConfigKeys defines the configuration keys for the bootstrap.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, seed_email, etc.
//   - Environment variables: SENTINEL_MONGO_URI, SENTINEL_SEED_EMAIL, etc.
//   - Command-line flags: --mongo_uri, --dry_run, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "sentinel", Desc: "MongoDB database to bootstrap"},
	{Name: "mongo_connect_timeout", Default: "10s", Desc: "Connect + ping timeout (e.g., 10s)"},
	{Name: "mongo_op_timeout", Default: "30s", Desc: "Per-operation timeout; index builds on large collections need more"},

	// Seed administrator
	{Name: "seed_user_id", Default: "admin", Desc: "Seed user id"},
	{Name: "seed_email", Default: "admin@sentinel.org", Desc: "Seed user email"},
	{Name: "seed_password_hash", Default: "", Desc: "Precomputed bcrypt hash of the seed user's password (required)"},
	{Name: "seed_active_key", Default: "", Desc: "Seed user active key (required)"},
	{Name: "seed_verified", Default: true, Desc: "Mark the seed user as verified"},
	{Name: "seed_identity_index", Default: false, Desc: "Also ensure a unique index on user.id"},

	{Name: "dry_run", Default: false, Desc: "Report planned changes without writing"},
}

// LoadConfig loads WAFFLE core config and the bootstrap's app config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SENTINEL_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SENTINEL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       strings.TrimSpace(appValues.String("mongo_database")),
		MongoConnectTimeout: appValues.Duration("mongo_connect_timeout", 10*time.Second),
		MongoOpTimeout:      appValues.Duration("mongo_op_timeout", 30*time.Second),

		SeedUserID:        normalize.Key(appValues.String("seed_user_id")),
		SeedEmail:         normalize.Email(appValues.String("seed_email")),
		SeedPasswordHash:  normalize.Key(appValues.String("seed_password_hash")),
		SeedActiveKey:     normalize.Key(appValues.String("seed_active_key")),
		SeedVerified:      appValues.Bool("seed_verified"),
		SeedIdentityIndex: appValues.Bool("seed_identity_index"),

		DryRun: appValues.Bool("dry_run"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that cannot produce a correct seed
// record or connection, before anything touches the database.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("%w: invalid MongoDB URI: %w", ErrInvalidConfig, err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("%w: mongo_database is required", ErrInvalidConfig)
	}
	if appCfg.MongoConnectTimeout <= 0 || appCfg.MongoOpTimeout <= 0 {
		return fmt.Errorf("%w: mongo_connect_timeout and mongo_op_timeout must be positive", ErrInvalidConfig)
	}

	if appCfg.SeedUserID == "" {
		return fmt.Errorf("%w: seed_user_id is required", ErrInvalidConfig)
	}
	if appCfg.SeedEmail == "" || !validate.SimpleEmailValid(appCfg.SeedEmail) {
		return fmt.Errorf("%w: seed_email %q is not a valid email address", ErrInvalidConfig, appCfg.SeedEmail)
	}
	if appCfg.SeedActiveKey == "" {
		return fmt.Errorf("%w: seed_active_key is required", ErrInvalidConfig)
	}
	if appCfg.SeedPasswordHash == "" {
		return fmt.Errorf("%w: seed_password_hash is required", ErrInvalidConfig)
	}
	// The hash is stored verbatim. A value bcrypt cannot parse is most
	// likely a plaintext password pasted into the wrong setting.
	if _, err := bcrypt.Cost([]byte(appCfg.SeedPasswordHash)); err != nil {
		logger.Warn("seed_password_hash is not a bcrypt hash; storing it as given", zap.Error(err))
	}

	return nil
}
