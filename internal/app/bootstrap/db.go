// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	indexstore "github.com/dalemusser/sentinelboot/internal/app/store/indexes"
	userstore "github.com/dalemusser/sentinelboot/internal/app/store/users"
	"github.com/dalemusser/sentinelboot/internal/app/system/indexes"
	"github.com/dalemusser/sentinelboot/internal/app/system/seed"
	"github.com/dalemusser/sentinelboot/internal/app/system/timeouts"
	"github.com/dalemusser/sentinelboot/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// requirements returns the index table for this run.
func requirements(appCfg AppConfig) []models.IndexRequirement {
	reqs := indexes.Required()
	if appCfg.SeedIdentityIndex {
		reqs = append(reqs, indexes.SeedIdentity(userstore.CollectionName))
	}
	return reqs
}

// EnsureSchema brings the database to its initial state: indexes first,
// then the seed user. The first error stops the run.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (Report, error) {
	return ensureSchema(ctx, appCfg, indexstore.New(deps.MongoDatabase), userstore.New(deps.MongoDatabase), time.Now, logger)
}

func ensureSchema(ctx context.Context, appCfg AppConfig, cat indexes.Catalog, users seed.Users, now func() time.Time, logger *zap.Logger) (Report, error) {
	rep := Report{Database: appCfg.MongoDatabase, DryRun: appCfg.DryRun}
	reqs := requirements(appCfg)
	canonical := appCfg.SeedUser()

	ictx, cancel := timeouts.WithTimeout(ctx, timeouts.Operation()*time.Duration(len(reqs)), logger, "ensure indexes")
	var err error
	if appCfg.DryRun {
		rep.Indexes, err = indexes.CheckAll(ictx, cat, reqs)
	} else {
		rep.Indexes, err = indexes.EnsureAll(ictx, cat, reqs, logger)
	}
	cancel()
	if err != nil {
		return rep, fmt.Errorf("ensure indexes: %w", err)
	}

	sctx, cancel := timeouts.WithTimeout(ctx, timeouts.Operation(), logger, "ensure seed user")
	defer cancel()
	if appCfg.DryRun {
		rep.Seed, err = seed.Check(sctx, users, canonical)
	} else {
		rep.Seed, err = seed.EnsureUser(sctx, users, canonical, now, logger)
	}
	if err != nil {
		return rep, fmt.Errorf("ensure seed user: %w", err)
	}
	return rep, nil
}
