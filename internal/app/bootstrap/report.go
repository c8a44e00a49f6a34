// internal/app/bootstrap/report.go
package bootstrap

import (
	"github.com/dalemusser/sentinelboot/internal/app/system/indexes"
	"github.com/dalemusser/sentinelboot/internal/app/system/seed"
	"github.com/dalemusser/sentinelboot/internal/domain/models"
	"go.uber.org/zap"
)

// Report summarizes one run. In a dry run, Created means "would create".
type Report struct {
	RunID    string
	Database string
	DryRun   bool
	Indexes  []indexes.Result
	Seed     seed.Result
}

// Changed reports whether the run performed (or, dry, would perform) any write.
func (r Report) Changed() bool {
	if r.Seed.Action == models.Created {
		return true
	}
	for _, ix := range r.Indexes {
		if ix.Action == models.Created {
			return true
		}
	}
	return false
}

// Log writes one line per index plus a closing summary.
func (r Report) Log(logger *zap.Logger) {
	created := 0
	for _, ix := range r.Indexes {
		if ix.Action == models.Created {
			created++
		}
		logger.Info("index",
			zap.String("collection", ix.Requirement.Collection),
			zap.String("keys", ix.Requirement.Keys.String()),
			zap.String("action", string(ix.Action)),
			zap.String("index", ix.IndexName))
	}
	logger.Info("bootstrap complete",
		zap.String("database", r.Database),
		zap.Bool("dry_run", r.DryRun),
		zap.Int("indexes_checked", len(r.Indexes)),
		zap.Int("indexes_created", created),
		zap.String("seed_user", string(r.Seed.Action)),
		zap.Bool("changed", r.Changed()))
}
