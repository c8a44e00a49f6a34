// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	indexstore "github.com/dalemusser/sentinelboot/internal/app/store/indexes"
	"github.com/dalemusser/sentinelboot/internal/domain/models"
	"go.uber.org/zap"
)

// ErrIndexConflict is returned when the server reports a conflicting index
// definition and no index over the required fields can be found afterwards.
var ErrIndexConflict = errors.New("conflicting index definition")

// Catalog is the live index state of one database.
// *indexstore.Store is the production implementation.
type Catalog interface {
	List(ctx context.Context, collection string) ([]models.ExistingIndex, error)
	Create(ctx context.Context, req models.IndexRequirement) (string, error)
}

// Required returns the indexes every Sentinel database must carry.
func Required() []models.IndexRequirement {
	return []models.IndexRequirement{
		// raw uploads: one file per (content hash, uploader)
		models.NewIndexRequirement("fs.files", "", true, "md5", "metadata.uploader"),
		// annotation records
		models.NewIndexRequirement("annotations", "", true, "annotMd5"),
		// reference records
		models.NewIndexRequirement("references", "", true, "combinedMd5"),
	}
}

// SeedIdentity is the optional unique index on user.id. When present, a
// concurrent second insert of the seed user fails with a duplicate key.
func SeedIdentity(userCollection string) models.IndexRequirement {
	return models.NewIndexRequirement(userCollection, "", true, "id")
}

// Result records what happened to one requirement.
type Result struct {
	Requirement models.IndexRequirement
	Action      models.Action
	IndexName   string // matching or created index; empty for a dry-run create
}

// Plan decides, without side effects, whether req is satisfied by existing.
// Matching is by key-field set only; order, direction, name and options of
// the existing index are not considered.
func Plan(req models.IndexRequirement, existing []models.ExistingIndex) models.Action {
	if _, ok := findMatch(req, existing); ok {
		return models.AlreadyPresent
	}
	return models.Created
}

func findMatch(req models.IndexRequirement, existing []models.ExistingIndex) (models.ExistingIndex, bool) {
	for _, ex := range existing {
		if ex.Keys.Equal(req.Keys) {
			return ex, true
		}
	}
	return models.ExistingIndex{}, false
}

// Check reports what Ensure would do for req without writing anything.
func Check(ctx context.Context, cat Catalog, req models.IndexRequirement) (Result, error) {
	existing, err := cat.List(ctx, req.Collection)
	if err != nil {
		return Result{}, fmt.Errorf("list indexes on %s: %w", req.Collection, err)
	}
	if ex, ok := findMatch(req, existing); ok {
		return Result{Requirement: req, Action: models.AlreadyPresent, IndexName: ex.Name}, nil
	}
	return Result{Requirement: req, Action: models.Created}, nil
}

// Ensure creates the index described by req unless an index over the same
// field set already exists. Superseded indexes are left alone.
//
// A unique index that cannot be built because of duplicate documents is a
// fatal error wrapping indexstore.ErrUniqueViolation.
func Ensure(ctx context.Context, cat Catalog, req models.IndexRequirement, logger *zap.Logger) (Result, error) {
	if req.Keys.Len() == 0 {
		return Result{}, fmt.Errorf("index requirement on %s has no key fields", req.Collection)
	}

	start := time.Now()
	logger.Info("ensuring index",
		zap.String("collection", req.Collection),
		zap.String("name", req.Name),
		zap.String("keys", req.Keys.String()),
		zap.Bool("unique", req.Unique))

	res, err := Check(ctx, cat, req)
	if err != nil {
		return Result{}, err
	}
	if res.Action == models.AlreadyPresent {
		logger.Info("reusing existing index",
			zap.String("collection", req.Collection),
			zap.String("name", res.IndexName),
			zap.String("keys", req.Keys.String()),
			zap.String("took", time.Since(start).String()))
		return res, nil
	}

	created, err := cat.Create(ctx, req)
	if err != nil {
		if errors.Is(err, indexstore.ErrOptionsConflict) {
			return resolveConflict(ctx, cat, req, err, start, logger)
		}
		logger.Warn("index ensure failed",
			zap.String("collection", req.Collection),
			zap.String("name", req.Name),
			zap.String("keys", req.Keys.String()),
			zap.Bool("unique", req.Unique),
			zap.String("took", time.Since(start).String()),
			zap.Error(err))
		if errors.Is(err, indexstore.ErrUniqueViolation) {
			return Result{}, fmt.Errorf("%s%s: cannot create unique index (duplicates present). Example finder:\n%s\n%w",
				req.Collection, req.Keys, DuplicateFinder(req), err)
		}
		return Result{}, fmt.Errorf("%s%s: create index: %w", req.Collection, req.Keys, err)
	}

	logger.Info("index ensured",
		zap.String("collection", req.Collection),
		zap.String("name", req.Name),
		zap.String("created_name", created),
		zap.String("keys", req.Keys.String()),
		zap.Bool("unique", req.Unique),
		zap.String("took", time.Since(start).String()))
	return Result{Requirement: req, Action: models.Created, IndexName: created}, nil
}

// resolveConflict handles a create that lost a race with another writer (or
// hit a same-named index): if an index over the required fields exists now,
// the requirement holds.
func resolveConflict(ctx context.Context, cat Catalog, req models.IndexRequirement, cause error, start time.Time, logger *zap.Logger) (Result, error) {
	existing, err := cat.List(ctx, req.Collection)
	if err != nil {
		return Result{}, fmt.Errorf("list indexes on %s after conflict: %w", req.Collection, err)
	}
	if ex, ok := findMatch(req, existing); ok {
		logger.Info("reusing existing index (post-conflict)",
			zap.String("collection", req.Collection),
			zap.String("name", ex.Name),
			zap.String("keys", req.Keys.String()),
			zap.String("took", time.Since(start).String()))
		return Result{Requirement: req, Action: models.AlreadyPresent, IndexName: ex.Name}, nil
	}
	logger.Warn("index ensure failed",
		zap.String("collection", req.Collection),
		zap.String("name", req.Name),
		zap.String("keys", req.Keys.String()),
		zap.String("took", time.Since(start).String()),
		zap.Error(cause))
	return Result{}, fmt.Errorf("%w: %s%s: %w", ErrIndexConflict, req.Collection, req.Keys, cause)
}

// EnsureAll runs Ensure for each requirement in order and stops at the
// first error.
func EnsureAll(ctx context.Context, cat Catalog, reqs []models.IndexRequirement, logger *zap.Logger) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		res, err := Ensure(ctx, cat, req, logger)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// CheckAll is the dry-run counterpart of EnsureAll.
func CheckAll(ctx context.Context, cat Catalog, reqs []models.IndexRequirement) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		res, err := Check(ctx, cat, req)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// DuplicateFinder returns a mongo shell aggregation that lists the documents
// blocking a unique index on req.
func DuplicateFinder(req models.IndexRequirement) string {
	fields := req.Order
	if len(fields) == 0 {
		fields = req.Keys.Sorted()
	}
	group := make([]string, 0, len(fields))
	for _, f := range fields {
		group = append(group, fmt.Sprintf("%s: %q", strings.ReplaceAll(f, ".", "_"), "$"+f))
	}
	return fmt.Sprintf(`db.getCollection(%q).aggregate([{ $group: { _id: { %s }, n: { $sum: 1 }, ids: { $push: "$_id" } } }, { $match: { n: { $gt: 1 } } }])`,
		req.Collection, strings.Join(group, ", "))
}
