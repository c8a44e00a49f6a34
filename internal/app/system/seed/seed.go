// Package seed ensures the baseline administrator account exists.
//
// The seed user is compared on its identity key (every field except
// creationTimeUtc). It is inserted only when no user matches that key;
// existing users are never updated, so later edits to the account are not
// detected or reverted.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	userstore "github.com/dalemusser/sentinelboot/internal/app/store/users"
	"github.com/dalemusser/sentinelboot/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Users is the live user collection. *userstore.Store is the production
// implementation; Insert must report unique-index rejections as
// userstore.ErrDuplicateKey.
type Users interface {
	CountMatching(ctx context.Context, key bson.D) (int64, error)
	Insert(ctx context.Context, u models.SeedUser) error
}

// Result records what happened to the seed user.
type Result struct {
	Action models.Action
	// User is the record as written (Created) or as requested (AlreadyPresent).
	User models.SeedUser
}

// Plan maps the number of users matching the identity key to an action.
func Plan(matches int64) models.Action {
	if matches == 0 {
		return models.Created
	}
	return models.AlreadyPresent
}

// Check reports what EnsureUser would do without writing anything.
func Check(ctx context.Context, users Users, canonical models.SeedUser) (Result, error) {
	if canonical.ID == "" {
		return Result{}, errors.New("seed user id is empty")
	}
	n, err := users.CountMatching(ctx, canonical.IdentityKey())
	if err != nil {
		return Result{}, fmt.Errorf("look up seed user %q: %w", canonical.ID, err)
	}
	return Result{Action: Plan(n), User: canonical}, nil
}

// EnsureUser inserts canonical, stamped with now(), unless a user with the
// same identity key already exists.
//
// A duplicate-key rejection is treated as success only when a user matching
// the identity key is visible afterwards (another run inserted it first).
// Any other failure is returned.
func EnsureUser(ctx context.Context, users Users, canonical models.SeedUser, now func() time.Time, logger *zap.Logger) (Result, error) {
	start := time.Now()
	logger.Info("ensuring seed user",
		zap.String("id", canonical.ID),
		zap.String("email", canonical.Email),
		zap.Bool("is_admin", canonical.IsAdmin))

	res, err := Check(ctx, users, canonical)
	if err != nil {
		return Result{}, err
	}
	if res.Action == models.AlreadyPresent {
		logger.Info("seed user already present",
			zap.String("id", canonical.ID),
			zap.String("took", time.Since(start).String()))
		return res, nil
	}

	rec := canonical
	// Mongo stores millisecond precision; truncate so the returned record
	// equals what a later read sees.
	rec.CreationTimeUTC = now().UTC().Truncate(time.Millisecond)

	if err := users.Insert(ctx, rec); err != nil {
		if !errors.Is(err, userstore.ErrDuplicateKey) {
			return Result{}, fmt.Errorf("insert seed user %q: %w", canonical.ID, err)
		}
		n, cerr := users.CountMatching(ctx, canonical.IdentityKey())
		if cerr != nil {
			return Result{}, fmt.Errorf("insert seed user %q: %w (recheck failed: %v)", canonical.ID, err, cerr)
		}
		if n > 0 {
			logger.Info("seed user inserted concurrently; treating as present",
				zap.String("id", canonical.ID),
				zap.String("took", time.Since(start).String()))
			return Result{Action: models.AlreadyPresent, User: canonical}, nil
		}
		// A user with the seed id whose other fields were edited still
		// satisfies "seed user exists". It is left untouched.
		n, cerr = users.CountMatching(ctx, bson.D{{Key: "id", Value: canonical.ID}})
		if cerr != nil {
			return Result{}, fmt.Errorf("insert seed user %q: %w (recheck failed: %v)", canonical.ID, err, cerr)
		}
		if n == 0 {
			// The unique index fired on a different user (e.g. the email is
			// taken by another account); the seed user does not exist.
			return Result{}, fmt.Errorf("insert seed user %q: %w", canonical.ID, err)
		}
		logger.Warn("seed user exists with fields that differ from configuration; not modified",
			zap.String("id", canonical.ID),
			zap.String("took", time.Since(start).String()))
		return Result{Action: models.AlreadyPresent, User: canonical}, nil
	}

	logger.Info("seed user inserted",
		zap.String("id", rec.ID),
		zap.Time("creation_time_utc", rec.CreationTimeUTC),
		zap.String("took", time.Since(start).String()))
	return Result{Action: models.Created, User: rec}, nil
}
