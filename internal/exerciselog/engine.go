// Package exerciselog appends exercises to user logs and answers filtered,
// sorted and limited queries over them.
package exerciselog

import (
	"context"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/exercisetracker/internal/faults"
	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/observability"
	"github.com/patric-chuzhbe/exercisetracker/internal/user"
)

type logAppender interface {
	// PushToLog appends entry atomically and returns the updated user
	// projection, or nil when no user has the id.
	PushToLog(ctx context.Context, userID string, entry models.Exercise) (*models.UserSummary, error)
}

type userGetter interface {
	Get(ctx context.Context, userID string) (*user.User, error)
}

// Engine owns normalization, atomic append and the log query rules.
type Engine struct {
	db       logAppender
	users    userGetter
	validate *validator.Validate
	clock    func() time.Time
}

type initOptions struct {
	clock func() time.Time
}

// InitOption configures an Engine.
type InitOption func(*initOptions)

// WithClock replaces time.Now as the source of the default exercise date.
func WithClock(clock func() time.Time) InitOption {
	return func(options *initOptions) {
		options.clock = clock
	}
}

func New(db logAppender, users userGetter, optionsProto ...InitOption) *Engine {
	options := &initOptions{
		clock: time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	return &Engine{
		db:       db,
		users:    users,
		validate: faults.NewValidator(),
		clock:    options.clock,
	}
}

// Append normalizes raw and pushes it onto the log of raw.UserID. The result
// is the updated user projection merged with the stored entry.
func (e *Engine) Append(ctx context.Context, raw models.RawExercise) (models.AddExerciseResponse, error) {
	entry, err := Normalize(raw, e.clock())
	if err != nil {
		return models.AddExerciseResponse{}, err
	}

	if err := faults.FromValidator(e.validate.Struct(entry)); err != nil {
		return models.AddExerciseResponse{}, err
	}

	if raw.UserID == "" {
		return models.AddExerciseResponse{}, faults.UserNotFound(raw.UserID)
	}

	updated, err := e.db.PushToLog(ctx, raw.UserID, entry)
	if err != nil {
		return models.AddExerciseResponse{}, faults.Store(err)
	}
	if updated == nil {
		return models.AddExerciseResponse{}, faults.UserNotFound(raw.UserID)
	}

	observability.RecordExerciseAppended()

	return models.AddExerciseResponse{
		ID:          updated.ID,
		UserName:    updated.UserName,
		Description: entry.Description,
		Duration:    entry.Duration,
		Date:        entry.Date,
	}, nil
}

// Query returns the log of query.UserID restricted to [From, To], most
// recent first, cut to Limit. Stored data is never modified.
func (e *Engine) Query(ctx context.Context, query models.LogQuery) (models.UserLog, error) {
	usr, err := e.users.Get(ctx, query.UserID)
	if err != nil {
		return models.UserLog{}, err
	}

	filtered := Filter(usr.Log, DateRange{From: query.From, To: query.To})
	SortByDateDesc(filtered)

	limit := CoerceNumber(query.Limit)
	output, limited := Truncate(filtered, limit)

	result := models.UserLog{
		ID:       usr.ID,
		UserName: usr.UserName,
		Log:      output,
		Count:    len(output),
		From:     query.From,
		To:       query.To,
	}
	if limited {
		echoed := models.Limit(limit)
		result.Limit = &echoed
	}

	observability.RecordLogQueried(len(output))

	return result, nil
}
