// Package directory creates users and resolves them by id.
package directory

import (
	"context"
	"errors"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/exercisetracker/internal/faults"
	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/observability"
	"github.com/patric-chuzhbe/exercisetracker/internal/user"
)

type userKeeper interface {
	InsertUser(ctx context.Context, userName string) (*user.User, error)
	FindAllUsers(ctx context.Context) ([]models.UserSummary, error)
	FindUserByID(ctx context.Context, userID string) (*user.User, error)
}

type Directory struct {
	db       userKeeper
	validate *validator.Validate
}

func New(db userKeeper) *Directory {
	return &Directory{
		db:       db,
		validate: faults.NewValidator(),
	}
}

// Create registers userName under a freshly generated id.
func (d *Directory) Create(ctx context.Context, userName string) (models.UserSummary, error) {
	candidate := user.User{UserName: userName}
	if err := faults.FromValidator(d.validate.Struct(candidate)); err != nil {
		return models.UserSummary{}, err
	}

	usr, err := d.db.InsertUser(ctx, userName)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return models.UserSummary{}, faults.DuplicateName(err)
		}
		return models.UserSummary{}, faults.Store(err)
	}

	observability.RecordUserCreated()

	return usr.Summary(), nil
}

// ListAll returns every user without logs. Storage failures are reported
// with a fixed message, the underlying error stays wrapped.
func (d *Directory) ListAll(ctx context.Context) ([]models.UserSummary, error) {
	users, err := d.db.FindAllUsers(ctx)
	if err != nil {
		return nil, faults.StoreHidden(err)
	}
	if users == nil {
		users = []models.UserSummary{}
	}

	return users, nil
}

// Get returns the user with its full log.
func (d *Directory) Get(ctx context.Context, userID string) (*user.User, error) {
	if userID == "" {
		return nil, faults.UserNotFound(userID)
	}

	usr, err := d.db.FindUserByID(ctx, userID)
	if err != nil {
		return nil, faults.Store(err)
	}
	if usr == nil {
		return nil, faults.UserNotFound(userID)
	}
	if usr.Log == nil {
		usr.Log = []models.Exercise{}
	}

	return usr, nil
}
