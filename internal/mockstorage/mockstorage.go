// Package mockstorage provides a testify-based mock of the tracker storage.
// It is used to drive the directory, the exercise log and the transports
// through storage failures that the real backends cannot easily produce.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/user"
)

// StorageMock implements every storage method used by the services.
type StorageMock struct {
	mock.Mock

	// OnPing, when set, answers Ping instead of the testify expectations.
	OnPing func(ctx context.Context) error
}

// InsertUser mocks user creation.
func (m *StorageMock) InsertUser(ctx context.Context, userName string) (*user.User, error) {
	args := m.Called(ctx, userName)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// FindAllUsers mocks listing the user summaries.
func (m *StorageMock) FindAllUsers(ctx context.Context) ([]models.UserSummary, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.UserSummary)
	return users, args.Error(1)
}

// FindUserByID mocks fetching a user with its log.
func (m *StorageMock) FindUserByID(ctx context.Context, userID string) (*user.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// PushToLog mocks the atomic append.
func (m *StorageMock) PushToLog(
	ctx context.Context,
	userID string,
	entry models.Exercise,
) (*models.UserSummary, error) {
	args := m.Called(ctx, userID, entry)
	summary, _ := args.Get(0).(*models.UserSummary)
	return summary, args.Error(1)
}

// Ping returns nil unless OnPing is set.
func (m *StorageMock) Ping(ctx context.Context) error {
	if m.OnPing != nil {
		return m.OnPing(ctx)
	}
	return nil
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
