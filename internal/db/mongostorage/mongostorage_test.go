package mongostorage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
)

const connectionTimeout = 5 * time.Second

// newTestStorage connects to TEST_MONGO_URI, for example
// "mongodb://localhost:27017", using a throwaway database.
func newTestStorage(t *testing.T) *MongoStorage {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	storage, err := New(ctx, uri, "tracker_test_"+uuid.NewString()[:8], connectionTimeout)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = storage.users.Database().Drop(context.Background())
		assert.NoError(t, storage.Close())
	})

	return storage
}

func TestMongoStorage(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	require.NoError(t, storage.Ping(ctx))

	alice, err := storage.InsertUser(ctx, "alice")
	require.NoError(t, err)

	_, err = storage.InsertUser(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	bob, err := storage.InsertUser(ctx, "bob")
	require.NoError(t, err)

	users, err := storage.FindAllUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.UserSummary{
		{ID: alice.ID, UserName: "alice"},
		{ID: bob.ID, UserName: "bob"},
	}, users)

	summary, err := storage.PushToLog(ctx, alice.ID, models.Exercise{Description: "run", Duration: 30, Date: "2024-01-05"})
	require.NoError(t, err)
	assert.Equal(t, &models.UserSummary{ID: alice.ID, UserName: "alice"}, summary)

	missing, err := storage.PushToLog(ctx, "nobody", models.Exercise{Description: "run"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	found, err := storage.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []models.Exercise{{Description: "run", Duration: 30, Date: "2024-01-05"}}, found.Log)

	nobody, err := storage.FindUserByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, nobody)
}
