package jsondb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
)

const (
	testDBFileName = "db_test.json"
)

func Test(t *testing.T) {
	t.Run("The base jsondb package test", func(t *testing.T) {
		ctx := context.Background()
		fileName := filepath.Join(t.TempDir(), testDBFileName)

		theStorage, err := New(fileName)
		require.NoError(t, err)
		require.NotNil(t, theStorage)

		_, err = os.Stat(fileName)
		require.NoError(t, err, "New() should create the database file")

		alice, err := theStorage.InsertUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", alice.UserName)
		assert.Empty(t, alice.Log)

		_, err = theStorage.InsertUser(ctx, "alice")
		assert.ErrorIs(t, err, models.ErrDuplicateKey)

		bob, err := theStorage.InsertUser(ctx, "bob")
		require.NoError(t, err)

		summary, err := theStorage.PushToLog(ctx, alice.ID, models.Exercise{
			Description: "run",
			Duration:    30,
			Date:        "2024-01-05",
		})
		require.NoError(t, err)
		assert.Equal(t, &models.UserSummary{ID: alice.ID, UserName: "alice"}, summary)

		missing, err := theStorage.PushToLog(ctx, "nobody", models.Exercise{Description: "run"})
		require.NoError(t, err)
		assert.Nil(t, missing)

		require.NoError(t, theStorage.Close())

		reopened, err := New(fileName)
		require.NoError(t, err)

		users, err := reopened.FindAllUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.UserSummary{
			{ID: alice.ID, UserName: "alice"},
			{ID: bob.ID, UserName: "bob"},
		}, users)

		found, err := reopened.FindUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, []models.Exercise{{Description: "run", Duration: 30, Date: "2024-01-05"}}, found.Log)

		_, err = reopened.InsertUser(ctx, "bob")
		assert.ErrorIs(t, err, models.ErrDuplicateKey)

		require.NoError(t, reopened.Ping(ctx))
		require.NoError(t, reopened.Close())
	})

	t.Run("FindUserByID returns a copy", func(t *testing.T) {
		ctx := context.Background()
		theStorage, err := New(filepath.Join(t.TempDir(), testDBFileName))
		require.NoError(t, err)

		usr, err := theStorage.InsertUser(ctx, "carol")
		require.NoError(t, err)
		_, err = theStorage.PushToLog(ctx, usr.ID, models.Exercise{Description: "swim", Date: "2024-01-01"})
		require.NoError(t, err)

		found, err := theStorage.FindUserByID(ctx, usr.ID)
		require.NoError(t, err)
		found.Log[0].Description = "changed"

		again, err := theStorage.FindUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "swim", again.Log[0].Description)

		nobody, err := theStorage.FindUserByID(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, nobody)
	})

	t.Run("An older file without name index is repaired", func(t *testing.T) {
		ctx := context.Background()
		fileName := filepath.Join(t.TempDir(), testDBFileName)
		require.NoError(t, os.WriteFile(fileName, []byte(`{
	"Users": {
		"u1": {"_id": "u1", "userName": "dave", "log": []}
	}
}`), 0644))

		theStorage, err := New(fileName)
		require.NoError(t, err)

		_, err = theStorage.InsertUser(ctx, "dave")
		assert.ErrorIs(t, err, models.ErrDuplicateKey)

		users, err := theStorage.FindAllUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.UserSummary{{ID: "u1", UserName: "dave"}}, users)
	})

	t.Run("A malformed file is an error", func(t *testing.T) {
		fileName := filepath.Join(t.TempDir(), testDBFileName)
		require.NoError(t, os.WriteFile(fileName, []byte("{not json"), 0644))

		_, err := New(fileName)
		assert.Error(t, err)
	})
}
