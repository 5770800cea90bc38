package setting

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/churchadmin/churchadmin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Migrate the schema
	err = db.AutoMigrate(models.All()...)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.Create(&models.Setting{Name: "site_name", Value: []byte("Grace Chapel")}).Error)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			settingName:   "test",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "setting not found",
			dbParam:       db,
			settingName:   "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:          "successful get",
			dbParam:       db,
			settingName:   "site_name",
			expectedValue: []byte("Grace Chapel"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Get(ctx, tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, got.Value)
		})
	}
}

func TestSet_Upserts(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, Set(ctx, db, "backend_server", []byte("one")))
	require.NoError(t, Set(ctx, db, "backend_server", []byte("two")))

	got, err := Get(ctx, db, "backend_server")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got.Value)

	all, err := All(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.ErrorIs(t, Set(ctx, db, "", nil), ErrSettingNameEmpty)
	require.ErrorIs(t, Set(ctx, nil, "x", nil), ErrDBNil)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, Set(ctx, db, "a", []byte("1")))
	require.NoError(t, Set(ctx, db, "b", []byte("2")))

	require.NoError(t, Delete(ctx, db, "a"))
	require.ErrorIs(t, Delete(ctx, db, "a"), ErrSettingNotFound)

	all, err := All(ctx, db)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Name)
}
