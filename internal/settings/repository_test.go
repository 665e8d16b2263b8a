package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/elicitor/internal/config"
	"github.com/at-ishikawa/elicitor/internal/database"
)

func TestDBRepository_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantValue string
		wantOK    bool
		wantErr   bool
	}{
		{
			name: "existing key",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT setting_value FROM settings WHERE setting_key = \\?").
					WithArgs("language").
					WillReturnRows(sqlmock.NewRows([]string{"setting_value"}).AddRow("sw"))
			},
			wantValue: "sw",
			wantOK:    true,
		},
		{
			name: "missing key",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT setting_value FROM settings WHERE setting_key = \\?").
					WithArgs("language").
					WillReturnRows(sqlmock.NewRows([]string{"setting_value"}))
			},
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT setting_value FROM settings WHERE setting_key = \\?").
					WithArgs("language").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewDBRepository(sqlx.NewDb(db, "mysql"))
			tt.setupMock(mock)

			value, ok, err := repo.Get(context.Background(), "language")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantOK, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBRepository_DeviceID(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      string
		wantErr   bool
	}{
		{
			name: "returns stored id",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT setting_value FROM settings").
					WithArgs(KeyDeviceID).
					WillReturnRows(sqlmock.NewRows([]string{"setting_value"}).AddRow("stored-id"))
			},
			want: "stored-id",
		},
		{
			name: "creates id on first use",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT setting_value FROM settings").
					WithArgs(KeyDeviceID).
					WillReturnRows(sqlmock.NewRows([]string{"setting_value"}))
				mock.ExpectExec("REPLACE INTO settings").
					WithArgs(KeyDeviceID, "generated-id").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			want: "generated-id",
		},
		{
			name: "store failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT setting_value FROM settings").
					WithArgs(KeyDeviceID).
					WillReturnRows(sqlmock.NewRows([]string{"setting_value"}))
				mock.ExpectExec("REPLACE INTO settings").WillReturnError(fmt.Errorf("read-only"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewDBRepository(sqlx.NewDb(db, "mysql"))
			repo.newID = func() string { return "generated-id" }
			tt.setupMock(mock)

			got, err := repo.DeviceID(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBRepository_SQLite(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "words.db")})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	repo := NewDBRepository(db)

	first, err := repo.DeviceID(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	assert.NoError(t, err)

	second, err := repo.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, repo.Set(ctx, "language", "sw"))
	require.NoError(t, repo.Set(ctx, "language", "yo"))
	value, ok, err := repo.Get(ctx, "language")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "yo", value)
}
