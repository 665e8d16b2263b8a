package entry

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/elicitor/internal/config"
	"github.com/at-ishikawa/elicitor/internal/database"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

var entryColumns = []string{
	"id", "reference", "gloss", "local_transcription",
	"audio_filename", "picture_filename", "recorded_at", "is_completed",
}

func strPtr(s string) *string {
	return &s
}

func TestDBRepository_FindAll(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      []Record
		wantErr   bool
	}{
		{
			name: "returns all entries",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(entryColumns).
					AddRow(1, "0001", "head", "kichwa", "0001_head.wav", nil, "2025-01-01T00:00:00Z", true).
					AddRow(2, "0002", "eye", "", nil, "eye.png", nil, false)
				mock.ExpectQuery("SELECT \\* FROM entries ORDER BY id").WillReturnRows(rows)
			},
			want: []Record{
				{ID: 1, Reference: "0001", Gloss: "head", LocalTranscription: "kichwa", AudioFilename: strPtr("0001_head.wav"), RecordedAt: strPtr("2025-01-01T00:00:00Z"), IsCompleted: true},
				{ID: 2, Reference: "0002", Gloss: "eye", PictureFilename: strPtr("eye.png")},
			},
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM entries ORDER BY id").
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

			got, err := repo.FindAll(context.Background())
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

func TestDBRepository_FindByID(t *testing.T) {
	tests := []struct {
		name      string
		id        int64
		setupMock func(mock sqlmock.Sqlmock)
		want      *Record
		wantErr   bool
	}{
		{
			name: "found",
			id:   3,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(entryColumns).AddRow(3, "0003", "ear", "", nil, nil, nil, false)
				mock.ExpectQuery("SELECT \\* FROM entries WHERE id = \\?").WithArgs(int64(3)).WillReturnRows(rows)
			},
			want: &Record{ID: 3, Reference: "0003", Gloss: "ear"},
		},
		{
			name: "not found",
			id:   99,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM entries WHERE id = \\?").WithArgs(int64(99)).
					WillReturnRows(sqlmock.NewRows(entryColumns))
			},
			want: nil,
		},
		{
			name: "db error",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM entries WHERE id = \\?").WithArgs(int64(1)).
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

			got, err := repo.FindByID(context.Background(), tt.id)
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

func TestDBRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDBRepository(sqlx.NewDb(db, "mysql"))
	record := &Record{Reference: "0001", Gloss: "head", PictureFilename: strPtr("head.png")}

	mock.ExpectExec("INSERT INTO entries").
		WithArgs("0001", "head", "", (*string)(nil), strPtr("head.png"), (*string)(nil), false).
		WillReturnResult(sqlmock.NewResult(7, 1))

	require.NoError(t, repo.Create(context.Background(), record))
	assert.Equal(t, int64(7), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBRepository_BatchCreate(t *testing.T) {
	tests := []struct {
		name      string
		records   []Record
		setupMock func(mock sqlmock.Sqlmock)
		wantIDs   []int64
		wantErr   bool
	}{
		{
			name:      "empty batch does nothing",
			records:   nil,
			setupMock: func(mock sqlmock.Sqlmock) {},
			wantIDs:   []int64{},
		},
		{
			name: "inserts in one transaction",
			records: []Record{
				{Reference: "0001", Gloss: "head"},
				{Reference: "0002", Gloss: "eye"},
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO entries").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO entries").WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectCommit()
			},
			wantIDs: []int64{1, 2},
		},
		{
			name: "rolls back on failure",
			records: []Record{
				{Reference: "0001", Gloss: "head"},
				{Reference: "0002", Gloss: "eye"},
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO entries").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO entries").WillReturnError(fmt.Errorf("disk full"))
				mock.ExpectRollback()
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

			err = repo.BatchCreate(context.Background(), tt.records)
			assert.NoError(t, mock.ExpectationsWereMet())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			gotIDs := make([]int64, len(tt.records))
			for i, r := range tt.records {
				gotIDs[i] = r.ID
			}
			assert.Equal(t, tt.wantIDs, gotIDs)
		})
	}
}

func TestDBRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDBRepository(sqlx.NewDb(db, "mysql"))
	record := &Record{ID: 4, Reference: "0004", Gloss: "nose", LocalTranscription: "pua", IsCompleted: true}

	mock.ExpectExec("UPDATE entries SET").
		WithArgs("0004", "nose", "pua", (*string)(nil), (*string)(nil), (*string)(nil), true, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBRepository_DeleteAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDBRepository(sqlx.NewDb(db, "mysql"))
	mock.ExpectExec("DELETE FROM entries").WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBRepository_CountProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDBRepository(sqlx.NewDb(db, "mysql"))
	rows := sqlmock.NewRows([]string{"total", "completed", "with_audio", "with_transcription"}).AddRow(10, 4, 3, 2)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total").WillReturnRows(rows)

	got, err := repo.CountProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Progress{Total: 10, Completed: 4, WithAudio: 3, WithTranscription: 2}, got)
	assert.Equal(t, 6, got.Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDBRepository_SQLite runs the repository against a real SQLite file to
// check that absent and empty optional values survive a round trip.
func TestDBRepository_SQLite(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "words.db")})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	repo := NewDBRepository(db)
	records := []Record{
		{Reference: "0002", Gloss: "eye", PictureFilename: strPtr("")},
		{Reference: "0001", Gloss: "head", LocalTranscription: "kichwa", AudioFilename: strPtr("0001_head.wav"), IsCompleted: true},
	}
	require.NoError(t, repo.BatchCreate(ctx, records))

	got, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	found, err := repo.FindByID(ctx, records[0].ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, strPtr(""), found.PictureFilename)
	assert.Nil(t, found.AudioFilename)

	found.LocalTranscription = "jicho"
	found.IsCompleted = true
	require.NoError(t, repo.Update(ctx, found))

	progress, err := repo.CountProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Progress{Total: 2, Completed: 2, WithAudio: 1, WithTranscription: 2}, progress)

	require.NoError(t, repo.DeleteAll(ctx))
	progress, err = repo.CountProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Total)
}

func TestRecord_Entry(t *testing.T) {
	e := wordlist.Entry{
		Reference:          "0001",
		Gloss:              "head",
		LocalTranscription: "kichwa",
		AudioFilename:      strPtr("0001_head.wav"),
		IsCompleted:        true,
	}
	record := FromEntry(e)
	record.ID = 5

	assert.Equal(t, e, record.Entry())
	assert.Equal(t, []wordlist.Entry{e}, Entries([]Record{record}))
}
