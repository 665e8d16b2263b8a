// Package entry stores wordlist entries for an elicitation session.
package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

// Record is a stored wordlist entry. Nullable columns stay pointers so an
// absent value is never confused with an empty one.
type Record struct {
	ID                 int64   `db:"id" yaml:"id"`
	Reference          string  `db:"reference" yaml:"reference"`
	Gloss              string  `db:"gloss" yaml:"gloss"`
	LocalTranscription string  `db:"local_transcription" yaml:"local_transcription"`
	AudioFilename      *string `db:"audio_filename" yaml:"audio_filename,omitempty"`
	PictureFilename    *string `db:"picture_filename" yaml:"picture_filename,omitempty"`
	RecordedAt         *string `db:"recorded_at" yaml:"recorded_at,omitempty"`
	IsCompleted        bool    `db:"is_completed" yaml:"is_completed"`
}

// FromEntry converts a parsed entry into a record without an ID.
func FromEntry(e wordlist.Entry) Record {
	return Record{
		Reference:          e.Reference,
		Gloss:              e.Gloss,
		LocalTranscription: e.LocalTranscription,
		AudioFilename:      e.AudioFilename,
		PictureFilename:    e.PictureFilename,
		RecordedAt:         e.RecordedAt,
		IsCompleted:        e.IsCompleted,
	}
}

// Entry returns the codec view of the record.
func (r Record) Entry() wordlist.Entry {
	return wordlist.Entry{
		Reference:          r.Reference,
		Gloss:              r.Gloss,
		LocalTranscription: r.LocalTranscription,
		AudioFilename:      r.AudioFilename,
		PictureFilename:    r.PictureFilename,
		RecordedAt:         r.RecordedAt,
		IsCompleted:        r.IsCompleted,
	}
}

// Entries converts records to codec entries, keeping their order.
func Entries(records []Record) []wordlist.Entry {
	entries := make([]wordlist.Entry, len(records))
	for i, r := range records {
		entries[i] = r.Entry()
	}
	return entries
}

// Progress holds elicitation counters.
type Progress struct {
	Total             int `db:"total" json:"total"`
	Completed         int `db:"completed" json:"completed"`
	WithAudio         int `db:"with_audio" json:"with_audio"`
	WithTranscription int `db:"with_transcription" json:"with_transcription"`
}

// Remaining is the number of entries not completed yet.
func (p Progress) Remaining() int {
	return p.Total - p.Completed
}

//go:generate mockgen -source=repository.go -destination=../mocks/entry/mock_repository.go -package=mock_entry

// Repository defines operations for managing stored entries.
type Repository interface {
	FindAll(ctx context.Context) ([]Record, error)
	FindByID(ctx context.Context, id int64) (*Record, error)
	Create(ctx context.Context, record *Record) error
	BatchCreate(ctx context.Context, records []Record) error
	Update(ctx context.Context, record *Record) error
	DeleteAll(ctx context.Context) error
	CountProgress(ctx context.Context) (*Progress, error)
}

// DBRepository implements Repository on top of SQLite or MySQL.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

const insertQuery = `INSERT INTO entries (reference, gloss, local_transcription, audio_filename, picture_filename, recorded_at, is_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

// FindAll returns all entries in insertion order.
func (r *DBRepository) FindAll(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := r.db.SelectContext(ctx, &records, "SELECT * FROM entries ORDER BY id"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(entries) > %w", err)
	}
	return records, nil
}

// FindByID returns an entry, or nil if not found.
func (r *DBRepository) FindByID(ctx context.Context, id int64) (*Record, error) {
	var record Record
	err := r.db.GetContext(ctx, &record, "SELECT * FROM entries WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(entry) > %w", err)
	}
	return &record, nil
}

// Create inserts a new entry and sets its ID.
func (r *DBRepository) Create(ctx context.Context, record *Record) error {
	result, err := r.db.ExecContext(ctx, insertQuery,
		record.Reference, record.Gloss, record.LocalTranscription,
		record.AudioFilename, record.PictureFilename, record.RecordedAt, record.IsCompleted)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert entry) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("result.LastInsertId() > %w", err)
	}
	record.ID = id
	return nil
}

// BatchCreate inserts all records in one transaction and sets their IDs.
func (r *DBRepository) BatchCreate(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTxx() > %w", err)
	}
	defer tx.Rollback()

	for i := range records {
		result, err := tx.ExecContext(ctx, insertQuery,
			records[i].Reference, records[i].Gloss, records[i].LocalTranscription,
			records[i].AudioFilename, records[i].PictureFilename, records[i].RecordedAt, records[i].IsCompleted)
		if err != nil {
			return fmt.Errorf("tx.ExecContext(insert entry %s) > %w", records[i].Reference, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("result.LastInsertId() > %w", err)
		}
		records[i].ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit() > %w", err)
	}
	return nil
}

// Update writes every mutable field of an entry.
func (r *DBRepository) Update(ctx context.Context, record *Record) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET reference = ?, gloss = ?, local_transcription = ?, audio_filename = ?,
		picture_filename = ?, recorded_at = ?, is_completed = ? WHERE id = ?`,
		record.Reference, record.Gloss, record.LocalTranscription, record.AudioFilename,
		record.PictureFilename, record.RecordedAt, record.IsCompleted, record.ID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update entry) > %w", err)
	}
	return nil
}

// DeleteAll removes every entry.
func (r *DBRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("db.ExecContext(delete entries) > %w", err)
	}
	return nil
}

// CountProgress counts all, completed, recorded and transcribed entries.
func (r *DBRepository) CountProgress(ctx context.Context) (*Progress, error) {
	var progress Progress
	err := r.db.GetContext(ctx, &progress,
		`SELECT COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed,
		COALESCE(SUM(CASE WHEN audio_filename IS NOT NULL THEN 1 ELSE 0 END), 0) AS with_audio,
		COALESCE(SUM(CASE WHEN local_transcription <> '' THEN 1 ELSE 0 END), 0) AS with_transcription
		FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(entry progress) > %w", err)
	}
	return &progress, nil
}
