// Package audio stores recorded clips by filename.
package audio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Clip is an opaque audio payload. Data is never inspected or re-encoded.
type Clip struct {
	Filename  string    `db:"filename" json:"filename"`
	Data      []byte    `db:"data" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

//go:generate mockgen -source=repository.go -destination=../mocks/audio/mock_repository.go -package=mock_audio

// Repository defines operations for managing audio clips.
type Repository interface {
	Save(ctx context.Context, clip *Clip) error
	FindByFilename(ctx context.Context, filename string) (*Clip, error)
	FindAll(ctx context.Context) ([]Clip, error)
	DeleteAll(ctx context.Context) error
}

// DBRepository implements Repository on top of SQLite or MySQL.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// Save inserts a clip, replacing any clip with the same filename.
func (r *DBRepository) Save(ctx context.Context, clip *Clip) error {
	if clip.CreatedAt.IsZero() {
		clip.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		"REPLACE INTO audio (filename, data, created_at) VALUES (?, ?, ?)",
		clip.Filename, clip.Data, clip.CreatedAt)
	if err != nil {
		return fmt.Errorf("db.ExecContext(replace audio %s) > %w", clip.Filename, err)
	}
	return nil
}

// FindByFilename returns a clip, or nil if not found.
func (r *DBRepository) FindByFilename(ctx context.Context, filename string) (*Clip, error) {
	var clip Clip
	err := r.db.GetContext(ctx, &clip, "SELECT filename, data, created_at FROM audio WHERE filename = ?", filename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(audio) > %w", err)
	}
	return &clip, nil
}

// FindAll returns all clips ordered by filename.
func (r *DBRepository) FindAll(ctx context.Context) ([]Clip, error) {
	var clips []Clip
	if err := r.db.SelectContext(ctx, &clips, "SELECT filename, data, created_at FROM audio ORDER BY filename"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(audio) > %w", err)
	}
	return clips, nil
}

// DeleteAll removes every clip.
func (r *DBRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM audio"); err != nil {
		return fmt.Errorf("db.ExecContext(delete audio) > %w", err)
	}
	return nil
}
