// Package consent records speaker consent given during a session.
package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Type is how consent was captured.
type Type string

const (
	TypeVerbal  Type = "verbal"
	TypeWritten Type = "written"
)

// Response is the speaker's answer.
type Response string

const (
	ResponseAccept  Response = "accept"
	ResponseDecline Response = "decline"
)

// Record is one consent event.
type Record struct {
	ID                    int64     `db:"id" json:"id" yaml:"id"`
	Timestamp             time.Time `db:"consented_at" json:"timestamp" yaml:"timestamp"`
	DeviceID              string    `db:"device_id" json:"deviceId" yaml:"device_id"`
	Type                  Type      `db:"consent_type" json:"type" yaml:"type"`
	Response              Response  `db:"response" json:"response" yaml:"response"`
	VerbalConsentFilename *string   `db:"verbal_consent_filename" json:"verbalConsentFilename" yaml:"verbal_consent_filename,omitempty"`
}

//go:generate mockgen -source=repository.go -destination=../mocks/consent/mock_repository.go -package=mock_consent

// Repository defines operations for managing consent records.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	FindAll(ctx context.Context) ([]Record, error)
	ReplaceAll(ctx context.Context, records []Record) error
}

// DBRepository implements Repository on top of SQLite or MySQL.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

const insertQuery = `INSERT INTO consent (consented_at, device_id, consent_type, response, verbal_consent_filename)
	VALUES (?, ?, ?, ?, ?)`

// Create inserts a consent record and sets its ID.
func (r *DBRepository) Create(ctx context.Context, record *Record) error {
	result, err := r.db.ExecContext(ctx, insertQuery,
		record.Timestamp, record.DeviceID, string(record.Type), string(record.Response), record.VerbalConsentFilename)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert consent) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("result.LastInsertId() > %w", err)
	}
	record.ID = id
	return nil
}

// FindAll returns every consent record, oldest first.
func (r *DBRepository) FindAll(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := r.db.SelectContext(ctx, &records, "SELECT * FROM consent ORDER BY consented_at, id"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(consent) > %w", err)
	}
	return records, nil
}

// ReplaceAll deletes every consent record and inserts records in one
// transaction, setting their new IDs.
func (r *DBRepository) ReplaceAll(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTxx() > %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM consent"); err != nil {
		return fmt.Errorf("tx.ExecContext(delete consent) > %w", err)
	}
	for i := range records {
		result, err := tx.ExecContext(ctx, insertQuery,
			records[i].Timestamp, records[i].DeviceID, string(records[i].Type), string(records[i].Response), records[i].VerbalConsentFilename)
		if err != nil {
			return fmt.Errorf("tx.ExecContext(insert consent) > %w", err)
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
