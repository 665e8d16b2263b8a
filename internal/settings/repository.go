// Package settings keeps small key/value settings such as the device id.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	// KeyDeviceID identifies the installation in consent records.
	KeyDeviceID = "device_id"
	// KeyLastEntryIndex is the 0-based position of the last visited entry.
	KeyLastEntryIndex = "last_entry_index"
)

//go:generate mockgen -source=repository.go -destination=../mocks/settings/mock_repository.go -package=mock_settings

// Repository defines operations for key/value settings.
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	DeviceID(ctx context.Context) (string, error)
}

// DBRepository implements Repository on top of SQLite or MySQL.
type DBRepository struct {
	db    *sqlx.DB
	newID func() string
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db, newID: uuid.NewString}
}

// Get returns the value for key and whether it exists.
func (r *DBRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT setting_value FROM settings WHERE setting_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("db.GetContext(setting %s) > %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (r *DBRepository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx,
		"REPLACE INTO settings (setting_key, setting_value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("db.ExecContext(replace setting %s) > %w", key, err)
	}
	return nil
}

// DeviceID returns the stored device id, generating and storing a new UUID
// on first use.
func (r *DBRepository) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := r.Get(ctx, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = r.newID()
	if err := r.Set(ctx, KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
