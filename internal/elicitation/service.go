// Package elicitation implements the operations of a recording session:
// listing entries, saving transcriptions, attaching audio and recording
// consent.
package elicitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/at-ishikawa/elicitor/internal/audio"
	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/entry"
	"github.com/at-ishikawa/elicitor/internal/export"
	"github.com/at-ishikawa/elicitor/internal/settings"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

var (
	ErrEntryNotFound   = errors.New("entry not found")
	ErrEmptyAudio      = errors.New("audio payload is empty")
	ErrInvalidPosition = errors.New("position must not be negative")
)

// recordedAtLayout is RFC 3339 in UTC with a literal Z suffix.
const recordedAtLayout = "2006-01-02T15:04:05.000000Z"

// Service runs session operations against the stores.
type Service struct {
	entryRepo    entry.Repository
	audioRepo    audio.Repository
	consentRepo  consent.Repository
	settingsRepo settings.Repository
}

// NewService creates a new Service.
func NewService(entryRepo entry.Repository, audioRepo audio.Repository, consentRepo consent.Repository, settingsRepo settings.Repository) *Service {
	return &Service{
		entryRepo:    entryRepo,
		audioRepo:    audioRepo,
		consentRepo:  consentRepo,
		settingsRepo: settingsRepo,
	}
}

// Entries returns stored entries stably sorted by numeric reference.
func (s *Service) Entries(ctx context.Context) ([]entry.Record, error) {
	records, err := s.entryRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("entryRepo.FindAll() > %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return wordlist.CompareReferences(records[i].Reference, records[j].Reference) < 0
	})
	return records, nil
}

// Search returns sorted entries whose reference or gloss contains filter,
// ignoring case. An empty filter matches everything.
func (s *Service) Search(ctx context.Context, filter string) ([]entry.Record, error) {
	records, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return records, nil
	}

	filter = strings.ToLower(filter)
	matched := make([]entry.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Reference), filter) || strings.Contains(strings.ToLower(r.Gloss), filter) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// FindByReference returns the first sorted entry whose reference equals
// reference, or ErrEntryNotFound.
func (s *Service) FindByReference(ctx context.Context, reference string) (*entry.Record, error) {
	records, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Reference == reference {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("reference %s: %w", reference, ErrEntryNotFound)
}

// FindByIndex returns the entry at the 0-based index of the sorted entries,
// or ErrEntryNotFound when the index is out of range.
func (s *Service) FindByIndex(ctx context.Context, index int) (*entry.Record, error) {
	records, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(records) {
		return nil, fmt.Errorf("index %d of %d entries: %w", index, len(records), ErrEntryNotFound)
	}
	return &records[index], nil
}

// LastPosition returns the saved 0-based position of the last visited entry.
// It is 0 when nothing was saved or the stored value is unreadable.
func (s *Service) LastPosition(ctx context.Context) (int, error) {
	value, ok, err := s.settingsRepo.Get(ctx, settings.KeyLastEntryIndex)
	if err != nil {
		return 0, fmt.Errorf("settingsRepo.Get(%s) > %w", settings.KeyLastEntryIndex, err)
	}
	if !ok {
		return 0, nil
	}
	index, err := strconv.Atoi(value)
	if err != nil || index < 0 {
		slog.Default().Warn("ignoring invalid saved position", slog.String("value", value))
		return 0, nil
	}
	return index, nil
}

// SetLastPosition saves the 0-based position of the last visited entry.
func (s *Service) SetLastPosition(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("position %d: %w", index, ErrInvalidPosition)
	}
	if err := s.settingsRepo.Set(ctx, settings.KeyLastEntryIndex, strconv.Itoa(index)); err != nil {
		return fmt.Errorf("settingsRepo.Set(%s) > %w", settings.KeyLastEntryIndex, err)
	}
	return nil
}

// SaveTranscription stores text as the entry's transcription. The entry is
// completed when the trimmed text is non-empty or it already has audio.
func (s *Service) SaveTranscription(ctx context.Context, id int64, text string) (*entry.Record, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	record.LocalTranscription = text
	record.IsCompleted = strings.TrimSpace(text) != "" || hasAudio(record)
	if err := s.entryRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("entryRepo.Update() > %w", err)
	}
	return record, nil
}

// AttachAudio stores wav under the entry's generated filename and marks the
// entry as recorded at now.
func (s *Service) AttachAudio(ctx context.Context, id int64, wav []byte, now time.Time) (*entry.Record, error) {
	if len(wav) == 0 {
		return nil, ErrEmptyAudio
	}
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	filename := wordlist.GenerateAudioFilename(record.Reference, record.Gloss)
	if err := s.audioRepo.Save(ctx, &audio.Clip{Filename: filename, Data: wav, CreatedAt: now.UTC()}); err != nil {
		return nil, fmt.Errorf("audioRepo.Save() > %w", err)
	}

	recordedAt := now.UTC().Format(recordedAtLayout)
	record.AudioFilename = &filename
	record.RecordedAt = &recordedAt
	record.IsCompleted = true
	if err := s.entryRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("entryRepo.Update() > %w", err)
	}

	slog.Default().Debug("attached audio",
		slog.Int64("entry_id", id),
		slog.String("filename", filename),
		slog.Int("bytes", len(wav)),
	)
	return record, nil
}

// Audio returns the clip attached to an entry, or nil when it has none.
func (s *Service) Audio(ctx context.Context, id int64) (*audio.Clip, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !hasAudio(record) {
		return nil, nil
	}
	clip, err := s.audioRepo.FindByFilename(ctx, *record.AudioFilename)
	if err != nil {
		return nil, fmt.Errorf("audioRepo.FindByFilename() > %w", err)
	}
	return clip, nil
}

// ConsentInput is what the speaker answered.
type ConsentInput struct {
	Type                  consent.Type
	Response              consent.Response
	VerbalConsentFilename string
}

// RecordConsent stores a consent record stamped with the device id.
func (s *Service) RecordConsent(ctx context.Context, input ConsentInput, now time.Time) (*consent.Record, error) {
	deviceID, err := s.settingsRepo.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("settingsRepo.DeviceID() > %w", err)
	}

	record := &consent.Record{
		Timestamp: now.UTC(),
		DeviceID:  deviceID,
		Type:      input.Type,
		Response:  input.Response,
	}
	if input.VerbalConsentFilename != "" {
		filename := input.VerbalConsentFilename
		record.VerbalConsentFilename = &filename
	}
	if err := s.consentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("consentRepo.Create() > %w", err)
	}
	return record, nil
}

// Progress returns elicitation counters.
func (s *Service) Progress(ctx context.Context) (*entry.Progress, error) {
	progress, err := s.entryRepo.CountProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("entryRepo.CountProgress() > %w", err)
	}
	return progress, nil
}

// ExportContents collects the sorted entries, clips and consent records for
// packaging.
func (s *Service) ExportContents(ctx context.Context) (*export.Contents, error) {
	records, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	clips, err := s.audioRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("audioRepo.FindAll() > %w", err)
	}
	consents, err := s.consentRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("consentRepo.FindAll() > %w", err)
	}
	return &export.Contents{
		Entries:  entry.Entries(records),
		Clips:    clips,
		Consents: consents,
	}, nil
}

// RenderWordlist returns the stored entries as a UTF-16LE wordlist document.
func (s *Service) RenderWordlist(ctx context.Context) ([]byte, error) {
	records, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	data, err := wordlist.Render(entry.Entries(records))
	if err != nil {
		return nil, fmt.Errorf("wordlist.Render() > %w", err)
	}
	return data, nil
}

func (s *Service) find(ctx context.Context, id int64) (*entry.Record, error) {
	record, err := s.entryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("entryRepo.FindByID(%d) > %w", id, err)
	}
	if record == nil {
		return nil, fmt.Errorf("entry %d: %w", id, ErrEntryNotFound)
	}
	return record, nil
}

func hasAudio(record *entry.Record) bool {
	return record.AudioFilename != nil && *record.AudioFilename != ""
}
