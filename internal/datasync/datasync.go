// Package datasync moves wordlist data between files and the database.
package datasync

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/at-ishikawa/elicitor/internal/audio"
	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/entry"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

// ImportResult tracks counts for an import.
type ImportResult struct {
	Encoding        wordlist.Encoding
	EntriesNew      int
	EntriesReplaced int
	Completed       int
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool
}

// Importer replaces the stored wordlist with the content of a document.
type Importer struct {
	entryRepo entry.Repository
	audioRepo audio.Repository
	writer    io.Writer
}

// NewImporter creates a new Importer.
func NewImporter(entryRepo entry.Repository, audioRepo audio.Repository, writer io.Writer) *Importer {
	return &Importer{
		entryRepo: entryRepo,
		audioRepo: audioRepo,
		writer:    writer,
	}
}

// ImportWordlist parses data and, unless DryRun is set, replaces every stored
// entry and audio clip with the parsed entries. Nothing is written when the
// document cannot be decoded or parsed, or when it yields no entries.
func (imp *Importer) ImportWordlist(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	encoding, _ := wordlist.DetectEncoding(data)
	entries, err := wordlist.ReadWordlist(data)
	if err != nil {
		return nil, fmt.Errorf("wordlist.ReadWordlist() > %w", err)
	}

	records := make([]entry.Record, len(entries))
	for i, e := range entries {
		records[i] = entry.FromEntry(e)
	}

	result, err := imp.replace(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	result.Encoding = encoding

	slog.Default().Info("imported wordlist",
		slog.String("encoding", string(encoding)),
		slog.Int("entries", result.EntriesNew),
		slog.Int("replaced", result.EntriesReplaced),
		slog.Bool("dry_run", opts.DryRun),
	)
	return result, nil
}

// RestoreEntries replaces stored entries with records read from a backup.
// Stored audio is kept, since backups do not carry it.
func (imp *Importer) RestoreEntries(ctx context.Context, records []entry.Record, opts ImportOptions) (*ImportResult, error) {
	restored := make([]entry.Record, len(records))
	for i, r := range records {
		r.ID = 0
		restored[i] = r
	}
	return imp.replaceEntries(ctx, restored, opts)
}

// RestoreConsents replaces stored consent records with records read from a
// backup and returns how many were restored.
func RestoreConsents(ctx context.Context, repo consent.Repository, records []consent.Record, opts ImportOptions) (int, error) {
	if opts.DryRun {
		return len(records), nil
	}
	restored := make([]consent.Record, len(records))
	for i, r := range records {
		r.ID = 0
		restored[i] = r
	}
	if err := repo.ReplaceAll(ctx, restored); err != nil {
		return 0, fmt.Errorf("consentRepo.ReplaceAll() > %w", err)
	}
	return len(restored), nil
}

func (imp *Importer) replace(ctx context.Context, records []entry.Record, opts ImportOptions) (*ImportResult, error) {
	if !opts.DryRun {
		if err := imp.audioRepo.DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("audioRepo.DeleteAll() > %w", err)
		}
	}
	return imp.replaceEntries(ctx, records, opts)
}

func (imp *Importer) replaceEntries(ctx context.Context, records []entry.Record, opts ImportOptions) (*ImportResult, error) {
	existing, err := imp.entryRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("entryRepo.FindAll() > %w", err)
	}

	result := ImportResult{EntriesReplaced: len(existing)}
	for _, r := range records {
		fmt.Fprintf(imp.writer, "  [NEW]  %s %q\n", r.Reference, r.Gloss)
		result.EntriesNew++
		if r.IsCompleted {
			result.Completed++
		}
	}
	if opts.DryRun {
		return &result, nil
	}

	if err := imp.entryRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("entryRepo.DeleteAll() > %w", err)
	}
	if err := imp.entryRepo.BatchCreate(ctx, records); err != nil {
		return nil, fmt.Errorf("entryRepo.BatchCreate() > %w", err)
	}
	return &result, nil
}
