// Package server provides Connect RPC handlers for the wordlist service.
package server

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"connectrpc.com/connect"

	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/datasync"
	"github.com/at-ishikawa/elicitor/internal/elicitation"
	"github.com/at-ishikawa/elicitor/internal/entry"
	"github.com/at-ishikawa/elicitor/internal/export"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

// Session is the subset of elicitation.Service the handler calls.
type Session interface {
	Search(ctx context.Context, filter string) ([]entry.Record, error)
	FindByReference(ctx context.Context, reference string) (*entry.Record, error)
	FindByIndex(ctx context.Context, index int) (*entry.Record, error)
	LastPosition(ctx context.Context) (int, error)
	SetLastPosition(ctx context.Context, index int) error
	SaveTranscription(ctx context.Context, id int64, text string) (*entry.Record, error)
	AttachAudio(ctx context.Context, id int64, wav []byte, now time.Time) (*entry.Record, error)
	RecordConsent(ctx context.Context, input elicitation.ConsentInput, now time.Time) (*consent.Record, error)
	Progress(ctx context.Context) (*entry.Progress, error)
	ExportContents(ctx context.Context) (*export.Contents, error)
}

type WordlistImporter interface {
	ImportWordlist(ctx context.Context, data []byte, opts datasync.ImportOptions) (*datasync.ImportResult, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// WordlistHandler serves the wordlist procedures.
type WordlistHandler struct {
	session   Session
	importer  WordlistImporter
	fetcher   Fetcher
	packager  *export.Packager
	validator *requestValidator
	now       func() time.Time
}

// NewWordlistHandler creates a new WordlistHandler.
func NewWordlistHandler(session Session, importer WordlistImporter, fetcher Fetcher, packager *export.Packager) (*WordlistHandler, error) {
	v, err := newRequestValidator()
	if err != nil {
		return nil, fmt.Errorf("newRequestValidator() > %w", err)
	}
	return &WordlistHandler{
		session:   session,
		importer:  importer,
		fetcher:   fetcher,
		packager:  packager,
		validator: v,
		now:       time.Now,
	}, nil
}

// ListEntries returns entries sorted by numeric reference.
func (h *WordlistHandler) ListEntries(
	ctx context.Context,
	req *connect.Request[ListEntriesRequest],
) (*connect.Response[ListEntriesResponse], error) {
	if err := h.validator.check(req.Msg); err != nil {
		return nil, err
	}

	records, err := h.session.Search(ctx, req.Msg.Filter)
	if err != nil {
		return nil, toConnectError(err)
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		if req.Msg.PendingOnly && r.IsCompleted {
			continue
		}
		entries = append(entries, toEntry(r))
	}
	return connect.NewResponse(&ListEntriesResponse{Entries: entries}), nil
}

func (h *WordlistHandler) JumpToEntry(
	ctx context.Context,
	req *connect.Request[JumpToEntryRequest],
) (*connect.Response[JumpToEntryResponse], error) {
	if err := h.validator.check(req.Msg); err != nil {
		return nil, err
	}

	if req.Msg.Index == nil {
		record, err := h.session.FindByReference(ctx, wordlist.NormalizeReference(req.Msg.Reference))
		if err != nil {
			return nil, toConnectError(err)
		}
		return connect.NewResponse(&JumpToEntryResponse{Entry: toEntry(*record)}), nil
	}

	index := *req.Msg.Index
	record, err := h.session.FindByIndex(ctx, index)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := h.session.SetLastPosition(ctx, index); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&JumpToEntryResponse{Entry: toEntry(*record)}), nil
}

func (h *WordlistHandler) SaveTranscription(
	ctx context.Context,
	req *connect.Request[SaveTranscriptionRequest],
) (*connect.Response[SaveTranscriptionResponse], error) {
	if err := h.validator.check(req.Msg); err != nil {
		return nil, err
	}

	record, err := h.session.SaveTranscription(ctx, req.Msg.ID, req.Msg.Text)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SaveTranscriptionResponse{Entry: toEntry(*record)}), nil
}

func (h *WordlistHandler) AttachAudio(
	ctx context.Context,
	req *connect.Request[AttachAudioRequest],
) (*connect.Response[AttachAudioResponse], error) {
	if err := h.validator.check(req.Msg); err != nil {
		return nil, err
	}

	record, err := h.session.AttachAudio(ctx, req.Msg.ID, req.Msg.Audio, h.now())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AttachAudioResponse{Entry: toEntry(*record)}), nil
}

func (h *WordlistHandler) RecordConsent(
	ctx context.Context,
	req *connect.Request[RecordConsentRequest],
) (*connect.Response[RecordConsentResponse], error) {
	if err := h.validator.check(req.Msg); err != nil {
		return nil, err
	}

	record, err := h.session.RecordConsent(ctx, elicitation.ConsentInput{
		Type:                  consent.Type(req.Msg.Type),
		Response:              consent.Response(req.Msg.Response),
		VerbalConsentFilename: req.Msg.VerbalConsentFilename,
	}, h.now())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RecordConsentResponse{ID: record.ID, DeviceID: record.DeviceID}), nil
}

func (h *WordlistHandler) GetProgress(
	ctx context.Context,
	req *connect.Request[GetProgressRequest],
) (*connect.Response[GetProgressResponse], error) {
	progress, err := h.session.Progress(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	position, err := h.session.LastPosition(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetProgressResponse{
		Total:             progress.Total,
		Completed:         progress.Completed,
		WithAudio:         progress.WithAudio,
		WithTranscription: progress.WithTranscription,
		Remaining:         progress.Remaining(),
		LastPosition:      position,
	}), nil
}

// ImportWordlist replaces the stored wordlist with the given document,
// fetching it first when a URL is given.
func (h *WordlistHandler) ImportWordlist(
	ctx context.Context,
	req *connect.Request[ImportWordlistRequest],
) (*connect.Response[ImportWordlistResponse], error) {
	if err := h.validator.check(req.Msg); err != nil {
		return nil, err
	}

	data := req.Msg.Data
	if req.Msg.URL != "" {
		fetched, err := h.fetcher.Fetch(ctx, req.Msg.URL)
		if err != nil {
			return nil, toConnectError(err)
		}
		data = fetched
	}

	result, err := h.importer.ImportWordlist(ctx, data, datasync.ImportOptions{DryRun: req.Msg.DryRun})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ImportWordlistResponse{
		Encoding:        string(result.Encoding),
		EntriesNew:      result.EntriesNew,
		EntriesReplaced: result.EntriesReplaced,
		Completed:       result.Completed,
	}), nil
}

// ExportWordlist returns the rendered document bytes unmodified.
func (h *WordlistHandler) ExportWordlist(
	ctx context.Context,
	req *connect.Request[ExportWordlistRequest],
) (*connect.Response[ExportWordlistResponse], error) {
	contents, err := h.session.ExportContents(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	data, err := wordlist.Render(contents.Entries)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ExportWordlistResponse{
		XML:   data,
		Stats: export.ComputeStats(contents.Entries),
	}), nil
}

// ExportArchive returns the full export package as ZIP bytes.
func (h *WordlistHandler) ExportArchive(
	ctx context.Context,
	req *connect.Request[ExportArchiveRequest],
) (*connect.Response[ExportArchiveResponse], error) {
	contents, err := h.session.ExportContents(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	var buf bytes.Buffer
	summary, err := h.packager.Build(&buf, *contents)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ExportArchiveResponse{
		Filename: export.DefaultFilename(h.now()),
		Archive:  buf.Bytes(),
		Summary:  *summary,
	}), nil
}
