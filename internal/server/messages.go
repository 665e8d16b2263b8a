package server

import (
	"github.com/at-ishikawa/elicitor/internal/entry"
	"github.com/at-ishikawa/elicitor/internal/export"
)

type Entry struct {
	ID                 int64   `json:"id"`
	Reference          string  `json:"reference"`
	Gloss              string  `json:"gloss"`
	LocalTranscription string  `json:"localTranscription"`
	AudioFilename      *string `json:"audioFilename,omitempty"`
	PictureFilename    *string `json:"pictureFilename,omitempty"`
	RecordedAt         *string `json:"recordedAt,omitempty"`
	IsCompleted        bool    `json:"isCompleted"`
}

func toEntry(r entry.Record) Entry {
	return Entry{
		ID:                 r.ID,
		Reference:          r.Reference,
		Gloss:              r.Gloss,
		LocalTranscription: r.LocalTranscription,
		AudioFilename:      r.AudioFilename,
		PictureFilename:    r.PictureFilename,
		RecordedAt:         r.RecordedAt,
		IsCompleted:        r.IsCompleted,
	}
}

type ListEntriesRequest struct {
	Filter      string `json:"filter" validate:"max=256"`
	PendingOnly bool   `json:"pendingOnly"`
}

type ListEntriesResponse struct {
	Entries []Entry `json:"entries"`
}

// JumpToEntryRequest selects an entry by reference or by 0-based index in
// reference order. Jumping by index saves it as the resume position.
type JumpToEntryRequest struct {
	Reference string `json:"reference" validate:"required_without=Index,excluded_with=Index,max=64"`
	Index     *int   `json:"index" validate:"omitempty,gte=0"`
}

type JumpToEntryResponse struct {
	Entry Entry `json:"entry"`
}

type SaveTranscriptionRequest struct {
	ID   int64  `json:"id" validate:"gt=0"`
	Text string `json:"text"`
}

type SaveTranscriptionResponse struct {
	Entry Entry `json:"entry"`
}

type AttachAudioRequest struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Audio []byte `json:"audio" validate:"required"`
}

type AttachAudioResponse struct {
	Entry Entry `json:"entry"`
}

type RecordConsentRequest struct {
	Type                  string `json:"type" validate:"oneof=verbal written"`
	Response              string `json:"response" validate:"oneof=accept decline"`
	VerbalConsentFilename string `json:"verbalConsentFilename" validate:"omitempty,max=255"`
}

type RecordConsentResponse struct {
	ID       int64  `json:"id"`
	DeviceID string `json:"deviceId"`
}

type GetProgressRequest struct{}

type GetProgressResponse struct {
	Total             int `json:"total"`
	Completed         int `json:"completed"`
	WithAudio         int `json:"withAudio"`
	WithTranscription int `json:"withTranscription"`
	Remaining         int `json:"remaining"`
	LastPosition      int `json:"lastPosition"`
}

// ImportWordlistRequest carries either the document bytes or a URL to fetch
// them from.
type ImportWordlistRequest struct {
	Data   []byte `json:"data" validate:"required_without=URL,excluded_with=URL"`
	URL    string `json:"url" validate:"omitempty,http_url"`
	DryRun bool   `json:"dryRun"`
}

type ImportWordlistResponse struct {
	Encoding        string `json:"encoding"`
	EntriesNew      int    `json:"entriesNew"`
	EntriesReplaced int    `json:"entriesReplaced"`
	Completed       int    `json:"completed"`
}

type ExportWordlistRequest struct{}

// ExportWordlistResponse holds the UTF-16LE document exactly as rendered.
type ExportWordlistResponse struct {
	XML   []byte       `json:"xml"`
	Stats export.Stats `json:"stats"`
}

type ExportArchiveRequest struct{}

type ExportArchiveResponse struct {
	Filename string         `json:"filename"`
	Archive  []byte         `json:"archive"`
	Summary  export.Summary `json:"summary"`
}
