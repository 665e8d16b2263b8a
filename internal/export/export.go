// Package export packages a session into a ZIP archive.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/at-ishikawa/elicitor/internal/audio"
	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

const (
	WordlistName = "wordlist.xml"
	AudioDir     = "audio/"
	ConsentName  = "consent_log.json"
	MetadataName = "metadata.json"

	compressionLevel = 6
	// isoMicros matches the timestamps other tools write into metadata.json.
	isoMicros = "2006-01-02T15:04:05.000000Z"
)

// Contents is everything that goes into an archive.
type Contents struct {
	Entries  []wordlist.Entry
	Clips    []audio.Clip
	Consents []consent.Record
}

// Stats are the export preview counters.
type Stats struct {
	Total       int `json:"total"`
	Completed   int `json:"completed"`
	WithAudio   int `json:"withAudio"`
	Transcribed int `json:"transcribed"`
}

// ComputeStats counts entries for an export preview.
func ComputeStats(entries []wordlist.Entry) Stats {
	stats := Stats{Total: len(entries)}
	for _, e := range entries {
		if e.IsCompleted {
			stats.Completed++
		}
		if e.AudioFilename != nil && *e.AudioFilename != "" {
			stats.WithAudio++
		}
		if e.LocalTranscription != "" {
			stats.Transcribed++
		}
	}
	return stats
}

// Summary describes a written archive.
type Summary struct {
	Path                     string `json:"path,omitempty"`
	Bytes                    int64  `json:"bytes"`
	TotalEntries             int    `json:"total_entries"`
	CompletedEntries         int    `json:"completed_entries"`
	EntriesWithAudio         int    `json:"entries_with_audio"`
	EntriesWithTranscription int    `json:"entries_with_transcription"`
	AudioFilesIncluded       int    `json:"audio_files_included"`
	ConsentRecordsIncluded   int    `json:"consent_records_included"`
}

type metadata struct {
	ExportedAt               string `json:"exportedAt"`
	AppVersion               string `json:"appVersion"`
	TotalEntries             int    `json:"totalEntries"`
	CompletedEntries         int    `json:"completedEntries"`
	EntriesWithAudio         int    `json:"entriesWithAudio"`
	EntriesWithTranscription int    `json:"entriesWithTranscription"`
}

type consentLog struct {
	GeneratedAt string           `json:"generatedAt"`
	Records     []consent.Record `json:"records"`
}

// Packager builds export archives.
type Packager struct {
	appVersion string
	now        func() time.Time
}

// NewPackager creates a Packager that stamps archives with appVersion.
func NewPackager(appVersion string) *Packager {
	return &Packager{appVersion: appVersion, now: time.Now}
}

// DefaultFilename returns the archive name used when no destination is given.
func DefaultFilename(now time.Time) string {
	return "wordlist_export_" + now.Format("20060102_150405") + ".zip"
}

// Build writes the archive to w. wordlist.xml holds the exact bytes produced
// by wordlist.Render; audio payloads are copied verbatim.
func (p *Packager) Build(w io.Writer, contents Contents) (*Summary, error) {
	xmlData, err := wordlist.Render(contents.Entries)
	if err != nil {
		return nil, fmt.Errorf("wordlist.Render() > %w", err)
	}

	counter := &countingWriter{w: w}
	zw := zip.NewWriter(counter)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	now := p.now()
	if err := writeZipFile(zw, WordlistName, xmlData, now); err != nil {
		return nil, err
	}

	stats := ComputeStats(contents.Entries)
	summary := &Summary{
		TotalEntries:             stats.Total,
		CompletedEntries:         stats.Completed,
		EntriesWithAudio:         stats.WithAudio,
		EntriesWithTranscription: stats.Transcribed,
		ConsentRecordsIncluded:   len(contents.Consents),
	}

	for _, clip := range contents.Clips {
		if len(clip.Data) == 0 {
			continue
		}
		if !validClipName(clip.Filename) {
			slog.Default().Warn("skipping audio clip with unsafe name", slog.String("filename", clip.Filename))
			continue
		}
		if err := writeZipFile(zw, AudioDir+clip.Filename, clip.Data, now); err != nil {
			return nil, err
		}
		summary.AudioFilesIncluded++
	}

	stamp := now.UTC().Format(isoMicros)
	if len(contents.Consents) > 0 {
		data, err := json.MarshalIndent(consentLog{GeneratedAt: stamp, Records: contents.Consents}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json.MarshalIndent(consent) > %w", err)
		}
		if err := writeZipFile(zw, ConsentName, data, now); err != nil {
			return nil, err
		}
	}

	data, err := json.MarshalIndent(metadata{
		ExportedAt:               stamp,
		AppVersion:               p.appVersion,
		TotalEntries:             stats.Total,
		CompletedEntries:         stats.Completed,
		EntriesWithAudio:         stats.WithAudio,
		EntriesWithTranscription: stats.Transcribed,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent(metadata) > %w", err)
	}
	if err := writeZipFile(zw, MetadataName, data, now); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip.Close() > %w", err)
	}
	summary.Bytes = counter.n
	return summary, nil
}

// WriteFile builds the archive at dest. An empty dest or a directory gets the
// default timestamped name, and ".zip" is appended when missing. The file is
// written next to its destination and renamed into place, so a failed export
// never leaves a partial archive behind.
func (p *Packager) WriteFile(ctx context.Context, dest string, contents Contents) (*Summary, error) {
	path, err := p.resolvePath(dest)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".wordlist_export_*.tmp")
	if err != nil {
		return nil, fmt.Errorf("os.CreateTemp() > %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	summary, err := p.Build(tmp, contents)
	if err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, fmt.Errorf("os.Rename(%s) > %w", path, err)
	}

	summary.Path = path
	slog.Default().Info("exported wordlist",
		slog.String("path", path),
		slog.Int("entries", summary.TotalEntries),
		slog.Int("audio_files", summary.AudioFilesIncluded),
		slog.Int64("bytes", summary.Bytes),
	)
	return summary, nil
}

func (p *Packager) resolvePath(dest string) (string, error) {
	if dest == "" {
		dest = DefaultFilename(p.now())
	} else if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, DefaultFilename(p.now()))
	}
	if !strings.HasSuffix(dest, ".zip") {
		dest += ".zip"
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("filepath.Abs(%s) > %w", dest, err)
	}
	return abs, nil
}

func writeZipFile(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("zip.CreateHeader(%s) > %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func validClipName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
