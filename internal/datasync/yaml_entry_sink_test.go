package datasync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/entry"
)

func strPtr(s string) *string {
	return &s
}

func TestYAMLEntrySink_WriteAll(t *testing.T) {
	tests := []struct {
		name            string
		records         []entry.Record
		consents        []consent.Record
		wantEntriesYAML string
		wantConsentYAML string
	}{
		{
			name: "entries use snake_case field names and omit absent values",
			records: []entry.Record{
				{ID: 1, Reference: "0001", Gloss: "head", LocalTranscription: "kichwa", AudioFilename: strPtr("0001_head.wav"), IsCompleted: true},
				{ID: 2, Reference: "0002", Gloss: "eye"},
			},
			wantEntriesYAML: `- id: 1
  reference: "0001"
  gloss: head
  local_transcription: kichwa
  audio_filename: 0001_head.wav
  is_completed: true
- id: 2
  reference: "0002"
  gloss: eye
  local_transcription: ""
  is_completed: false
`,
			wantConsentYAML: "[]\n",
		},
		{
			name:            "no entries",
			records:         nil,
			wantEntriesYAML: "[]\n",
			wantConsentYAML: "[]\n",
		},
		{
			name:    "consent records are written next to entries",
			records: []entry.Record{{ID: 1, Reference: "0001", Gloss: "head"}},
			consents: []consent.Record{
				{ID: 1, Timestamp: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), DeviceID: "device-1", Type: consent.TypeWritten, Response: consent.ResponseAccept},
			},
			wantEntriesYAML: `- id: 1
  reference: "0001"
  gloss: head
  local_transcription: ""
  is_completed: false
`,
			wantConsentYAML: `- id: 1
  timestamp: 2025-03-01T09:30:00Z
  device_id: device-1
  type: written
  response: accept
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputDir := filepath.Join(t.TempDir(), "backup")
			sink := NewYAMLEntrySink(outputDir)

			require.NoError(t, sink.WriteAll(tt.records, tt.consents))

			got, err := os.ReadFile(filepath.Join(outputDir, "entries.yml"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantEntriesYAML, string(got))

			got, err = os.ReadFile(filepath.Join(outputDir, "consent.yml"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantConsentYAML, string(got))
		})
	}
}

func TestYAMLEntrySource_ReadAll(t *testing.T) {
	dir := t.TempDir()
	records := []entry.Record{
		{ID: 1, Reference: "0001", Gloss: "head", LocalTranscription: "kichwa", AudioFilename: strPtr("0001_head.wav"), RecordedAt: strPtr("2025-01-01T00:00:00Z"), IsCompleted: true},
		{ID: 2, Reference: "0002", Gloss: "eye", PictureFilename: strPtr("")},
	}
	require.NoError(t, NewYAMLEntrySink(dir).WriteAll(records, nil))

	got, err := NewYAMLEntrySource(dir).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestYAMLEntrySource_ReadAll_Missing(t *testing.T) {
	_, err := NewYAMLEntrySource(t.TempDir()).ReadAll()
	assert.Error(t, err)
}

func TestYAMLEntrySource_ReadConsents(t *testing.T) {
	consents := []consent.Record{
		{ID: 1, Timestamp: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), DeviceID: "device-1", Type: consent.TypeVerbal, Response: consent.ResponseAccept, VerbalConsentFilename: strPtr("consent_1.wav")},
	}

	t.Run("written by the sink", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, NewYAMLEntrySink(dir).WriteAll(nil, consents))

		got, ok, err := NewYAMLEntrySource(dir).ReadConsents()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, consents, got)
	})

	t.Run("empty list", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, NewYAMLEntrySink(dir).WriteAll(nil, nil))

		got, ok, err := NewYAMLEntrySource(dir).ReadConsents()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("backup without consent.yml", func(t *testing.T) {
		got, ok, err := NewYAMLEntrySource(t.TempDir()).ReadConsents()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "consent.yml"), []byte("- id: [\n"), 0644))

		_, _, err := NewYAMLEntrySource(dir).ReadConsents()
		assert.Error(t, err)
	})
}
