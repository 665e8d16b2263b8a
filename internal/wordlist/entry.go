// Package wordlist implements the wordlist interchange codec: a tolerant XML
// parser for the vocabularies used by elicitation tools, and a UTF-16LE
// serializer whose output carries exactly one byte order mark.
//
// Every function in this package is pure. Nothing is cached between calls,
// so the codec may be used from several goroutines at once.
package wordlist

// Entry is one word record of a wordlist.
//
// Optional fields are pointers: nil means the field is absent, which is a
// different state from a present empty string.
type Entry struct {
	Reference          string  `json:"reference" yaml:"reference"`
	Gloss              string  `json:"gloss" yaml:"gloss"`
	LocalTranscription string  `json:"local_transcription" yaml:"local_transcription"`
	AudioFilename      *string `json:"audio_filename,omitempty" yaml:"audio_filename,omitempty"`
	PictureFilename    *string `json:"picture_filename,omitempty" yaml:"picture_filename,omitempty"`
	RecordedAt         *string `json:"recorded_at,omitempty" yaml:"recorded_at,omitempty"`
	IsCompleted        bool    `json:"is_completed" yaml:"is_completed"`
}

// IsEntryCompleted reports whether an entry with the given transcription and
// audio filename counts as elicited.
func IsEntryCompleted(transcription string, audioFilename *string) bool {
	return transcription != "" || audioFilename != nil
}

// optional returns nil for an empty value.
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
