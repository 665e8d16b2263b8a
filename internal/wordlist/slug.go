package wordlist

import "strings"

const maxSlugLength = 64

// SlugifyGloss derives a filename-safe token from a gloss: ASCII letters are
// lower-cased, spaces become dots, and anything outside [a-z0-9._-] is
// dropped. The result is cut to 64 characters.
//
// Non-ASCII letters are dropped rather than folded so that filenames of
// existing recordings stay stable.
func SlugifyGloss(gloss string) string {
	var b strings.Builder
	for _, r := range gloss {
		if b.Len() == maxSlugLength {
			break
		}
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ':
			b.WriteByte('.')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GenerateAudioFilename builds "{reference}_{slug}.wav" with the reference
// normalized by NormalizeReference.
func GenerateAudioFilename(reference, gloss string) string {
	return NormalizeReference(reference) + "_" + SlugifyGloss(gloss) + ".wav"
}
