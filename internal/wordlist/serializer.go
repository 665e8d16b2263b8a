package wordlist

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-16"?>`
	rootElement    = "phon_data"
	entryElement   = "data_form"
)

// xmlDeclarationPrefixUTF16LE is "<?xml" encoded as UTF-16LE.
var xmlDeclarationPrefixUTF16LE = []byte{'<', 0, '?', 0, 'x', 0, 'm', 0, 'l', 0}

// Render serializes entries, in the given order, as a UTF-16LE XML document
// preceded by exactly one byte order mark. The result is checked before it is
// returned; a failed check means the serializer itself is broken and is
// reported as ErrSerializationInvariant.
func Render(entries []Entry) ([]byte, error) {
	body, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(RenderString(entries))
	if err != nil {
		return nil, fmt.Errorf("encode UTF-16LE: %w", err)
	}

	out := make([]byte, 0, len(bomUTF16LE)+len(body))
	out = append(out, bomUTF16LE...)
	out = append(out, body...)

	if err := ValidateBOM(out); err != nil {
		slog.Default().Error("rendered wordlist violates the BOM contract",
			slog.Int("entries", len(entries)),
			slog.Any("error", err),
		)
		return nil, err
	}
	return out, nil
}

// RenderString builds the XML document text that Render encodes.
func RenderString(entries []Entry) string {
	var b strings.Builder
	b.WriteString(xmlDeclaration + "\n<" + rootElement + ">\n")
	for _, entry := range entries {
		b.WriteString("  <" + entryElement + ">\n")
		writeElement(&b, "Reference", entry.Reference)
		writeElement(&b, "Gloss", entry.Gloss)
		if entry.LocalTranscription != "" {
			writeElement(&b, "LocalTranscription", entry.LocalTranscription)
		}
		if v := deref(entry.AudioFilename); v != "" {
			writeElement(&b, "SoundFile", v)
		}
		if v := deref(entry.PictureFilename); v != "" {
			writeElement(&b, "Picture", v)
		}
		if v := deref(entry.RecordedAt); v != "" {
			writeElement(&b, "RecordedAt", v)
		}
		b.WriteString("  </" + entryElement + ">\n")
	}
	b.WriteString("</" + rootElement + ">")
	return b.String()
}

// writeElement drops U+FEFF from the value: encoded, it would be a second BOM.
func writeElement(b *strings.Builder, name, value string) {
	value = strings.ReplaceAll(value, byteOrderMark, "")
	b.WriteString("    <" + name + ">" + EscapeXML(value) + "</" + name + ">\n")
}

// ValidateBOM checks that data starts with the UTF-16LE BOM, that the BOM
// byte pair does not occur again anywhere after it, and that "<?xml" follows
// it immediately.
func ValidateBOM(data []byte) error {
	if !bytes.HasPrefix(data, bomUTF16LE) {
		return &InvariantViolationError{Reason: "UTF-16LE BOM is missing"}
	}
	rest := data[len(bomUTF16LE):]
	if bytes.Contains(rest, bomUTF16LE) {
		return &InvariantViolationError{Reason: "UTF-16LE BOM appears more than once"}
	}
	if !bytes.HasPrefix(rest, xmlDeclarationPrefixUTF16LE) {
		return &InvariantViolationError{Reason: "XML declaration must immediately follow the BOM"}
	}
	return nil
}

// HasValidBOM reports whether ValidateBOM accepts data.
func HasValidBOM(data []byte) bool {
	return ValidateBOM(data) == nil
}
