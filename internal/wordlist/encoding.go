package wordlist

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Encoding names a text encoding recognised by DetectEncoding.
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF16LE Encoding = "utf-16-le"
	EncodingUTF16BE Encoding = "utf-16-be"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// DetectEncoding classifies data by its leading byte order mark and returns
// the encoding together with the number of BOM bytes to strip. Content is
// never sniffed: without a BOM the answer is UTF-8 with a zero-length BOM.
func DetectEncoding(data []byte) (Encoding, int) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE, len(bomUTF16LE)
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE, len(bomUTF16BE)
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8, len(bomUTF8)
	default:
		return EncodingUTF8, 0
	}
}

// Decode strips the BOM reported by DetectEncoding and decodes the remaining
// bytes. Invalid sequences are reported as a *DecodeError.
func Decode(data []byte) (string, error) {
	enc, bomLength := DetectEncoding(data)
	body := data[bomLength:]

	switch enc {
	case EncodingUTF16LE:
		return decodeUTF16(body, bomLength, enc, binary.LittleEndian, unicode.LittleEndian)
	case EncodingUTF16BE:
		return decodeUTF16(body, bomLength, enc, binary.BigEndian, unicode.BigEndian)
	default:
		if offset := invalidUTF8Offset(body); offset >= 0 {
			return "", &DecodeError{Encoding: enc, Offset: bomLength + offset, Reason: "invalid UTF-8 sequence"}
		}
		return string(body), nil
	}
}

func decodeUTF16(body []byte, bomLength int, enc Encoding, order binary.ByteOrder, endianness unicode.Endianness) (string, error) {
	if err := validateUTF16(body, order); err != nil {
		err.Encoding = enc
		err.Offset += bomLength
		return "", err
	}

	decoded, err := unicode.UTF16(endianness, unicode.IgnoreBOM).NewDecoder().Bytes(body)
	if err != nil {
		return "", &DecodeError{Encoding: enc, Offset: bomLength, Reason: err.Error()}
	}
	return string(decoded), nil
}

// validateUTF16 rejects truncated code units and unpaired surrogates, which the
// x/text decoder would otherwise replace with U+FFFD.
func validateUTF16(body []byte, order binary.ByteOrder) *DecodeError {
	if len(body)%2 != 0 {
		return &DecodeError{Offset: len(body) - 1, Reason: "truncated code unit"}
	}
	for i := 0; i < len(body); i += 2 {
		unit := rune(order.Uint16(body[i:]))
		if !utf16.IsSurrogate(unit) {
			continue
		}
		if unit >= 0xDC00 {
			return &DecodeError{Offset: i, Reason: fmt.Sprintf("unexpected low surrogate %#04x", unit)}
		}
		if i+2 >= len(body) {
			return &DecodeError{Offset: i, Reason: "unpaired high surrogate"}
		}
		next := rune(order.Uint16(body[i+2:]))
		if next < 0xDC00 || next > 0xDFFF {
			return &DecodeError{Offset: i, Reason: "unpaired high surrogate"}
		}
		i += 2
	}
	return nil
}

func invalidUTF8Offset(body []byte) int {
	for i := 0; i < len(body); {
		r, size := utf8.DecodeRune(body[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
