package wordlist

import (
	"math"
	"strings"
)

const referenceWidth = 4

// extractDigits keeps only the ASCII digits of s.
func extractDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// NormalizeReference returns the digits of s left-padded with zeros to four
// characters. Longer digit runs are returned whole, and a reference without
// digits becomes "0000".
func NormalizeReference(s string) string {
	return padReference(extractDigits(s))
}

func padReference(digits string) string {
	if len(digits) >= referenceWidth {
		return digits
	}
	return strings.Repeat("0", referenceWidth-len(digits)) + digits
}

// ParseReferenceNumeric returns the base-10 value of the digits of s, or 0
// when s has none. Values beyond the range of uint64 saturate at
// math.MaxUint64; ordering between such references is still exact because
// sorting goes through CompareReferences.
func ParseReferenceNumeric(s string) uint64 {
	var n uint64
	for _, c := range []byte(extractDigits(s)) {
		d := uint64(c - '0')
		if n > (math.MaxUint64-d)/10 {
			return math.MaxUint64
		}
		n = n*10 + d
	}
	return n
}

// CompareReferences orders two references by the numeric value of their
// digits, returning -1, 0 or +1. It agrees with ParseReferenceNumeric for
// every value that fits in a uint64 and stays exact for longer digit runs.
func CompareReferences(a, b string) int {
	da := strings.TrimLeft(extractDigits(a), "0")
	db := strings.TrimLeft(extractDigits(b), "0")
	if len(da) != len(db) {
		if len(da) < len(db) {
			return -1
		}
		return 1
	}
	return strings.Compare(da, db)
}
