package wordlist

import "strings"

// xmlEscaper replaces the five XML special characters. strings.Replacer makes
// a single pass, so an "&" it emits is never escaped again.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes text for use as XML character data.
func EscapeXML(text string) string {
	return xmlEscaper.Replace(text)
}
