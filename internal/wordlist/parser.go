package wordlist

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// byteOrderMark is U+FEFF as it appears in decoded text.
const byteOrderMark = "\uFEFF"

// entryElementNames are tried in order; the first name found anywhere below
// the root selects the candidate entries.
var entryElementNames = []string{"Word", "Entry", "Item", "word", "entry", "item", "data_form"}

type field int

const (
	fieldReference field = iota
	fieldGloss
	fieldPicture
	fieldTranscription
	fieldAudio
	fieldRecordedAt
)

// fieldNames lists the accepted child element names per field, first match wins.
var fieldNames = [...][]string{
	fieldReference:     {"Reference", "Ref", "Number", "reference", "ref", "number"},
	fieldGloss:         {"Gloss", "English", "Word", "gloss", "english", "word"},
	fieldPicture:       {"Picture", "Image", "picture", "image"},
	fieldTranscription: {"LocalTranscription", "local_transcription", "Transcription"},
	fieldAudio:         {"SoundFile", "sound_file", "Audio", "audio"},
	fieldRecordedAt:    {"RecordedAt", "recorded_at"},
}

// element is a minimal XML tree node. text holds the character data that
// precedes the first child element.
type element struct {
	name     string
	text     strings.Builder
	children []*element
}

// ReadWordlist decodes raw bytes and parses them. It returns ErrNoEntriesFound
// when the document is well-formed but holds no usable entry.
func ReadWordlist(data []byte) ([]Entry, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, err
	}
	entries, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntriesFound
	}
	slog.Default().Debug("parsed wordlist",
		slog.Int("bytes", len(data)),
		slog.Int("entries", len(entries)),
	)
	return entries, nil
}

// Parse extracts entries from a decoded XML document and returns them stably
// sorted by the numeric value of their references.
//
// Elements without a gloss are skipped. Elements without a reference are
// numbered by their 1-based position among the candidates. A single leading
// U+FEFF is ignored.
func Parse(text string) ([]Entry, error) {
	root, err := parseTree(strings.TrimPrefix(text, byteOrderMark))
	if err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}

	candidates := findEntryElements(root)
	entries := make([]Entry, 0, len(candidates))
	for i, el := range candidates {
		entry, ok := parseEntryElement(el, i)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return CompareReferences(entries[i].Reference, entries[j].Reference) < 0
	})
	return entries, nil
}

func parseEntryElement(el *element, index int) (Entry, bool) {
	gloss := el.fieldText(fieldGloss)
	if gloss == "" {
		return Entry{}, false
	}

	reference := el.fieldText(fieldReference)
	if reference == "" {
		reference = padReference(strconv.Itoa(index + 1))
	} else {
		reference = NormalizeReference(reference)
	}

	transcription := el.fieldText(fieldTranscription)
	audio := optional(el.fieldText(fieldAudio))
	return Entry{
		Reference:          reference,
		Gloss:              gloss,
		LocalTranscription: transcription,
		AudioFilename:      audio,
		PictureFilename:    optional(el.fieldText(fieldPicture)),
		RecordedAt:         optional(el.fieldText(fieldRecordedAt)),
		IsCompleted:        IsEntryCompleted(transcription, audio),
	}, true
}

func findEntryElements(root *element) []*element {
	for _, name := range entryElementNames {
		var found []*element
		for _, child := range root.children {
			child.collect(name, &found)
		}
		if len(found) > 0 {
			return found
		}
	}
	return root.children
}

// collect appends el and its descendants named name, in document order.
func (el *element) collect(name string, found *[]*element) {
	if el.name == name {
		*found = append(*found, el)
	}
	for _, child := range el.children {
		child.collect(name, found)
	}
}

// fieldText returns the trimmed text of the first direct child matching one
// of the field's names, skipping names whose child is missing or blank.
func (el *element) fieldText(f field) string {
	for _, name := range fieldNames[f] {
		child := el.firstChild(name)
		if child == nil {
			continue
		}
		if text := strings.TrimSpace(child.text.String()); text != "" {
			return text
		}
	}
	return ""
}

func (el *element) firstChild(name string) *element {
	for _, child := range el.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// parseTree builds an element tree. Namespaces are not resolved: elements are
// matched by local name only.
func parseTree(text string) (*element, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))
	// The text is already decoded, so a declared encoding such as UTF-16 is
	// informational only.
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root *element
	var stack []*element
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("junk after document element: <%s>", t.Name.Local)
			}
			el := &element{name: t.Name.Local}
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, errors.New("character data outside the document element")
				}
				continue
			}
			top := stack[len(stack)-1]
			if len(top.children) == 0 {
				top.text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no element found")
	}
	return root, nil
}
