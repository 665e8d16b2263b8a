package wordlist

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func glosses(entries []Entry) []string {
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Gloss
	}
	return result
}

func references(entries []Entry) []string {
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Reference
	}
	return result
}

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		xml            string
		wantGlosses    []string
		wantReferences []string
	}{
		{
			name: "sorts by numeric reference",
			xml: `<?xml version="1.0"?>
<Wordlist>
	<Word><Reference>0003</Reference><Gloss>third</Gloss></Word>
	<Word><Reference>0001</Reference><Gloss>first</Gloss></Word>
	<Word><Reference>0002</Reference><Gloss>second</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"first", "second", "third"},
			wantReferences: []string{"0001", "0002", "0003"},
		},
		{
			name: "mixed padding sorts numerically",
			xml: `<Wordlist>
	<Word><Reference>10</Reference><Gloss>ten</Gloss></Word>
	<Word><Reference>0002</Reference><Gloss>two</Gloss></Word>
	<Word><Reference>1</Reference><Gloss>one</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"one", "two", "ten"},
			wantReferences: []string{"0001", "0002", "0010"},
		},
		{
			name: "large numbers",
			xml: `<Wordlist>
	<Word><Reference>1000</Reference><Gloss>thousand</Gloss></Word>
	<Word><Reference>100</Reference><Gloss>hundred</Gloss></Word>
	<Word><Reference>12345</Reference><Gloss>big</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"hundred", "thousand", "big"},
			wantReferences: []string{"0100", "1000", "12345"},
		},
		{
			name: "missing references are numbered by position",
			xml: `<Wordlist>
	<Word><Gloss>no-ref-1</Gloss></Word>
	<Word><Gloss>no-ref-2</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"no-ref-1", "no-ref-2"},
			wantReferences: []string{"0001", "0002"},
		},
		{
			name: "positional numbering counts dropped candidates",
			xml: `<Wordlist>
	<Word><Reference>9</Reference></Word>
	<Word><Gloss>second</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"second"},
			wantReferences: []string{"0002"},
		},
		{
			name: "duplicate references kept in document order",
			xml: `<Wordlist>
	<Word><Reference>0002</Reference><Gloss>second</Gloss></Word>
	<Word><Reference>0001</Reference><Gloss>first</Gloss></Word>
	<Word><Reference>1</Reference><Gloss>also-first</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"first", "also-first", "second"},
			wantReferences: []string{"0001", "0001", "0002"},
		},
		{
			name: "entries without gloss are dropped",
			xml: `<Wordlist>
	<Word><Reference>1</Reference><Gloss>valid</Gloss></Word>
	<Word><Reference>2</Reference></Word>
	<Word><Reference>3</Reference><Gloss>also-valid</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"valid", "also-valid"},
			wantReferences: []string{"0001", "0003"},
		},
		{
			name: "phon_data vocabulary",
			xml: `<?xml version="1.0" encoding="UTF-16"?>
<phon_data>
	<data_form><Reference>3</Reference><Gloss>three</Gloss></data_form>
	<data_form><Reference>1</Reference><Gloss>one</Gloss></data_form>
	<data_form><Reference>2</Reference><Gloss>two</Gloss></data_form>
</phon_data>`,
			wantGlosses:    []string{"one", "two", "three"},
			wantReferences: []string{"0001", "0002", "0003"},
		},
		{
			name: "lowercase vocabulary with alternative field names",
			xml: `<list>
	<entry><number>2</number><english>fire</english></entry>
	<entry><ref>1</ref><gloss>water</gloss></entry>
</list>`,
			wantGlosses:    []string{"water", "fire"},
			wantReferences: []string{"0001", "0002"},
		},
		{
			name: "entry elements found at any depth",
			xml: `<Wordlist>
	<Section><Item><Ref>5</Ref><Gloss>deep</Gloss></Item></Section>
	<Item><Ref>4</Ref><Gloss>shallow</Gloss></Item>
</Wordlist>`,
			wantGlosses:    []string{"shallow", "deep"},
			wantReferences: []string{"0004", "0005"},
		},
		{
			name: "falls back to root children",
			xml: `<Lexicon>
	<row><Gloss>alpha</Gloss></row>
	<row><Reference>7</Reference><English>beta</English></row>
</Lexicon>`,
			wantGlosses:    []string{"alpha", "beta"},
			wantReferences: []string{"0001", "0007"},
		},
		{
			name: "Word as entry name wins over Word as gloss field",
			xml: `<Entries>
	<Entry><Reference>1</Reference><Word>dog</Word></Entry>
</Entries>`,
			wantGlosses:    []string{},
			wantReferences: []string{},
		},
		{
			name: "references without digits sort first",
			xml: `<Wordlist>
	<Word><Reference>2</Reference><Gloss>two</Gloss></Word>
	<Word><Reference>n/a</Reference><Gloss>unknown</Gloss></Word>
	<Word><Reference>ref-7</Reference><Gloss>seven</Gloss></Word>
</Wordlist>`,
			wantGlosses:    []string{"unknown", "two", "seven"},
			wantReferences: []string{"0000", "0002", "0007"},
		},
		{
			name:           "empty wordlist",
			xml:            `<?xml version="1.0"?><Wordlist></Wordlist>`,
			wantGlosses:    []string{},
			wantReferences: []string{},
		},
		{
			name: "unknown fields and comments are ignored",
			xml: `<Wordlist>
	<!-- exported by a field tool -->
	<Word><Reference>1</Reference><Gloss>sun</Gloss><PartOfSpeech>n</PartOfSpeech></Word>
</Wordlist>`,
			wantGlosses:    []string{"sun"},
			wantReferences: []string{"0001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.xml)
			require.NoError(t, err)
			assert.Equal(t, tt.wantGlosses, glosses(got))
			assert.Equal(t, tt.wantReferences, references(got))
		})
	}
}

func TestParse_Fields(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want Entry
	}{
		{
			name: "all fields",
			xml: `<Wordlist><Word>
	<Reference>12</Reference>
	<Gloss>  head  </Gloss>
	<LocalTranscription>kichwa</LocalTranscription>
	<SoundFile>0012_head.wav</SoundFile>
	<Picture>head.png</Picture>
	<RecordedAt>2025-01-01T00:00:00Z</RecordedAt>
</Word></Wordlist>`,
			want: Entry{
				Reference:          "0012",
				Gloss:              "head",
				LocalTranscription: "kichwa",
				AudioFilename:      ptr("0012_head.wav"),
				PictureFilename:    ptr("head.png"),
				RecordedAt:         ptr("2025-01-01T00:00:00Z"),
				IsCompleted:        true,
			},
		},
		{
			name: "optional fields absent",
			xml:  `<Wordlist><Word><Reference>1</Reference><Gloss>body</Gloss></Word></Wordlist>`,
			want: Entry{Reference: "0001", Gloss: "body"},
		},
		{
			name: "blank field falls through to the next name",
			xml: `<Wordlist><Word>
	<Reference>1</Reference>
	<Gloss>   </Gloss>
	<English>water</English>
	<Image>water.jpg</Image>
</Word></Wordlist>`,
			want: Entry{Reference: "0001", Gloss: "water", PictureFilename: ptr("water.jpg")},
		},
		{
			name: "transcription alone completes the entry",
			xml:  `<Wordlist><Word><Ref>1</Ref><Gloss>eye</Gloss><Transcription>jicho</Transcription></Word></Wordlist>`,
			want: Entry{Reference: "0001", Gloss: "eye", LocalTranscription: "jicho", IsCompleted: true},
		},
		{
			name: "audio alone completes the entry",
			xml:  `<Wordlist><Word><Ref>1</Ref><Gloss>eye</Gloss><audio>0001_eye.wav</audio></Word></Wordlist>`,
			want: Entry{Reference: "0001", Gloss: "eye", AudioFilename: ptr("0001_eye.wav"), IsCompleted: true},
		},
		{
			name: "escaped characters are decoded",
			xml:  `<Wordlist><Word><Ref>1</Ref><Gloss>salt &amp; &lt;pepper&gt; &quot;x&quot; &apos;y&apos;</Gloss></Word></Wordlist>`,
			want: Entry{Reference: "0001", Gloss: `salt & <pepper> "x" 'y'`},
		},
		{
			name: "CDATA counts as text",
			xml:  `<Wordlist><Word><Ref>1</Ref><Gloss><![CDATA[a < b]]></Gloss></Word></Wordlist>`,
			want: Entry{Reference: "0001", Gloss: "a < b"},
		},
		{
			name: "only text before the first child is read",
			xml:  `<Wordlist><Word><Ref>1</Ref><Gloss><b>bold</b>tail</Gloss><English>fallback</English></Word></Wordlist>`,
			want: Entry{Reference: "0001", Gloss: "fallback"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.xml)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{name: "empty document", xml: ""},
		{name: "whitespace only", xml: "   \n"},
		{name: "unclosed element", xml: "<Wordlist><Word>"},
		{name: "mismatched tags", xml: "<Wordlist><Word></Entry></Wordlist>"},
		{name: "two document elements", xml: "<a/><b/>"},
		{name: "text after document element", xml: "<a/>trailing"},
		{name: "undefined entity", xml: "<Wordlist><Word><Gloss>&nbsp;</Gloss></Word></Wordlist>"},
		{name: "invalid character", xml: "<Wordlist>\x01</Wordlist>"},
		{name: "two leading byte order marks", xml: "\uFEFF\uFEFF<Wordlist><Word><Gloss>a</Gloss></Word></Wordlist>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.xml)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrMalformedDocument)

			var malformed *MalformedDocumentError
			require.ErrorAs(t, err, &malformed)
			assert.NotEmpty(t, malformed.Err.Error())
		})
	}
}

func TestParse_LeadingByteOrderMark(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{name: "before the document element", xml: "\uFEFF<Wordlist><Word><Reference>1</Reference><Gloss>head</Gloss></Word></Wordlist>"},
		{name: "before the declaration", xml: "\uFEFF<?xml version=\"1.0\"?><Wordlist><Word><Reference>1</Reference><Gloss>head</Gloss></Word></Wordlist>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.xml)
			require.NoError(t, err)
			assert.Equal(t, []Entry{{Reference: "0001", Gloss: "head"}}, got)
		})
	}
}

func TestReadWordlist_DoubleByteOrderMark(t *testing.T) {
	data := withPrefix([]byte{0xFF, 0xFE, 0xFF, 0xFE}, encodeUTF16("<Wordlist><Word><Gloss>head</Gloss></Word></Wordlist>", binary.LittleEndian))

	got, err := ReadWordlist(data)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Reference: "0001", Gloss: "head"}}, got)
}

func TestReadWordlist(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="UTF-16"?>
<phon_data>
	<data_form><Reference>2</Reference><Gloss>tongue</Gloss></data_form>
	<data_form><Reference>1</Reference><Gloss>mouth</Gloss></data_form>
</phon_data>`

	tests := []struct {
		name        string
		data        []byte
		wantGlosses []string
		wantErr     error
	}{
		{
			name:        "UTF-16LE with BOM",
			data:        withPrefix([]byte{0xFF, 0xFE}, encodeUTF16(doc, binary.LittleEndian)),
			wantGlosses: []string{"mouth", "tongue"},
		},
		{
			name:        "UTF-16BE with BOM",
			data:        withPrefix([]byte{0xFE, 0xFF}, encodeUTF16(doc, binary.BigEndian)),
			wantGlosses: []string{"mouth", "tongue"},
		},
		{
			name:        "UTF-8 with BOM",
			data:        withPrefix([]byte{0xEF, 0xBB, 0xBF}, []byte(doc)),
			wantGlosses: []string{"mouth", "tongue"},
		},
		{
			name:    "no entries",
			data:    []byte(`<Wordlist><Word><Reference>1</Reference></Word></Wordlist>`),
			wantErr: ErrNoEntriesFound,
		},
		{
			name:    "malformed",
			data:    []byte(`<Wordlist>`),
			wantErr: ErrMalformedDocument,
		},
		{
			name:    "undecodable",
			data:    []byte{0xFF, 0xFE, '<'},
			wantErr: ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadWordlist(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGlosses, glosses(got))
		})
	}
}
