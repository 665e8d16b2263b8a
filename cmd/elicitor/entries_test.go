package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortFlag_Set(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    SortFlag
		wantErr bool
	}{
		{name: "reference", value: "ref", want: SortByReference},
		{name: "id", value: "id", want: SortByID},
		{name: "invalid", value: "gloss", want: SortByReference, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortByReference
			err := got.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortFlag_String(t *testing.T) {
	var nilFlag *SortFlag
	assert.Equal(t, "", nilFlag.String())

	flag := SortByID
	assert.Equal(t, "id", flag.String())
	assert.Equal(t, "SortFlag", flag.Type())
}

func TestChoiceFlag(t *testing.T) {
	flag := choiceFlag{value: "verbal", choices: []string{"verbal", "written"}}

	require.NoError(t, flag.Set("written"))
	assert.Equal(t, "written", flag.String())

	assert.Error(t, flag.Set("telepathic"))
	assert.Equal(t, "written", flag.String())
}

func TestParseEntryID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{arg: "1", want: 1},
		{arg: "42", want: 42},
		{arg: "0", wantErr: true},
		{arg: "-3", wantErr: true},
		{arg: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseEntryID(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTable(t *testing.T) {
	assert.Equal(t, "", renderTable(nil, nil, nil))

	got := renderTable([]string{"ID", "Gloss"}, [][]string{{"1", "head"}, {"2"}}, []columnAlignment{alignRight})
	assert.Contains(t, got, "head")
	assert.Contains(t, got, "GLOSS")
}
