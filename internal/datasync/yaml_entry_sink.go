package datasync

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/entry"
)

const (
	entriesFile = "entries.yml"
	consentFile = "consent.yml"
)

// YAMLEntrySink writes entry and consent records to YAML files.
type YAMLEntrySink struct {
	outputDir string
}

// NewYAMLEntrySink creates a new YAMLEntrySink.
func NewYAMLEntrySink(outputDir string) *YAMLEntrySink {
	return &YAMLEntrySink{outputDir: outputDir}
}

// WriteAll writes entries.yml and consent.yml.
func (s *YAMLEntrySink) WriteAll(records []entry.Record, consents []consent.Record) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if records == nil {
		records = []entry.Record{}
	}
	if err := writeYAML(filepath.Join(s.outputDir, entriesFile), records); err != nil {
		return fmt.Errorf("write %s: %w", entriesFile, err)
	}

	if consents == nil {
		consents = []consent.Record{}
	}
	if err := writeYAML(filepath.Join(s.outputDir, consentFile), consents); err != nil {
		return fmt.Errorf("write %s: %w", consentFile, err)
	}
	return nil
}

// YAMLEntrySource reads records written by YAMLEntrySink.
type YAMLEntrySource struct {
	inputDir string
}

// NewYAMLEntrySource creates a new YAMLEntrySource.
func NewYAMLEntrySource(inputDir string) *YAMLEntrySource {
	return &YAMLEntrySource{inputDir: inputDir}
}

// ReadAll reads entries.yml.
func (s *YAMLEntrySource) ReadAll() ([]entry.Record, error) {
	var records []entry.Record
	if err := readYAML(filepath.Join(s.inputDir, entriesFile), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadConsents reads consent.yml. ok is false when the backup has no
// consent.yml.
func (s *YAMLEntrySource) ReadConsents() (records []consent.Record, ok bool, err error) {
	path := filepath.Join(s.inputDir, consentFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err := readYAML(path, &records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func readYAML(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := yaml.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("yaml.Decode(%s) > %w", path, err)
	}
	return nil
}

func writeYAML(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := yaml.NewEncoder(f)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}
