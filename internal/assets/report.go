package assets

import (
	"fmt"
	"io"
	"time"
)

// ProgressReport is the data passed to the progress report template.
type ProgressReport struct {
	GeneratedAt       time.Time
	Total             int
	Completed         int
	WithAudio         int
	WithTranscription int
	Remaining         int
	AudioFiles        int
	AudioBytes        uint64
	Pending           []ReportEntry
	Consents          []ReportConsent
}

// ReportEntry is an entry that still needs work.
type ReportEntry struct {
	Reference string
	Gloss     string
}

type ReportConsent struct {
	Timestamp time.Time
	DeviceID  string
	Type      string
	Response  string
}

func WriteProgressReport(output io.Writer, templatePath string, templateData ProgressReport) error {
	tmpl, err := ParseProgressReportTemplate(templatePath)
	if err != nil {
		return fmt.Errorf("ParseProgressReportTemplate() > %w", err)
	}
	if err := tmpl.Execute(output, templateData); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}
