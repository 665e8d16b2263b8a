// Package report writes elicitation progress reports.
package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/at-ishikawa/elicitor/internal/assets"
	"github.com/at-ishikawa/elicitor/internal/config"
	"github.com/at-ishikawa/elicitor/internal/export"
	"github.com/at-ishikawa/elicitor/internal/pdf"
)

// Source provides the data a report is built from.
type Source interface {
	ExportContents(ctx context.Context) (*export.Contents, error)
}

// Result lists the files written.
type Result struct {
	MarkdownPath string
	PDFPath      string
}

type Generator struct {
	source       Source
	templatePath string
	outputDir    string
	now          func() time.Time
}

func NewGenerator(source Source, templates config.TemplatesConfig, outputs config.OutputsConfig) *Generator {
	return &Generator{
		source:       source,
		templatePath: templates.ReportTemplate,
		outputDir:    outputs.ReportDirectory,
		now:          time.Now,
	}
}

// Build collects the report data without writing anything.
func (g *Generator) Build(ctx context.Context) (assets.ProgressReport, error) {
	contents, err := g.source.ExportContents(ctx)
	if err != nil {
		return assets.ProgressReport{}, fmt.Errorf("source.ExportContents() > %w", err)
	}

	stats := export.ComputeStats(contents.Entries)
	data := assets.ProgressReport{
		GeneratedAt:       g.now(),
		Total:             stats.Total,
		Completed:         stats.Completed,
		WithAudio:         stats.WithAudio,
		WithTranscription: stats.Transcribed,
		Remaining:         stats.Total - stats.Completed,
	}
	for _, e := range contents.Entries {
		if !e.IsCompleted {
			data.Pending = append(data.Pending, assets.ReportEntry{Reference: e.Reference, Gloss: e.Gloss})
		}
	}
	for _, clip := range contents.Clips {
		if len(clip.Data) == 0 {
			continue
		}
		data.AudioFiles++
		data.AudioBytes += uint64(len(clip.Data))
	}
	for _, c := range contents.Consents {
		data.Consents = append(data.Consents, assets.ReportConsent{
			Timestamp: c.Timestamp,
			DeviceID:  c.DeviceID,
			Type:      string(c.Type),
			Response:  string(c.Response),
		})
	}
	return data, nil
}

// Generate writes progress-YYYYMMDD-HHMMSS.md to the output directory and,
// when withPDF is set, a PDF next to it.
func (g *Generator) Generate(ctx context.Context, withPDF bool) (Result, error) {
	data, err := g.Build(ctx)
	if err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := assets.WriteProgressReport(&buf, g.templatePath, data); err != nil {
		return Result{}, fmt.Errorf("assets.WriteProgressReport() > %w", err)
	}

	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return Result{}, fmt.Errorf("os.MkdirAll(%s) > %w", g.outputDir, err)
	}
	name := fmt.Sprintf("progress-%s.md", data.GeneratedAt.Format("20060102-150405"))
	markdownPath, err := filepath.Abs(filepath.Join(g.outputDir, name))
	if err != nil {
		return Result{}, fmt.Errorf("filepath.Abs() > %w", err)
	}
	if err := os.WriteFile(markdownPath, buf.Bytes(), 0644); err != nil {
		return Result{}, fmt.Errorf("os.WriteFile(%s) > %w", markdownPath, err)
	}

	result := Result{MarkdownPath: markdownPath}
	if withPDF {
		pdfPath, err := pdf.ConvertMarkdownToPDF(markdownPath)
		if err != nil {
			return result, fmt.Errorf("pdf.ConvertMarkdownToPDF() > %w", err)
		}
		result.PDFPath = pdfPath
	}

	slog.Default().Info("wrote progress report",
		slog.String("markdown", result.MarkdownPath),
		slog.String("pdf", result.PDFPath),
	)
	return result, nil
}
