package assets

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
)

const progressReportTemplateName = "progress-report.md.go.tmpl"

//go:embed templates/progress-report.md.go.tmpl
var fallbackProgressReportTemplate string

func ParseProgressReportTemplate(templatePath string) (*template.Template, error) {
	return parseTemplateWithFallback(templatePath, progressReportTemplateName, fallbackProgressReportTemplate)
}

func percent(part, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}

func parseTemplateWithFallback(templatePath string, fallbackName string, fallbackTemplate string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join":    strings.Join,
		"percent": percent,
		"bytes":   humanize.Bytes,
		"comma":   humanize.Comma,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackName).
		Funcs(funcMap).
		Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}
