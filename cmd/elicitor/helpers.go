package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-isatty"

	"github.com/at-ishikawa/elicitor/internal/audio"
	"github.com/at-ishikawa/elicitor/internal/config"
	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/database"
	"github.com/at-ishikawa/elicitor/internal/elicitation"
	"github.com/at-ishikawa/elicitor/internal/entry"
	"github.com/at-ishikawa/elicitor/internal/settings"
)

// stores bundles the opened database with its repositories.
type stores struct {
	cfg      *config.Config
	db       *sqlx.DB
	entries  *entry.DBRepository
	audio    *audio.DBRepository
	consent  *consent.DBRepository
	settings *settings.DBRepository
	service  *elicitation.Service
}

func openStores(ctx context.Context) (*stores, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	s := &stores{
		cfg:      cfg,
		db:       db,
		entries:  entry.NewDBRepository(db),
		audio:    audio.NewDBRepository(db),
		consent:  consent.NewDBRepository(db),
		settings: settings.NewDBRepository(db),
	}
	s.service = elicitation.NewService(s.entries, s.audio, s.consent, s.settings)
	return s, nil
}

func (s *stores) Close() error {
	return s.db.Close()
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// painter returns a color that only emits escape codes on terminals.
func painter(writer io.Writer, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if shouldColorize(writer) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
