package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/elicitor/internal/datasync"
	"github.com/at-ishikawa/elicitor/internal/report"
)

func newReportCommand() *cobra.Command {
	var generatePDF bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown progress report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			result, err := report.NewGenerator(s.service, s.cfg.Templates, s.cfg.Outputs).Generate(ctx, generatePDF)
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Report: %s\n", result.MarkdownPath)
			if result.PDFPath != "" {
				fmt.Fprintf(out, "PDF:    %s\n", result.PDFPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&generatePDF, "pdf", false, "Also convert the report to PDF")
	return cmd
}

func newBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <directory>",
		Short: "Write entries and consent records as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			records, err := s.service.Entries(ctx)
			if err != nil {
				return fmt.Errorf("load entries: %w", err)
			}
			consents, err := s.consent.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("load consent records: %w", err)
			}
			if err := datasync.NewYAMLEntrySink(args[0]).WriteAll(records, consents); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d entries and %d consent records to %s\n", len(records), len(consents), args[0])
			return nil
		},
	}
}

func newRestoreCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "restore <directory>",
		Short: "Replace stored entries and consent records with a YAML backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := datasync.NewYAMLEntrySource(args[0])
			records, err := source.ReadAll()
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			consents, hasConsents, err := source.ReadConsents()
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}

			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			out := cmd.OutOrStdout()
			result, err := datasync.NewImporter(s.entries, s.audio, out).RestoreEntries(ctx, records, datasync.ImportOptions{DryRun: dryRun})
			if err != nil {
				return fmt.Errorf("restore entries: %w", err)
			}
			fmt.Fprintf(out, "Restored %d entries (%d replaced, %d completed)\n", result.EntriesNew, result.EntriesReplaced, result.Completed)

			if !hasConsents {
				fmt.Fprintln(out, "No consent records in backup, keeping stored records")
				return nil
			}
			restored, err := datasync.RestoreConsents(ctx, s.consent, consents, datasync.ImportOptions{DryRun: dryRun})
			if err != nil {
				return fmt.Errorf("restore consent records: %w", err)
			}
			fmt.Fprintf(out, "Restored %d consent records\n", restored)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without modifying the database")
	return cmd
}
