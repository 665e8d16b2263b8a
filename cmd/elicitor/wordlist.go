package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/elicitor/internal/datasync"
	"github.com/at-ishikawa/elicitor/internal/export"
	"github.com/at-ishikawa/elicitor/internal/remote"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

func newImportCommand() *cobra.Command {
	var dryRun bool
	var url string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the stored wordlist with an XML wordlist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (url == "") {
				return errors.New("pass either a file or --url")
			}
			ctx := cmd.Context()

			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			var data []byte
			if url != "" {
				fetcher := remote.NewFetcher(s.cfg.Remote)
				defer func() { _ = fetcher.Close() }()
				data, err = fetcher.Fetch(ctx, url)
				if err != nil {
					return fmt.Errorf("fetch wordlist: %w", err)
				}
			} else {
				data, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("os.ReadFile(%s) > %w", args[0], err)
				}
			}

			out := cmd.OutOrStdout()
			importer := datasync.NewImporter(s.entries, s.audio, out)
			result, err := importer.ImportWordlist(ctx, data, datasync.ImportOptions{DryRun: dryRun})
			if err != nil {
				return fmt.Errorf("import wordlist: %w", err)
			}

			fmt.Fprintln(out, "\nImport Summary:")
			if dryRun {
				fmt.Fprintln(out, "  (dry-run mode, no changes made)")
			}
			fmt.Fprintf(out, "  Encoding:  %s\n", result.Encoding)
			fmt.Fprintf(out, "  Entries:   %d new, %d replaced, %d completed\n", result.EntriesNew, result.EntriesReplaced, result.Completed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without modifying the database")
	cmd.Flags().StringVar(&url, "url", "", "Download the wordlist from this URL")
	return cmd
}

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [destination]",
		Short: "Write a ZIP package with the wordlist, audio and consent log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			dest := s.cfg.Export.Directory
			if len(args) == 1 {
				dest = args[0]
			}

			contents, err := s.service.ExportContents(ctx)
			if err != nil {
				return fmt.Errorf("collect export contents: %w", err)
			}
			summary, err := export.NewPackager(s.cfg.Export.AppVersion).WriteFile(ctx, dest, *contents)
			if err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %s (%s)\n", summary.Path, humanize.Bytes(uint64(summary.Bytes)))
			fmt.Fprintf(out, "  Entries:   %d total, %d completed, %d with audio, %d transcribed\n",
				summary.TotalEntries, summary.CompletedEntries, summary.EntriesWithAudio, summary.EntriesWithTranscription)
			fmt.Fprintf(out, "  Audio:     %d files\n", summary.AudioFilesIncluded)
			fmt.Fprintf(out, "  Consent:   %d records\n", summary.ConsentRecordsIncluded)
			return nil
		},
	}
}

func newXMLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "xml [destination]",
		Short: "Write the stored wordlist as a UTF-16LE XML document (\"-\" for stdout)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			dest := "wordlist.xml"
			if len(args) == 1 {
				dest = args[0]
			}

			data, err := s.service.RenderWordlist(ctx)
			if err != nil {
				return fmt.Errorf("render wordlist: %w", err)
			}
			if dest == "-" {
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return fmt.Errorf("write wordlist: %w", err)
				}
				return nil
			}
			if err := os.WriteFile(dest, data, 0644); err != nil {
				return fmt.Errorf("os.WriteFile(%s) > %w", dest, err)
			}

			absPath, err := filepath.Abs(dest)
			if err != nil {
				absPath = dest
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", absPath, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
}

func newFilenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "filename <reference> <gloss>",
		Short: "Print the audio filename generated for an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), wordlist.GenerateAudioFilename(args[0], args[1]))
			return nil
		},
	}
}
