package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/elicitor/internal/consent"
	"github.com/at-ishikawa/elicitor/internal/elicitation"
	"github.com/at-ishikawa/elicitor/internal/entry"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

type SortFlag string

// Set implements pflag.Value.
func (s *SortFlag) Set(v string) error {
	switch v {
	case string(SortByReference):
		*s = SortByReference
	case string(SortByID):
		*s = SortByID
	default:
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, SortByReference, SortByID)
	}
	return nil
}

// String implements pflag.Value.
func (s *SortFlag) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Type implements pflag.Value.
func (s *SortFlag) Type() string {
	return "SortFlag"
}

// choiceFlag accepts one of a fixed set of values.
type choiceFlag struct {
	value   string
	choices []string
}

func (c *choiceFlag) Set(v string) error {
	for _, choice := range c.choices {
		if v == choice {
			c.value = v
			return nil
		}
	}
	return fmt.Errorf("invalid value %q, valid values are %q", v, c.choices)
}

func (c *choiceFlag) String() string {
	return c.value
}

func (c *choiceFlag) Type() string {
	return "string"
}

var (
	_ pflag.Value = (*SortFlag)(nil)
	_ pflag.Value = (*choiceFlag)(nil)
)

const (
	SortByReference SortFlag = "ref"
	SortByID        SortFlag = "id"
)

func parseEntryID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", arg)
	}
	return id, nil
}

func newEntriesCommand() *cobra.Command {
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "List and transcribe entries",
	}

	sortFlag := SortByReference
	var pendingOnly bool
	var filter string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			records, err := s.service.Search(ctx, filter)
			if err != nil {
				return fmt.Errorf("list entries: %w", err)
			}
			if sortFlag == SortByID {
				sort.SliceStable(records, func(i, j int) bool {
					return records[i].ID < records[j].ID
				})
			}

			out := cmd.OutOrStdout()
			done := painter(out, color.FgGreen)
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				if pendingOnly && r.IsCompleted {
					continue
				}
				audioFile := ""
				if r.AudioFilename != nil {
					audioFile = *r.AudioFilename
				}
				status := ""
				if r.IsCompleted {
					status = done.Sprint("done")
				}
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10), r.Reference, r.Gloss, r.LocalTranscription, audioFile, status,
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Reference", "Gloss", "Transcription", "Audio", "Status"},
				rows,
				[]columnAlignment{alignRight, alignRight},
			))
			return nil
		},
	}
	listCmd.Flags().Var(&sortFlag, "sort", "Sort order for the output. Options: ref, id")
	listCmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only list entries that are not completed")
	listCmd.Flags().StringVar(&filter, "filter", "", "Only list entries whose reference or gloss contains this text")

	transcribeCmd := &cobra.Command{
		Use:   "transcribe <id> <text>",
		Short: "Save the local transcription of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			record, err := s.service.SaveTranscription(ctx, id, args[1])
			if err != nil {
				return fmt.Errorf("save transcription: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %q (completed: %t)\n",
				record.Reference, record.Gloss, record.LocalTranscription, record.IsCompleted)
			return nil
		},
	}

	var index int
	showCmd := &cobra.Command{
		Use:   "show [reference]",
		Short: "Show an entry by reference, or by position with --index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			byIndex := cmd.Flags().Changed("index")
			if byIndex == (len(args) == 1) {
				return errors.New("pass either a reference or --index")
			}
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if !byIndex {
				record, err := s.service.FindByReference(ctx, wordlist.NormalizeReference(args[0]))
				if err != nil {
					return fmt.Errorf("find entry: %w", err)
				}
				printEntry(cmd.OutOrStdout(), record)
				return nil
			}

			record, err := s.service.FindByIndex(ctx, index)
			if err != nil {
				return fmt.Errorf("find entry: %w", err)
			}
			if err := s.service.SetLastPosition(ctx, index); err != nil {
				return fmt.Errorf("save position: %w", err)
			}
			printEntry(cmd.OutOrStdout(), record)
			return nil
		},
	}
	showCmd.Flags().IntVar(&index, "index", 0, "0-based position in reference order; saved as the resume position")

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Show the entry at the saved position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			position, err := s.service.LastPosition(ctx)
			if err != nil {
				return fmt.Errorf("load position: %w", err)
			}
			record, err := s.service.FindByIndex(ctx, position)
			if err != nil {
				return fmt.Errorf("find entry: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Position:      %d\n", position)
			printEntry(out, record)
			return nil
		},
	}

	entriesCmd.AddCommand(listCmd, showCmd, resumeCmd, transcribeCmd)
	return entriesCmd
}

func printEntry(out io.Writer, record *entry.Record) {
	fmt.Fprintf(out, "ID:            %d\n", record.ID)
	fmt.Fprintf(out, "Reference:     %s\n", record.Reference)
	fmt.Fprintf(out, "Gloss:         %s\n", record.Gloss)
	fmt.Fprintf(out, "Transcription: %s\n", record.LocalTranscription)
	if record.AudioFilename != nil {
		fmt.Fprintf(out, "Audio:         %s\n", *record.AudioFilename)
	}
	if record.PictureFilename != nil {
		fmt.Fprintf(out, "Picture:       %s\n", *record.PictureFilename)
	}
	if record.RecordedAt != nil {
		fmt.Fprintf(out, "Recorded at:   %s\n", *record.RecordedAt)
	}
	fmt.Fprintf(out, "Completed:     %t\n", record.IsCompleted)
}

func newAudioCommand() *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Manage entry recordings",
	}

	attachCmd := &cobra.Command{
		Use:   "attach <id> <wav file>",
		Short: "Attach a recording to an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			wav, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("os.ReadFile(%s) > %w", args[1], err)
			}

			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			record, err := s.service.AttachAudio(ctx, id, wav, time.Now())
			if err != nil {
				return fmt.Errorf("attach audio: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) for %s %s\n",
				*record.AudioFilename, humanize.Bytes(uint64(len(wav))), record.Reference, record.Gloss)
			return nil
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save <id> <destination>",
		Short: "Write an entry's recording to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			clip, err := s.service.Audio(ctx, id)
			if err != nil {
				return fmt.Errorf("load audio: %w", err)
			}
			if clip == nil {
				return fmt.Errorf("entry %d has no recording", id)
			}
			if err := os.WriteFile(args[1], clip.Data, 0644); err != nil {
				return fmt.Errorf("os.WriteFile(%s) > %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", args[1], humanize.Bytes(uint64(len(clip.Data))))
			return nil
		},
	}

	audioCmd.AddCommand(attachCmd, saveCmd)
	return audioCmd
}

func newConsentCommand() *cobra.Command {
	consentCmd := &cobra.Command{
		Use:   "consent",
		Short: "Record speaker consent",
	}

	consentType := choiceFlag{value: string(consent.TypeVerbal), choices: []string{string(consent.TypeVerbal), string(consent.TypeWritten)}}
	response := choiceFlag{value: string(consent.ResponseAccept), choices: []string{string(consent.ResponseAccept), string(consent.ResponseDecline)}}
	var recording string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a consent record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			record, err := s.service.RecordConsent(ctx, elicitation.ConsentInput{
				Type:                  consent.Type(consentType.value),
				Response:              consent.Response(response.value),
				VerbalConsentFilename: recording,
			}, time.Now())
			if err != nil {
				return fmt.Errorf("record consent: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s consent (%s) for device %s\n", record.Type, record.Response, record.DeviceID)
			return nil
		},
	}
	addCmd.Flags().Var(&consentType, "type", "Consent type. Options: verbal, written")
	addCmd.Flags().Var(&response, "response", "Speaker response. Options: accept, decline")
	addCmd.Flags().StringVar(&recording, "recording", "", "Filename of the verbal consent recording")

	consentCmd.AddCommand(addCmd)
	return consentCmd
}

func newProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show elicitation progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			progress, err := s.service.Progress(ctx)
			if err != nil {
				return fmt.Errorf("load progress: %w", err)
			}

			completion := "0.0%"
			if progress.Total > 0 {
				completion = fmt.Sprintf("%.1f%%", float64(progress.Completed)*100/float64(progress.Total))
			}
			rows := [][]string{
				{"Total", humanize.Comma(int64(progress.Total))},
				{"Completed", humanize.Comma(int64(progress.Completed))},
				{"With audio", humanize.Comma(int64(progress.WithAudio))},
				{"Transcribed", humanize.Comma(int64(progress.WithTranscription))},
				{"Remaining", humanize.Comma(int64(progress.Remaining()))},
				{"Completion", completion},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
