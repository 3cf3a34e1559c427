package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"episodic/internal/fileutil"
	"episodic/internal/library"
	"episodic/internal/podcast"
	"episodic/internal/stages"
	"episodic/internal/textutil"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect generated podcasts and series",
	}
	cmd.AddCommand(newLibraryListCommand(ctx))
	cmd.AddCommand(newLibraryShowCommand(ctx))
	cmd.AddCommand(newLibraryExportCommand(ctx))
	cmd.AddCommand(newLibraryRemoveCommand(ctx))
	return cmd
}

type libraryListing struct {
	Podcasts []podcast.Podcast `json:"podcasts"`
	Series   []podcast.Series  `json:"series"`
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List podcasts and series, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				podcasts, err := store.ListPodcasts(cmd.Context())
				if err != nil {
					return err
				}
				series, err := store.ListSeries(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, libraryListing{Podcasts: podcasts, Series: series})
				}
				out := cmd.OutOrStdout()
				if len(podcasts) == 0 && len(series) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				if len(podcasts) > 0 {
					rows := make([][]string, 0, len(podcasts))
					for _, p := range podcasts {
						rows = append(rows, []string{p.ID, p.Title, p.Style, formatDuration(p.DurationSeconds), p.CreatedAt.Local().Format("2006-01-02 15:04")})
					}
					fmt.Fprintln(out, "Podcasts")
					fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Style", "Length", "Created"}, rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
				}
				if len(series) > 0 {
					rows := make([][]string, 0, len(series))
					for _, s := range series {
						rows = append(rows, []string{s.ID, s.Title, strconv.Itoa(s.EpisodeCount), formatDuration(s.TotalDurationSeconds), s.CreatedAt.Local().Format("2006-01-02 15:04")})
					}
					fmt.Fprintln(out, "Series")
					fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Episodes", "Length", "Created"}, rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

type libraryEntry struct {
	Podcast  *podcast.Podcast  `json:"podcast,omitempty"`
	Series   *podcast.Series   `json:"series,omitempty"`
	Episodes []podcast.Podcast `json:"episodes,omitempty"`
}

func lookupEntry(cmd *cobra.Command, store *library.Store, id string) (libraryEntry, error) {
	p, err := store.GetPodcast(cmd.Context(), id)
	if err != nil {
		return libraryEntry{}, err
	}
	if p != nil {
		return libraryEntry{Podcast: p}, nil
	}
	s, episodes, err := store.GetSeries(cmd.Context(), id)
	if err != nil {
		return libraryEntry{}, err
	}
	if s == nil {
		return libraryEntry{}, fmt.Errorf("no podcast or series with id %q", id)
	}
	return libraryEntry{Series: s, Episodes: episodes}, nil
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOut    bool
		withScript bool
		timings    bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a podcast or series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				entry, err := lookupEntry(cmd, store, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, entry)
				}
				out := cmd.OutOrStdout()
				if entry.Series != nil {
					s := entry.Series
					fmt.Fprintf(out, "%s\n%s\n\nTopic:    %s\nEpisodes: %d\nLength:   %s\nCover:    %s\n",
						s.Title, s.Description, s.Topic, s.EpisodeCount, formatDuration(s.TotalDurationSeconds), s.CoverColor)
					rows := make([][]string, 0, len(entry.Episodes))
					for _, ep := range entry.Episodes {
						rows = append(rows, []string{strconv.Itoa(ep.EpisodeNumber), ep.Title, formatDuration(ep.DurationSeconds), ep.AudioRef})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "Title", "Length", "Audio"}, rows,
						[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
					return nil
				}
				p := entry.Podcast
				fmt.Fprintf(out, "%s\n\nTopic:   %s\nStyle:   %s (%s, %s)\nVoice:   %s\nLength:  %s\nAudio:   %s\n",
					p.Title, p.Topic, p.Style, p.Depth, p.Tone, p.Voice, formatDuration(p.DurationSeconds), p.AudioRef)
				if len(p.Sources) > 0 {
					fmt.Fprintln(out, "Sources:")
					for _, src := range p.Sources {
						fmt.Fprintf(out, "  - %s\n", src)
					}
				}
				if timings {
					rows := [][]string{}
					for _, tm := range stages.SentenceTimings(p.Script, p.DurationSeconds) {
						rows = append(rows, []string{
							strconv.Itoa(tm.Index + 1),
							fmt.Sprintf("%.1f", tm.StartSeconds),
							fmt.Sprintf("%.1f", tm.EndSeconds),
							tm.Text,
						})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "Start", "End", "Sentence"}, rows,
						[]columnAlignment{alignRight, alignRight, alignRight, alignLeft}))
				}
				if withScript {
					fmt.Fprintf(out, "\n%s\n", p.Script)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&withScript, "script", false, "Print the narration script")
	cmd.Flags().BoolVar(&timings, "timings", false, "Print estimated sentence timings")
	return cmd
}

func newLibraryExportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id> <dir>",
		Short: "Copy the audio of a podcast or series into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := strings.TrimSpace(args[1])
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create export directory: %w", err)
			}
			return ctx.withLibrary(func(store *library.Store) error {
				entry, err := lookupEntry(cmd, store, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				items := entry.Episodes
				if entry.Podcast != nil {
					items = []podcast.Podcast{*entry.Podcast}
				}
				for _, item := range items {
					dst := filepath.Join(dir, exportName(item))
					if err := fileutil.CopyFileVerified(item.AudioRef, dst); err != nil {
						return fmt.Errorf("export %s: %w", item.ID, err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), dst)
				}
				return nil
			})
		},
	}
	return cmd
}

func exportName(p podcast.Podcast) string {
	base := textutil.Slug(p.Title)
	if p.EpisodeNumber > 0 {
		base = fmt.Sprintf("%02d-%s", p.EpisodeNumber, base)
	}
	return base + filepath.Ext(p.AudioRef)
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	var keepAudio bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a podcast or series and its audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withLibrary(func(store *library.Store) error {
				entry, err := lookupEntry(cmd, store, id)
				if err != nil {
					return err
				}
				if _, err := store.Remove(cmd.Context(), id); err != nil {
					return err
				}
				if !keepAudio {
					items := entry.Episodes
					if entry.Podcast != nil {
						items = []podcast.Podcast{*entry.Podcast}
					}
					for _, item := range items {
						if err := os.Remove(item.AudioRef); err != nil && !os.IsNotExist(err) {
							fmt.Fprintf(cmd.ErrOrStderr(), "warning: remove %s: %v\n", item.AudioRef, err)
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Keep the audio files on disk")
	return cmd
}
