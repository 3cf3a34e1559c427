package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"episodic/internal/config"
	"episodic/internal/playback"
	"episodic/internal/textutil"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List and preview narration voices",
	}
	cmd.AddCommand(newVoicesListCommand(ctx))
	cmd.AddCommand(newVoicesPreviewCommand(ctx))
	return cmd
}

func newVoicesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported narration voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(config.Voices()))
			for _, v := range config.Voices() {
				def := ""
				if strings.EqualFold(v, cfg.Narration.Voice) {
					def = "default"
				}
				rows = append(rows, []string{v, def})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Voice", ""}, rows, nil))
			return nil
		},
	}
}

func newVoicesPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		output string
		player string
		text   string
	)
	cmd := &cobra.Command{
		Use:   "preview <voice>",
		Short: "Render a short sample in a voice",
		Long: `Render a short sample in a voice. With --player the sample is played with
the given command and then discarded; otherwise it is saved to --output or the
audio directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			voice := strings.ToLower(strings.TrimSpace(args[0]))
			if !config.IsKnownVoice(voice) {
				return fmt.Errorf("unknown voice %q (see `episodic voices list`)", voice)
			}
			st, err := ctx.stack()
			if err != nil {
				return err
			}
			previewDir := filepath.Join(cfg.Paths.AudioDir, "previews")
			if err := os.MkdirAll(previewDir, 0o755); err != nil {
				return fmt.Errorf("create preview directory: %w", err)
			}
			handle, err := playback.Acquire(cmd.Context(), st.synth, playback.Request{
				Dir:    previewDir,
				Format: st.format,
				Voice:  voice,
				Text:   text,
			})
			if err != nil {
				return fmt.Errorf("render preview: %w", err)
			}
			defer handle.Release()

			if player = strings.TrimSpace(player); player != "" {
				path, err := handle.Path()
				if err != nil {
					return err
				}
				fields := strings.Fields(player)
				run := exec.CommandContext(cmd.Context(), fields[0], append(fields[1:], path)...)
				run.Stdout = cmd.OutOrStdout()
				run.Stderr = cmd.ErrOrStderr()
				if err := run.Run(); err != nil {
					return fmt.Errorf("play preview: %w", err)
				}
				return nil
			}

			dst := strings.TrimSpace(output)
			if dst == "" {
				dst = filepath.Join(cfg.Paths.AudioDir, "voice-"+textutil.Slug(voice)+"."+st.format)
			}
			kept, err := handle.Keep(dst)
			if err != nil {
				return fmt.Errorf("save preview: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), kept)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Where to save the sample")
	cmd.Flags().StringVar(&player, "player", "", "Command used to play the sample, for example \"ffplay -autoexit -nodisp\"")
	cmd.Flags().StringVar(&text, "text", "", "Custom sample text")
	return cmd
}
