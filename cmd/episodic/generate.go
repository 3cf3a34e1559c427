package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"episodic/internal/config"
	"episodic/internal/podcast"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		series  bool
		depth   string
		tone    string
		voice   string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a podcast without the clarification dialogue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			params, err := paramsFromFlags(cfg, strings.Join(args, " "), series, depth, tone, voice)
			if err != nil {
				return err
			}
			st, err := ctx.stack()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				out = cmd.ErrOrStderr()
			}
			renderParams(out, params)
			result, err := ctx.generate(cmd, st, params, out)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			renderResult(out, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&series, "series", false, "Plan and generate a multi-episode series")
	cmd.Flags().StringVar(&depth, "depth", string(podcast.DepthStandard), "Depth: quick, standard, or deep")
	cmd.Flags().StringVar(&tone, "tone", string(podcast.ToneConversational), "Tone: conversational, educational, or storytelling")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice (defaults to narration.voice)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write the result as JSON; progress goes to stderr")
	return cmd
}

func paramsFromFlags(cfg *config.Config, topic string, series bool, depth, tone, voice string) (podcast.GenerationParams, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return podcast.GenerationParams{}, fmt.Errorf("topic is required")
	}
	d := podcast.Depth(strings.ToLower(strings.TrimSpace(depth)))
	switch d {
	case podcast.DepthQuick, podcast.DepthStandard, podcast.DepthDeep:
	default:
		return podcast.GenerationParams{}, fmt.Errorf("unknown depth %q", depth)
	}
	t := podcast.Tone(strings.ToLower(strings.TrimSpace(tone)))
	switch t {
	case podcast.ToneConversational, podcast.ToneEducational, podcast.ToneStorytelling:
	default:
		return podcast.GenerationParams{}, fmt.Errorf("unknown tone %q", tone)
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = cfg.Narration.Voice
	}
	if !config.IsKnownVoice(voice) {
		return podcast.GenerationParams{}, fmt.Errorf("unknown voice %q (see `episodic voices list`)", voice)
	}
	return podcast.GenerationParams{
		Topic:    topic,
		IsSeries: series,
		Depth:    d,
		Tone:     t,
		Voice:    strings.ToLower(voice),
	}.Normalized(), nil
}
