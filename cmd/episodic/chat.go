package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"episodic/internal/dialogue"
	"episodic/internal/podcast"
	"episodic/internal/services"
)

var errChatAborted = errors.New("conversation ended before generation")

func newChatCommand(ctx *commandContext) *cobra.Command {
	var voice string
	var noGenerate bool

	cmd := &cobra.Command{
		Use:   "chat [topic]",
		Short: "Talk through a topic and generate the podcast",
		Long: `Start a clarification dialogue for a topic, then generate a single episode
or an approved series. Type a quick reply number or free text; "quit" exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.stack()
			if err != nil {
				return err
			}
			if strings.TrimSpace(voice) == "" {
				voice = cfg.Narration.Voice
			}
			session := &chatSession{
				in:       bufio.NewScanner(cmd.InOrStdin()),
				out:      cmd.OutOrStdout(),
				colorize: shouldColorize(cmd.OutOrStdout()),
				conv:     st.engine.NewConversation(),
			}
			session.conv.SetVoice(voice)

			params, err := session.run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderParams(session.out, params)
			if noGenerate {
				return writeJSON(cmd, params)
			}
			for {
				result, err := ctx.generate(cmd, st, params, session.out)
				if err == nil {
					renderResult(session.out, result)
					return nil
				}
				var genErr *generationError
				if !errors.As(err, &genErr) || !genErr.retryable() {
					return err
				}
				fmt.Fprintf(session.out, "\n%s\n", err)
				answer, ok := session.prompt("Retry? [y/N]")
				if !ok || !isYes(answer) {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice (defaults to narration.voice)")
	cmd.Flags().BoolVar(&noGenerate, "params-only", false, "Print the generation parameters as JSON instead of generating")
	return cmd
}

// chatSession drives one conversation from line-oriented input.
type chatSession struct {
	in       *bufio.Scanner
	out      io.Writer
	colorize bool
	conv     *dialogue.Conversation
	last     podcast.ChatMessage
}

func (s *chatSession) run(ctx context.Context, topic string) (podcast.GenerationParams, error) {
	for {
		if strings.TrimSpace(topic) == "" {
			line, ok := s.prompt("What should your podcast be about?")
			if !ok {
				return podcast.GenerationParams{}, errChatAborted
			}
			topic = line
		}
		msg, err := s.conv.Start(ctx, topic)
		if err == nil {
			s.show(msg)
			break
		}
		if !s.recoverable(err) {
			return podcast.GenerationParams{}, err
		}
		if errors.Is(err, dialogue.ErrEmptyInput) {
			topic = ""
			continue
		}
		line, ok := s.prompt("Press Enter to try again, or type a new topic.")
		if !ok {
			return podcast.GenerationParams{}, errChatAborted
		}
		if line != "" {
			topic = line
		}
	}

	for {
		state := s.conv.State()
		switch state.Phase {
		case dialogue.PhaseReady:
			return s.conv.GenerationParams()
		case dialogue.PhaseApproval:
			params, done, err := s.approvalTurn(ctx)
			if err != nil {
				return podcast.GenerationParams{}, err
			}
			if done {
				return params, nil
			}
		default:
			line, ok := s.prompt("")
			if !ok {
				return podcast.GenerationParams{}, errChatAborted
			}
			msg, err := s.conv.Reply(ctx, s.resolve(line))
			if err != nil {
				if !s.recoverable(err) {
					return podcast.GenerationParams{}, err
				}
				continue
			}
			s.show(msg)
		}
	}
}

func (s *chatSession) approvalTurn(ctx context.Context) (podcast.GenerationParams, bool, error) {
	line, ok := s.prompt("")
	if !ok {
		return podcast.GenerationParams{}, false, errChatAborted
	}
	choice := strings.ToLower(s.resolve(line))
	switch {
	case choice == "approve" || choice == "a" || choice == "yes":
		params, err := s.conv.Approve()
		return params, err == nil, err
	case strings.HasPrefix(choice, "single"):
		params, err := s.conv.SwitchToSingle()
		return params, err == nil, err
	case choice == "modify" || choice == "m":
		feedback, ok := s.prompt("What should change?")
		if !ok {
			return podcast.GenerationParams{}, false, errChatAborted
		}
		line = feedback
	}
	fmt.Fprintln(s.out, "Updating the plan...")
	outline, err := s.conv.Modify(ctx, line)
	if err != nil {
		if !s.recoverable(err) {
			return podcast.GenerationParams{}, false, err
		}
		return podcast.GenerationParams{}, false, nil
	}
	if msg, ok := s.conv.State().LastMessage(); ok {
		s.show(msg)
	} else {
		fmt.Fprint(s.out, renderOutline(outline))
	}
	return podcast.GenerationParams{}, false, nil
}

// recoverable prints turn errors that leave the conversation usable.
func (s *chatSession) recoverable(err error) bool {
	switch {
	case errors.Is(err, dialogue.ErrEmptyInput):
		fmt.Fprintln(s.out, "Please type something first.")
		return true
	case errors.Is(err, dialogue.ErrBackend):
		if services.Classify(err) == services.KindConfiguration {
			return false
		}
		fmt.Fprintf(s.out, "%s\n", services.UserMessage(err))
		return true
	default:
		return false
	}
}

func (s *chatSession) show(msg podcast.ChatMessage) {
	s.last = msg
	renderAssistant(s.out, msg, s.colorize)
}

// resolve maps a quick reply number to its text.
func (s *chatSession) resolve(line string) string {
	line = strings.TrimSpace(line)
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(s.last.QuickReplies) {
		return s.last.QuickReplies[n-1]
	}
	return line
}

// prompt reads one line. It reports false at end of input or on quit.
func (s *chatSession) prompt(label string) (string, bool) {
	if label != "" {
		fmt.Fprintln(s.out, label)
	}
	fmt.Fprint(s.out, "> ")
	if !s.in.Scan() {
		return "", false
	}
	line := strings.TrimSpace(s.in.Text())
	switch strings.ToLower(line) {
	case "quit", "exit", "/quit":
		return "", false
	}
	return line, true
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
