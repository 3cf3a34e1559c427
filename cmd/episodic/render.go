package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"episodic/internal/pipeline"
	"episodic/internal/podcast"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiDim    = "\x1b[2m"
)

const stageLabelWidth = 15

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func paint(colorize bool, color, value string) string {
	if !colorize || color == "" {
		return value
	}
	return color + value + ansiReset
}

// progressPrinter renders pipeline progress events, one line per event.
type progressPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *progressPrinter) OnProgress(ev podcast.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, renderProgressLine(ev, p.colorize))
}

func renderProgressLine(ev podcast.Progress, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %3.0f%% %-*s %s", ev.Fraction*100, stageLabelWidth, stageLabel(ev.Stage), ev.Message)
	if ev.TotalEpisodes > 0 && ev.EpisodeNumber > 0 {
		fmt.Fprintf(&b, " (episode %d of %d)", ev.EpisodeNumber, ev.TotalEpisodes)
	}
	return paint(colorize, stageColor(ev.Stage), b.String())
}

func stageLabel(stage podcast.Stage) string {
	switch stage {
	case podcast.StageCreatingAudio:
		return "creating audio"
	case "":
		return "working"
	default:
		return string(stage)
	}
}

func stageColor(stage podcast.Stage) string {
	switch stage {
	case podcast.StageDone:
		return ansiGreen
	case podcast.StageFailed:
		return ansiRed
	case podcast.StageCancelled:
		return ansiYellow
	default:
		return ansiBlue
	}
}

func renderAssistant(out io.Writer, msg podcast.ChatMessage, colorize bool) {
	fmt.Fprintf(out, "\n%s %s\n", paint(colorize, ansiGreen, "episodic>"), msg.Text)
	if msg.Plan != nil {
		fmt.Fprint(out, renderOutline(*msg.Plan))
	}
	for i, reply := range msg.QuickReplies {
		fmt.Fprintf(out, "  %s %s\n", paint(colorize, ansiDim, fmt.Sprintf("[%d]", i+1)), reply)
	}
}

func renderOutline(outline podcast.SeriesOutline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n", outline.Title)
	if desc := strings.TrimSpace(outline.Description); desc != "" {
		fmt.Fprintf(&b, "  %s\n", desc)
	}
	for _, ep := range outline.Episodes {
		fmt.Fprintf(&b, "  %d. %s\n", ep.Sequence, ep.Title)
		if focus := strings.TrimSpace(ep.Focus); focus != "" {
			fmt.Fprintf(&b, "     %s\n", focus)
		}
	}
	b.WriteString("\n")
	return b.String()
}

func renderParams(out io.Writer, params podcast.GenerationParams) {
	format := "single episode"
	if params.IsSeries && params.ApprovedOutline != nil {
		format = fmt.Sprintf("series (%d episodes)", params.ApprovedOutline.Len())
	} else if params.IsSeries {
		format = "series"
	}
	fmt.Fprintf(out, "\nTopic:  %s\nFormat: %s\nDepth:  %s\nTone:   %s\nVoice:  %s\n\n",
		params.Topic, format, params.Depth, params.Tone, params.Voice)
}

func renderResult(out io.Writer, result pipeline.Result) {
	if result.IsSeries() {
		fmt.Fprintf(out, "\nSeries ready: %s (%d episodes, %s)\n", result.Series.Title, len(result.Episodes), formatDuration(result.DurationSeconds()))
		for _, ep := range result.Episodes {
			fmt.Fprintf(out, "  %d. %s  %s\n", ep.EpisodeNumber, ep.Title, ep.AudioRef)
		}
		return
	}
	if result.Podcast != nil {
		fmt.Fprintf(out, "\nPodcast ready: %s (%s)\n  %s\n", result.Podcast.Title, formatDuration(result.Podcast.DurationSeconds), result.Podcast.AudioRef)
	}
}

func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}

type checkStatus int

const (
	statusOK checkStatus = iota
	statusWarn
	statusError
)

func renderCheck(label, message string, status checkStatus, colorize bool) string {
	var tag, color string
	switch status {
	case statusOK:
		tag, color = "OK", ansiGreen
	case statusWarn:
		tag, color = "WARN", ansiYellow
	default:
		tag, color = "ERROR", ansiRed
	}
	return paint(colorize, color, fmt.Sprintf("  %-20s [%s] %s", label+":", tag, message))
}
