package podcast

import (
	"strings"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry in a conversation transcript.
type ChatMessage struct {
	ID           string         `json:"id"`
	Role         Role           `json:"role"`
	Text         string         `json:"text"`
	Timestamp    time.Time      `json:"timestamp"`
	QuickReplies []string       `json:"quick_replies,omitempty"`
	Plan         *SeriesOutline `json:"plan,omitempty"`
}

// Clone returns a deep copy of the message.
func (m ChatMessage) Clone() ChatMessage {
	out := m
	out.QuickReplies = cloneStrings(m.QuickReplies)
	if m.Plan != nil {
		plan := m.Plan.Clone()
		out.Plan = &plan
	}
	return out
}

// EpisodePlanEntry describes one planned episode of a series.
type EpisodePlanEntry struct {
	Sequence  int      `json:"sequence"`
	Title     string   `json:"title"`
	Focus     string   `json:"focus"`
	KeyPoints []string `json:"key_points"`
}

// SeriesOutline is the planned structure of a series before generation.
type SeriesOutline struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Episodes    []EpisodePlanEntry `json:"episodes"`
}

// Clone returns a deep copy of the outline.
func (o SeriesOutline) Clone() SeriesOutline {
	out := SeriesOutline{Title: o.Title, Description: o.Description}
	out.Episodes = ClonePlan(o.Episodes)
	return out
}

// Len reports the number of planned episodes.
func (o SeriesOutline) Len() int {
	return len(o.Episodes)
}

// ClonePlan deep-copies a plan.
func ClonePlan(plan []EpisodePlanEntry) []EpisodePlanEntry {
	if plan == nil {
		return nil
	}
	out := make([]EpisodePlanEntry, len(plan))
	for i, entry := range plan {
		out[i] = entry
		out[i].KeyPoints = cloneStrings(entry.KeyPoints)
	}
	return out
}

// Renumber assigns contiguous 1-based sequence numbers by position.
func Renumber(plan []EpisodePlanEntry) []EpisodePlanEntry {
	for i := range plan {
		plan[i].Sequence = i + 1
	}
	return plan
}

// Format is the requested output shape.
type Format string

const (
	FormatSingle Format = "single"
	FormatSeries Format = "series"
)

// Depth is the requested level of detail.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// Tone is the requested narration register.
type Tone string

const (
	ToneConversational Tone = "conversational"
	ToneEducational    Tone = "educational"
	ToneStorytelling   Tone = "storytelling"
)

// Specificity records whether the user wants an overview or a narrow focus.
type Specificity string

const (
	SpecificityBroad    Specificity = "broad"
	SpecificitySpecific Specificity = "specific"
)

// DefaultVoice is used when no narration voice was chosen.
const DefaultVoice = "alloy"

// StyleForDepth maps a depth preference to the style tag stored on artifacts.
func StyleForDepth(depth Depth) string {
	switch depth {
	case DepthQuick:
		return "quick-take"
	case DepthDeep:
		return "deep-dive"
	default:
		return "explainer"
	}
}

// GenerationParams is the frozen output of a completed conversation.
type GenerationParams struct {
	Topic           string             `json:"topic"`
	IsSeries        bool               `json:"is_series"`
	Depth           Depth              `json:"depth"`
	Tone            Tone               `json:"tone"`
	Style           string             `json:"style"`
	Voice           string             `json:"voice"`
	Plan            []EpisodePlanEntry `json:"plan,omitempty"`
	ApprovedOutline *SeriesOutline     `json:"approved_outline,omitempty"`
}

// Clone returns a deep copy so the pipeline never shares state with callers.
func (p GenerationParams) Clone() GenerationParams {
	out := p
	out.Plan = ClonePlan(p.Plan)
	if p.ApprovedOutline != nil {
		outline := p.ApprovedOutline.Clone()
		out.ApprovedOutline = &outline
	}
	return out
}

// Normalized fills unset fields with their documented defaults.
func (p GenerationParams) Normalized() GenerationParams {
	out := p.Clone()
	out.Topic = strings.TrimSpace(out.Topic)
	if out.Depth == "" {
		out.Depth = DepthStandard
	}
	if out.Tone == "" {
		out.Tone = ToneConversational
	}
	if strings.TrimSpace(out.Style) == "" {
		out.Style = StyleForDepth(out.Depth)
	}
	if strings.TrimSpace(out.Voice) == "" {
		out.Voice = DefaultVoice
	}
	return out
}

// Podcast is a completed content artifact: a single episode or one episode of
// a series.
type Podcast struct {
	ID              string    `json:"id"`
	Topic           string    `json:"topic"`
	Title           string    `json:"title"`
	Script          string    `json:"script"`
	AudioRef        string    `json:"audio_ref"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	Sources         []string  `json:"sources"`
	Voice           string    `json:"voice"`
	Style           string    `json:"style"`
	Depth           Depth     `json:"depth"`
	Tone            Tone      `json:"tone"`
	SeriesID        string    `json:"series_id,omitempty"`
	EpisodeNumber   int       `json:"episode_number,omitempty"`
}

// Series groups the episodes produced from one outline.
type Series struct {
	ID                   string    `json:"id"`
	Topic                string    `json:"topic"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	EpisodeCount         int       `json:"episode_count"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	CoverColor           string    `json:"cover_color"`
	CreatedAt            time.Time `json:"created_at"`
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
