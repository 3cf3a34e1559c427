package offline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"episodic/internal/podcast"
	"episodic/internal/services"
	"episodic/internal/stages"
)

// Researcher returns canned notes and citations.
type Researcher struct {
	Delay time.Duration
}

// NewResearcher constructs an offline researcher.
func NewResearcher(delay time.Duration) *Researcher {
	return &Researcher{Delay: delay}
}

// Research implements stages.Researcher.
func (r *Researcher) Research(ctx context.Context, query string) (stages.Research, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return stages.Research{}, services.Wrap(services.ErrValidation, stages.StageResearch, "research", "query required", nil)
	}
	if err := wait(ctx, r.Delay); err != nil {
		return stages.Research{}, err
	}
	notes := fmt.Sprintf("%s has a history worth telling. Early pioneers framed the core questions, "+
		"later practitioners turned them into everyday practice, and today %s keeps evolving as new "+
		"people bring fresh ideas and tools to it.", query, query)
	return stages.Research{
		Notes: notes,
		Sources: []string{
			fmt.Sprintf("Offline reference guide: %s", query),
			fmt.Sprintf("Offline timeline: %s", query),
			fmt.Sprintf("Offline glossary: %s", query),
		},
	}, nil
}

// Scripter returns a templated narration between 300 and 450 words.
type Scripter struct {
	Delay time.Duration
}

// NewScripter constructs an offline script writer.
func NewScripter(delay time.Duration) *Scripter {
	return &Scripter{Delay: delay}
}

var scriptTemplate = []string{
	"Welcome in, and thanks for pressing play.",
	"Today we are spending a few focused minutes with %[1]s, a subject that rewards a little curiosity.",
	"You may already know the headline version, but the full picture is richer and far more surprising.",
	"Let's start at the beginning, because every big idea grows out of a handful of small questions.",
	"People first paid attention to %[1]s because it solved a real problem they could not ignore.",
	"Those early efforts were messy, full of false starts, and driven by stubborn individuals who kept trying.",
	"Over time the scattered experiments settled into shared methods that others could learn and repeat.",
	"That is the moment a curiosity becomes a field, and it is where our story really picks up speed.",
	"Here is the first idea worth holding onto as we go.",
	"%[2]s",
	"Notice how that shapes everything that follows, from the vocabulary people use to the goals they chase.",
	"The second idea is about tension, because progress rarely moves in a straight line.",
	"Every generation working on %[1]s inherited old assumptions and had to decide which ones still held up.",
	"Some of those debates were settled quickly, while others are still argued about today with real passion.",
	"If you remember one thing from this part, let it be that disagreement is a sign of a living subject.",
	"Now for the third idea, which is the one that tends to stick with listeners long after the episode ends.",
	"The most interesting work around %[1]s happens where it meets other disciplines and everyday life.",
	"That crossover keeps the subject fresh, invites newcomers, and produces the breakthroughs people write about.",
	"It also means you do not need to be an expert to appreciate what is going on.",
	"A little context, a few good questions, and some patience will take you surprisingly far.",
	"So where does that leave us?",
	"We have seen how %[1]s began, how its core methods took shape, and why the arguments around it matter.",
	"We have also seen that its future depends on the people who keep showing up with new perspectives.",
	"If this sparked something for you, pick one detail from today and look into it a little further this week.",
	"Ask a friend what they know, read a short article, or simply notice where the subject appears around you.",
	"Small steps like that are exactly how the pioneers we talked about got started.",
	"Thanks for listening, and until next time, stay curious.",
}

// Script implements stages.Scripter.
func (s *Scripter) Script(ctx context.Context, req stages.ScriptRequest) (string, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return "", services.Wrap(services.ErrValidation, stages.StageScript, "script", "topic required", nil)
	}
	if err := wait(ctx, s.Delay); err != nil {
		return "", err
	}
	subject := topic
	highlight := fmt.Sprintf("At its heart, %s is about understanding how things work and why they matter to people.", topic)
	if req.Episode != nil {
		subject = req.Episode.Title
		if focus := strings.TrimSuffix(strings.TrimSpace(req.Episode.Focus), "."); focus != "" {
			highlight = fmt.Sprintf("In this episode the focus is %s, which is where the most revealing details live.", lowerFirst(focus))
		}
	}
	lines := make([]string, len(scriptTemplate))
	for i, line := range scriptTemplate {
		if strings.Contains(line, "%") {
			line = fmt.Sprintf(line, subject, highlight)
		}
		lines[i] = line
	}
	return stages.CapWords(strings.Join(lines, " "), stages.MaxScriptWords), nil
}

// Planner returns a fixed four-part outline. Replan feedback mentioning
// "shorter" yields three parts and "longer" or "more" yields five.
type Planner struct {
	Delay time.Duration
}

// NewPlanner constructs an offline planner.
func NewPlanner(delay time.Duration) *Planner {
	return &Planner{Delay: delay}
}

var plannedEpisodes = []struct {
	title string
	focus string
}{
	{"Origins", "Where %s came from and the problems it first set out to solve"},
	{"Building Blocks", "The core ideas and methods that give %s its shape"},
	{"Turning Points", "The debates and breakthroughs that changed how people approach %s"},
	{"Today and Tomorrow", "How %s shows up in everyday life and where it is heading"},
	{"Going Further", "Resources and habits for exploring %s on your own"},
}

// Plan implements stages.Planner.
func (p *Planner) Plan(ctx context.Context, topic string) (podcast.SeriesOutline, error) {
	return p.outline(ctx, topic, 4)
}

// Replan implements stages.Planner.
func (p *Planner) Replan(ctx context.Context, topic, feedback string) (podcast.SeriesOutline, error) {
	feedback = strings.ToLower(feedback)
	count := 4
	switch {
	case strings.Contains(feedback, "shorter"), strings.Contains(feedback, "fewer"):
		count = 3
	case strings.Contains(feedback, "longer"), strings.Contains(feedback, "more"):
		count = 5
	}
	return p.outline(ctx, topic, count)
}

func (p *Planner) outline(ctx context.Context, topic string, count int) (podcast.SeriesOutline, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return podcast.SeriesOutline{}, services.Wrap(services.ErrValidation, stages.StagePlanning, "plan", "topic required", nil)
	}
	if err := wait(ctx, p.Delay); err != nil {
		return podcast.SeriesOutline{}, err
	}
	outline := podcast.SeriesOutline{
		Title:       topic + ": A Listener's Guide",
		Description: fmt.Sprintf("A %d-part journey through %s, from first questions to current practice.", count, topic),
	}
	for i := 0; i < count; i++ {
		ep := plannedEpisodes[i]
		outline.Episodes = append(outline.Episodes, podcast.EpisodePlanEntry{
			Title: ep.title,
			Focus: fmt.Sprintf(ep.focus, topic),
			KeyPoints: []string{
				fmt.Sprintf("Key people behind %s", strings.ToLower(ep.title)),
				"A defining example",
				"What it means for listeners",
			},
		})
	}
	return stages.NormalizeOutline(outline, topic)
}

func lowerFirst(value string) string {
	r := []rune(value)
	if len(r) == 0 {
		return value
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
