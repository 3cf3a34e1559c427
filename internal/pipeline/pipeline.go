package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"episodic/internal/logging"
	"episodic/internal/podcast"
	"episodic/internal/progress"
	"episodic/internal/services"
	"episodic/internal/stages"
)

// CoverPalette lists the series cover colours.
var CoverPalette = []string{
	"#E76F51", "#F4A261", "#E9C46A", "#2A9D8F", "#264653",
	"#8E7DBE", "#5E60CE", "#48BFE3", "#D62828", "#6A994E",
}

// Result is a finished generation: either Podcast or Series with Episodes.
type Result struct {
	Podcast  *podcast.Podcast  `json:"podcast,omitempty"`
	Series   *podcast.Series   `json:"series,omitempty"`
	Episodes []podcast.Podcast `json:"episodes,omitempty"`
}

// IsSeries reports whether the result is a series.
func (r Result) IsSeries() bool {
	return r.Series != nil
}

// Pipeline composes the stages into single-episode and series runs.
type Pipeline struct {
	researcher stages.Researcher
	scripter   stages.Scripter
	narrator   stages.Narrator
	planner    stages.Planner

	logger      *slog.Logger
	settleDelay time.Duration
	pick        func(n int) int
	newID       func() string
	now         func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.NewComponentLogger(logger, "pipeline")
	}
}

// WithSettleDelay pauses after research in single-episode runs.
func WithSettleDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.settleDelay = d
		}
	}
}

// WithRandom overrides the source used to pick cover colours. pick must
// return a value in [0, n).
func WithRandom(pick func(n int) int) Option {
	return func(p *Pipeline) {
		if pick != nil {
			p.pick = pick
		}
	}
}

// WithIDGenerator overrides how generation and series ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New constructs a pipeline from its stages.
func New(researcher stages.Researcher, scripter stages.Scripter, narrator stages.Narrator, planner stages.Planner, opts ...Option) *Pipeline {
	p := &Pipeline{
		researcher: researcher,
		scripter:   scripter,
		narrator:   narrator,
		planner:    planner,
		logger:     logging.NewComponentLogger(nil, "pipeline"),
		pick:       rand.IntN,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegeneratePlan re-outlines topic from listener feedback.
func (p *Pipeline) RegeneratePlan(ctx context.Context, topic, feedback string) (podcast.SeriesOutline, error) {
	if p.planner == nil {
		return podcast.SeriesOutline{}, services.Wrap(services.ErrConfiguration, stages.StagePlanning, "replan", "planner not configured", nil)
	}
	return p.planner.Replan(ctx, topic, feedback)
}

// Generate runs one attempt for params. Listeners receive every progress
// event in order, ending with exactly one done, cancelled, or failed event.
// A cancelled run returns services.ErrCancelled. params is never modified.
//
// token is the cooperative stop: the stage call in flight completes and the
// next checkpoint ends the run. Cancelling ctx is a hard abort that also
// reaches the in-flight call.
func (p *Pipeline) Generate(ctx context.Context, params podcast.GenerationParams, token *CancelToken, listeners ...progress.Listener) (Result, error) {
	params = params.Normalized()
	ch := progress.New(p.logger)
	for _, l := range listeners {
		unsubscribe := ch.Subscribe(l)
		defer unsubscribe()
	}

	r := &run{
		p:      p,
		params: params,
		token:  token,
		ch:     ch,
		id:     p.newID(),
		start:  p.now(),
	}
	ctx = services.WithGenerationID(ctx, r.id)
	r.logger = logging.WithContext(ctx, p.logger)
	r.logger.Info("generation started",
		logging.String(logging.FieldEventType, "generation_start"),
		logging.String("topic", params.Topic),
		logging.Bool("is_series", params.IsSeries),
		logging.String("depth", string(params.Depth)),
		logging.String("tone", string(params.Tone)),
	)

	var (
		result Result
		err    error
	)
	if params.Topic == "" {
		err = services.Wrap(services.ErrValidation, "pipeline", "generate", "topic required", nil)
	} else if params.IsSeries {
		result, err = r.series(ctx)
	} else {
		result, err = r.single(ctx)
	}
	if err != nil {
		return Result{}, r.fail(err)
	}
	r.logger.Info("generation completed",
		logging.String(logging.FieldEventType, "generation_complete"),
		logging.Duration("elapsed", p.now().Sub(r.start)),
	)
	return result, nil
}

// run is the state of one Generate call.
type run struct {
	p      *Pipeline
	params podcast.GenerationParams
	token  *CancelToken
	ch     *progress.Channel
	id     string
	logger *slog.Logger
	start  time.Time
}

// checkpoint returns services.ErrCancelled when the token or ctx has been
// cancelled.
func (r *run) checkpoint(ctx context.Context) error {
	if r.token.Cancelled() || ctx.Err() != nil {
		return services.ErrCancelled
	}
	return nil
}

func (r *run) emit(stage podcast.Stage, fraction float64, message string, episode, total int) {
	r.ch.Emit(podcast.Progress{
		Stage:         stage,
		Message:       message,
		Fraction:      fraction,
		EpisodeNumber: episode,
		TotalEpisodes: total,
	})
}

// fail emits the terminal event for err and returns the error to report.
func (r *run) fail(err error) error {
	if isCancellation(err) {
		r.emit(podcast.StageCancelled, r.ch.Last(), services.UserMessage(services.ErrCancelled), 0, 0)
		r.logger.Info("generation cancelled",
			logging.String(logging.FieldEventType, "generation_cancelled"),
			logging.Float64("fraction", r.ch.Last()),
		)
		return services.ErrCancelled
	}
	r.emit(podcast.StageFailed, r.ch.Last(), services.UserMessage(err), 0, 0)
	attrs := append([]logging.Attr{logging.String(logging.FieldErrorHint, "retry the generation; it restarts from research")}, logging.ErrorAttrs(err)...)
	logging.ErrorWithContext(r.logger, "generation failed", "generation_failed", attrs...)
	return err
}

// isCancellation treats a context cancellation surfaced by a stage the same
// as a token cancellation.
func isCancellation(err error) bool {
	return errors.Is(err, services.ErrCancelled) || errors.Is(err, context.Canceled)
}

// call runs one stage call with start/complete logging.
func (r *run) call(ctx context.Context, stage string, episode int, fn func(context.Context) error) error {
	if err := r.checkpoint(ctx); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, stage)
	logger := logging.WithContext(stageCtx, r.p.logger)
	if episode > 0 {
		logger = logger.With(logging.Int(logging.FieldEpisodeNumber, episode))
	}
	start := r.p.now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := fn(stageCtx); err != nil {
		if !isCancellation(err) {
			logger.Warn("stage failed",
				logging.String(logging.FieldEventType, "stage_failed"),
				logging.Error(err),
			)
		}
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", r.p.now().Sub(start)),
	)
	return nil
}

func (r *run) settle(ctx context.Context) error {
	if r.p.settleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(r.p.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return services.ErrCancelled
	case <-r.token.Done():
		return services.ErrCancelled
	case <-timer.C:
		return nil
	}
}

func (r *run) coverColor() string {
	i := r.p.pick(len(CoverPalette))
	if i < 0 || i >= len(CoverPalette) {
		i = 0
	}
	return CoverPalette[i]
}

func episodeID(seriesID string, sequence int) string {
	return seriesID + "-ep" + strconv.Itoa(sequence)
}
