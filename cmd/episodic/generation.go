package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"episodic/internal/library"
	"episodic/internal/logging"
	"episodic/internal/notifications"
	"episodic/internal/pipeline"
	"episodic/internal/podcast"
	"episodic/internal/services"
)

// generationError reports a failed or cancelled run with its failure class.
type generationError struct {
	details services.ErrorDetails
	err     error
}

func (e *generationError) Error() string {
	if e.details.Kind == services.KindCancelled {
		return "generation cancelled"
	}
	if e.details.Stage != "" {
		return fmt.Sprintf("generation failed at %s (%s): %s", e.details.Stage, e.details.Kind, services.UserMessage(e.err))
	}
	return fmt.Sprintf("generation failed (%s): %s", e.details.Kind, services.UserMessage(e.err))
}

func (e *generationError) Unwrap() error {
	return e.err
}

func (e *generationError) retryable() bool {
	switch e.details.Kind {
	case services.KindCancelled, services.KindConfiguration:
		return false
	default:
		return true
	}
}

// interruptSignals request a cooperative stop of a running generation.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// cancelOnInterrupt cancels token when one of interruptSignals arrives. The
// stage call already in flight finishes; later stages are skipped. The
// returned stop function must be called once the run is over.
func cancelOnInterrupt(token *pipeline.CancelToken) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, interruptSignals...)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			token.Cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

// generate runs one attempt under the process-wide generation lock,
// persists a successful result, and sends the matching notification.
// An interrupt cancels the run at its next checkpoint. Cancelling the
// command context is a hard abort that also cuts the in-flight stage call.
func (c *commandContext) generate(cmd *cobra.Command, st *stack, params podcast.GenerationParams, out io.Writer) (pipeline.Result, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return pipeline.Result{}, err
	}
	logger := c.loggerValue()
	notifier := notifications.NewService(cfg)

	token := pipeline.NewCancelToken()
	stop := cancelOnInterrupt(token)
	defer stop()

	var result pipeline.Result
	err = c.withGenerationLock(func() error {
		var genErr error
		result, genErr = st.pipeline.Generate(cmd.Context(), params, token, newProgressPrinter(out))
		return genErr
	})
	if errors.Is(err, errGenerationLocked) {
		return pipeline.Result{}, err
	}

	// A hard-aborted command context must still deliver notifications.
	notifyCtx := context.WithoutCancel(cmd.Context())
	if err != nil {
		if services.Classify(err) == services.KindCancelled {
			c.notify(notifier.NotifyGenerationCancelled(notifyCtx, params.Topic))
		} else {
			c.notify(notifier.NotifyGenerationFailed(notifyCtx, params.Topic, err))
		}
		logging.WarnWithContext(logger, "generation did not complete", "generation_unfinished",
			logging.String(logging.FieldErrorKind, string(services.Classify(err))),
			logging.Error(err),
		)
		return pipeline.Result{}, &generationError{details: services.Details(err), err: err}
	}

	if err := c.withLibrary(func(store *library.Store) error {
		return result.Persist(notifyCtx, store)
	}); err != nil {
		logging.ErrorWithContext(logger, "persist generation result failed", "library_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "artifacts are on disk but missing from the library"),
			logging.String(logging.FieldErrorHint, "check the data directory permissions"),
		)
		return result, fmt.Errorf("save to library: %w", err)
	}

	c.notify(notifier.NotifyGenerationCompleted(notifyCtx, outcomeOf(params, result)))
	return result, nil
}

// outcomeOf summarises a successful result; a single episode counts as one.
func outcomeOf(params podcast.GenerationParams, result pipeline.Result) notifications.Outcome {
	return notifications.Outcome{
		Topic:           params.Topic,
		Title:           result.Title(),
		Episodes:        len(result.Artifacts()),
		DurationSeconds: result.DurationSeconds(),
	}
}

func (c *commandContext) notify(err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(c.loggerValue(), "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "generation outcome not pushed"),
	)
}
