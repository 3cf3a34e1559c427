package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"episodic/internal/config"
	"episodic/internal/services"
)

const userAgent = "Episodic-Go/0.1.0"

// Outcome summarises a finished generation for notification purposes.
type Outcome struct {
	Topic           string
	Title           string
	Episodes        int
	DurationSeconds int
}

// Service defines the notification surface used by the CLI and API.
type Service interface {
	NotifyGenerationCompleted(ctx context.Context, outcome Outcome) error
	NotifyGenerationFailed(ctx context.Context, topic string, err error) error
	NotifyGenerationCancelled(ctx context.Context, topic string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Notifications.Completed,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	errors    bool
}

func (n *ntfyService) NotifyGenerationCompleted(ctx context.Context, outcome Outcome) error {
	if !n.completed {
		return nil
	}
	title := strings.TrimSpace(outcome.Title)
	if title == "" {
		title = strings.TrimSpace(outcome.Topic)
	}
	message := fmt.Sprintf("🎧 Ready to listen: %s", title)
	if outcome.Episodes > 1 {
		message = fmt.Sprintf("🎧 Series ready: %s (%d episodes)", title, outcome.Episodes)
	}
	if outcome.DurationSeconds > 0 {
		message = fmt.Sprintf("%s\nRuntime: %s", message, formatRuntime(outcome.DurationSeconds))
	}
	return n.send(ctx, payload{
		title:    "Episodic - Ready",
		message:  message,
		tags:     []string{"episodic", "generation", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyGenerationFailed(ctx context.Context, topic string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Generation failed")
	if topic = strings.TrimSpace(topic); topic != "" {
		builder.WriteString(" for ")
		builder.WriteString(topic)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(services.UserMessage(err))
		if stage := services.Details(err).Stage; stage != "" {
			builder.WriteString(" (stage ")
			builder.WriteString(stage)
			builder.WriteString(")")
		}
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Episodic - Error",
		message:  builder.String(),
		tags:     []string{"episodic", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyGenerationCancelled(ctx context.Context, topic string) error {
	if !n.errors {
		return nil
	}
	return n.send(ctx, payload{
		title:   "Episodic - Cancelled",
		message: fmt.Sprintf("Generation cancelled: %s", strings.TrimSpace(topic)),
		tags:    []string{"episodic", "generation", "cancelled"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Episodic - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"episodic", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func formatRuntime(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return d.String()
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}

type noopService struct{}

func (noopService) NotifyGenerationCompleted(context.Context, Outcome) error   { return nil }
func (noopService) NotifyGenerationFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyGenerationCancelled(context.Context, string) error     { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
