package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"episodic/internal/config"
	"episodic/internal/services/llm"
)

const backendCheckTimeout = 30 * time.Second

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckTextBackend verifies the text-generation key and, when completer is
// set, that the API answers. Backends with a HealthCheck method use it;
// others get a one-line completion.
func CheckTextBackend(ctx context.Context, cfg config.LLM, completer llm.Completer) Result {
	const name = "Text backend"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s API key missing", cfg.Provider)}
	}
	if completer == nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s key set (not probed)", cfg.Provider)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, backendCheckTimeout)
	defer cancel()

	var err error
	if checker, ok := completer.(healthChecker); ok {
		err = checker.HealthCheck(checkCtx)
	} else {
		_, err = completer.Complete(checkCtx, llm.Request{
			System:   "Reply with the single word OK.",
			Messages: []llm.Message{{Role: llm.RoleUser, Content: "ping"}},
		})
	}
	if err != nil {
		return Result{Name: name, Detail: summarizeBackendError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%s)", cfg.Provider, cfg.Model)}
}

// CheckNarration verifies the speech settings without synthesizing audio.
func CheckNarration(cfg config.Narration) Result {
	const name = "Narration"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "speech API key missing"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s, voice %s, %s output", cfg.Model, cfg.Voice, cfg.Format)}
}

// CheckNotifications reports whether push notifications are configured.
func CheckNotifications(cfg config.Notifications) Result {
	const name = "Notifications"
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Skipped: true, Detail: "disabled (no ntfy topic)"}
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return Result{Name: name, Detail: fmt.Sprintf("ntfy topic %q is not a URL", topic)}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
