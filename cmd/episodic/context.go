package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"episodic/internal/config"
	"episodic/internal/library"
	"episodic/internal/logging"
)

var errGenerationLocked = errors.New("another generation is already running")

type commandContext struct {
	configFlag  *string
	offlineFlag *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, offlineFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		offlineFlag: offlineFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerValue returns a logger writing to the log file only, so terminal
// output stays readable. It falls back to a discard logger when the file
// cannot be opened.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		c.logger = logging.NewNop()
		cfg, err := c.ensureConfig()
		if err != nil {
			return
		}
		if logger, err := logging.NewFromConfig(cfg, false); err == nil {
			c.logger = logger
		}
	})
	return c.logger
}

func (c *commandContext) offline() bool {
	if c.offlineFlag != nil && *c.offlineFlag {
		return true
	}
	cfg, err := c.ensureConfig()
	return err == nil && cfg.Pipeline.Offline
}

func (c *commandContext) stack() (*stack, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return buildStack(cfg, c.loggerValue(), c.offline()), nil
}

func (c *commandContext) withLibrary(fn func(*library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg.LibraryPath())
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withGenerationLock serialises generations across CLI processes sharing a
// data directory.
func (c *commandContext) withGenerationLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire generation lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", errGenerationLocked, cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
