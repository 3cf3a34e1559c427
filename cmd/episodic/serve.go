package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"episodic/internal/api"
	"episodic/internal/library"
	"episodic/internal/logging"
	"episodic/internal/notifications"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg, true)
			if err != nil {
				return err
			}
			st := buildStack(cfg, logger, ctx.offline())

			store, err := library.Open(cfg.LibraryPath())
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer store.Close()

			server := api.New(api.Dependencies{
				Engine:    st.engine,
				Generator: st.pipeline,
				Library:   store,
				Notifier:  notifications.NewService(cfg),
				Logger:    logger,
				Token:     cfg.API.Token,
			})
			defer server.Close()

			if strings.TrimSpace(bind) == "" {
				bind = cfg.API.Bind
			}
			if strings.TrimSpace(cfg.API.Token) == "" {
				logging.WarnWithContext(logger, "api token not set; requests are unauthenticated", "api_auth_disabled",
					logging.String(logging.FieldImpact, "any local client can drive generations"),
					logging.String(logging.FieldErrorHint, "set api.token or EPISODIC_API_TOKEN"),
				)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Serve(runCtx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api.bind)")
	return cmd
}
