package openai

import (
	"context"
	"errors"
	"net"
	"net/http"

	openaisdk "github.com/openai/openai-go"

	"episodic/internal/services"
)

func classifyError(stage, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return services.Wrap(services.ErrTimeout, stage, operation, "request timed out", err)
	}
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, stage, operation, "openai credentials rejected", err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return services.Wrap(services.ErrTimeout, stage, operation, "request timed out", err)
		}
	}
	return services.Wrap(services.ErrExternalTool, stage, operation, "request failed", err)
}
