package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"episodic/internal/dialogue"
	"episodic/internal/services"
)

var (
	errConversationNotFound = errors.New("conversation not found")
	errGenerationInFlight   = errors.New("a generation is already running for this conversation")
	errNoGeneration         = errors.New("no generation has been started")
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errConversationNotFound), errors.Is(err, errNoGeneration), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dialogue.ErrTurnInProgress), errors.Is(err, dialogue.ErrInvalidPhase), errors.Is(err, errGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, dialogue.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, dialogue.ErrBackend), errors.Is(err, services.ErrExternalTool), errors.Is(err, services.ErrValidation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := ErrorResponse{Error: err.Error()}
	if status >= http.StatusInternalServerError {
		details := services.Details(err)
		body.Kind = string(details.Kind)
		body.Stage = details.Stage
		body.Message = services.UserMessage(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}
