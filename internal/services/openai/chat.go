package openai

import (
	"context"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"episodic/internal/services"
	"episodic/internal/services/llm"
)

const chatStage = "llm"

// ChatConfig captures the settings for ChatClient.
type ChatConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	TimeoutSeconds int
	MaxRetries     int
}

// ChatClient implements llm.Completer with the chat completions API.
type ChatClient struct {
	cfg    ChatConfig
	client openaisdk.Client
}

var _ llm.Completer = (*ChatClient)(nil)

// NewChatClient constructs a chat client. A missing key is reported on first use.
func NewChatClient(cfg ChatConfig, opts ...option.RequestOption) *ChatClient {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &ChatClient{cfg: cfg, client: openaisdk.NewClient(requestOptions(cfg.APIKey, cfg.BaseURL, cfg.TimeoutSeconds, cfg.MaxRetries, opts)...)}
}

// Complete sends the transcript and returns the first choice's content.
func (c *ChatClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, chatStage, "complete", "openai api key missing", nil)
	}
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		msgs = append(msgs, openaisdk.SystemMessage(system))
	}
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case llm.RoleAssistant:
			msgs = append(msgs, openaisdk.ChatCompletionMessageParamOfAssistant(msg.Content))
		case llm.RoleSystem:
			msgs = append(msgs, openaisdk.SystemMessage(msg.Content))
		default:
			msgs = append(msgs, openaisdk.UserMessage(msg.Content))
		}
	}

	temperature := c.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.cfg.Model),
		Messages:    msgs,
		Temperature: openaisdk.Float(temperature),
	}
	if req.JSON {
		params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyError(chatStage, "complete", err)
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", services.Wrap(services.ErrExternalTool, chatStage, "complete", "empty completion", nil)
}

func requestOptions(apiKey, baseURL string, timeoutSeconds, maxRetries int, extra []option.RequestOption) []option.RequestOption {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(timeoutSeconds)*time.Second))
	}
	if maxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(maxRetries))
	}
	return append(opts, extra...)
}
