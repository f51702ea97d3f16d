package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kapu/linkedin-profile-edge/internal/constants"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// OpenAIProvider uses chat completions with a single function tool.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewOpenAIProvider builds the SDK client only when a key is configured. SDK retries
// are disabled so one request maps to one upstream attempt.
func NewOpenAIProvider(httpClient *http.Client, cfg OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	provider := &OpenAIProvider{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
	if cfg.APIKey == "" {
		return provider
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	provider.client = &client
	return provider
}

func (o *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (o *OpenAIProvider) Start(ctx context.Context, message string) (*Turn, error) {
	if o.client == nil {
		o.logger.Error("OPENAI_API_KEY is not set")
		return nil, apperrors.NewConfigError("OpenAI API key is not configured", "OPENAI_API_KEY")
	}

	msg, err := o.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(message),
	})
	if err != nil {
		return nil, err
	}
	return openAITurn(msg), nil
}

func (o *OpenAIProvider) Resume(ctx context.Context, message string, first *Turn, result string) (string, error) {
	if o.client == nil {
		return "", apperrors.NewConfigError("OpenAI API key is not configured", "OPENAI_API_KEY")
	}
	if first == nil || first.ToolCall == nil {
		return "", fmt.Errorf("openai: resume without a tool call")
	}
	assistant, ok := first.raw.(openai.ChatCompletionMessage)
	if !ok {
		return "", fmt.Errorf("openai: unexpected turn content %T", first.raw)
	}

	msg, err := o.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(message),
		assistant.ToParam(),
		openai.ToolMessage(result, first.ToolCall.ID),
	})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (o *OpenAIProvider) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (openai.ChatCompletionMessage, error) {
	o.logger.Debug("Calling OpenAI", zap.String("model", o.model), zap.Int("messages", len(messages)))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.model),
		Messages:            messages,
		Tools:               []openai.ChatCompletionToolUnionParam{openAIScrapeTool()},
		MaxCompletionTokens: openai.Int(int64(o.maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			o.logger.Error("OpenAI API error", zap.Int("status", apiErr.StatusCode), zap.Error(err))
			return openai.ChatCompletionMessage{}, apperrors.NewUpstreamError("openai", "Failed to get response from chat API", apiErr.StatusCode, apiErr.RawJSON())
		}
		return openai.ChatCompletionMessage{}, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, apperrors.NewUpstreamError("openai", "Failed to get response from chat API", http.StatusOK, resp.RawJSON())
	}

	o.logger.Debug("OpenAI response received",
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message, nil
}

func openAIScrapeTool() openai.ChatCompletionToolUnionParam {
	return openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        constants.ScrapeTool.Name,
		Description: openai.String(constants.ScrapeTool.Description),
		Parameters:  openai.FunctionParameters(scrapeToolSchema()),
	})
}

func openAITurn(msg openai.ChatCompletionMessage) *Turn {
	turn := &Turn{Text: msg.Content, raw: msg}
	for _, call := range msg.ToolCalls {
		if call.Function.Name == "" {
			continue
		}
		turn.ToolCall = &ToolCall{
			ID:   call.ID,
			Name: call.Function.Name,
			URL:  parseToolURL([]byte(call.Function.Arguments)),
		}
		break
	}
	return turn
}
