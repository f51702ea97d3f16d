package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kapu/linkedin-profile-edge/internal/constants"
	"github.com/kapu/linkedin-profile-edge/internal/util"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	"go.uber.org/zap"
)

type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// AnthropicProvider talks to the Anthropic Messages API directly over HTTP.
type AnthropicProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	logger     *zap.Logger
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicToolResult struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

type anthropicResponse struct {
	Content []json.RawMessage `json:"content"`
}

type anthropicBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

func NewAnthropicProvider(httpClient *http.Client, cfg AnthropicConfig, logger *zap.Logger) *AnthropicProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AnthropicProvider{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		logger:     logger,
	}
}

func (a *AnthropicProvider) Name() string {
	return "Anthropic"
}

func (a *AnthropicProvider) Start(ctx context.Context, message string) (*Turn, error) {
	if a.apiKey == "" {
		a.logger.Error("ANTHROPIC_API_KEY is not set")
		return nil, apperrors.NewConfigError("Anthropic API key is not configured", "ANTHROPIC_API_KEY")
	}

	resp, err := a.send(ctx, []anthropicMessage{{Role: "user", Content: message}})
	if err != nil {
		return nil, err
	}
	return anthropicTurn(resp), nil
}

func (a *AnthropicProvider) Resume(ctx context.Context, message string, first *Turn, result string) (string, error) {
	if first == nil || first.ToolCall == nil {
		return "", fmt.Errorf("anthropic: resume without a tool call")
	}
	content, ok := first.raw.([]json.RawMessage)
	if !ok {
		return "", fmt.Errorf("anthropic: unexpected turn content %T", first.raw)
	}

	resp, err := a.send(ctx, []anthropicMessage{
		{Role: "user", Content: message},
		{Role: "assistant", Content: content},
		{Role: "user", Content: []anthropicToolResult{{
			Type:      "tool_result",
			ToolUseID: first.ToolCall.ID,
			Content:   result,
		}}},
	})
	if err != nil {
		return "", err
	}
	return anthropicTurn(resp).Text, nil
}

func (a *AnthropicProvider) send(ctx context.Context, messages []anthropicMessage) (*anthropicResponse, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Tools: []anthropicTool{{
			Name:        constants.ScrapeTool.Name,
			Description: constants.ScrapeTool.Description,
			InputSchema: scrapeToolSchema(),
		}},
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+constants.AnthropicConfig.MessagesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", constants.AnthropicConfig.Version)

	a.logger.Debug("Calling Anthropic", zap.String("model", a.model), zap.Int("messages", len(messages)))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read anthropic response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.Error("Anthropic API error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", util.TruncateString(string(body), constants.LogLimits.BodyPreview)),
		)
		return nil, apperrors.NewUpstreamError("anthropic", "Failed to get response from chat API", resp.StatusCode, string(body))
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.NewUpstreamError("anthropic", "Failed to get response from chat API", resp.StatusCode, string(body))
	}
	return &decoded, nil
}

func anthropicTurn(resp *anthropicResponse) *Turn {
	turn := &Turn{raw: resp.Content}
	for _, raw := range resp.Content {
		var block anthropicBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			continue
		}
		switch block.Type {
		case "text":
			if turn.Text == "" {
				turn.Text = block.Text
			}
		case "tool_use":
			if turn.ToolCall == nil {
				turn.ToolCall = &ToolCall{
					ID:   block.ID,
					Name: block.Name,
					URL:  parseToolURL(block.Input),
				}
			}
		}
	}
	return turn
}
