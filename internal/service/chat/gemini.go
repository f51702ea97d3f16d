package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kapu/linkedin-profile-edge/internal/constants"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// GeminiProvider uses the Gemini API with a function declaration for the scrape tool.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewGeminiProvider creates the client only when a key is configured.
func NewGeminiProvider(ctx context.Context, httpClient *http.Client, cfg GeminiConfig, logger *zap.Logger) (*GeminiProvider, error) {
	provider := &GeminiProvider{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
	if cfg.APIKey == "" {
		return provider, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	provider.client = client
	return provider, nil
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Start(ctx context.Context, message string) (*Turn, error) {
	if g.client == nil {
		g.logger.Error("GEMINI_API_KEY is not set")
		return nil, apperrors.NewConfigError("Gemini API key is not configured", "GEMINI_API_KEY")
	}

	resp, err := g.generate(ctx, []*genai.Content{
		genai.NewContentFromText(message, genai.RoleUser),
	})
	if err != nil {
		return nil, err
	}
	return geminiTurn(resp), nil
}

func (g *GeminiProvider) Resume(ctx context.Context, message string, first *Turn, result string) (string, error) {
	if g.client == nil {
		return "", apperrors.NewConfigError("Gemini API key is not configured", "GEMINI_API_KEY")
	}
	contents, err := geminiFollowUp(message, first, result)
	if err != nil {
		return "", err
	}

	resp, err := g.generate(ctx, contents)
	if err != nil {
		return "", err
	}
	return geminiTurn(resp).Text, nil
}

func (g *GeminiProvider) generate(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	g.logger.Debug("Calling Gemini", zap.String("model", g.model), zap.Int("contents", len(contents)))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxTokens),
		Tools:           []*genai.Tool{geminiScrapeTool()},
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.logger.Error("Gemini API error", zap.Int("status", apiErr.Code), zap.String("message", apiErr.Message))
			return nil, apperrors.NewUpstreamError("gemini", "Failed to get response from chat API", apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	return resp, nil
}

func geminiScrapeTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        constants.ScrapeTool.Name,
			Description: constants.ScrapeTool.Description,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					constants.ScrapeTool.URLParam: {
						Type:        genai.TypeString,
						Description: constants.ScrapeTool.URLDescription,
					},
				},
				Required: []string{constants.ScrapeTool.URLParam},
			},
		}},
	}
}

func geminiTurn(resp *genai.GenerateContentResponse) *Turn {
	turn := &Turn{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return turn
	}

	content := resp.Candidates[0].Content
	turn.raw = content
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" && turn.Text == "" {
			turn.Text = part.Text
		}
		if part.FunctionCall != nil && turn.ToolCall == nil {
			url, _ := part.FunctionCall.Args[constants.ScrapeTool.URLParam].(string)
			turn.ToolCall = &ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				URL:  url,
			}
		}
	}
	return turn
}

// geminiFollowUp rebuilds the exchange with the function response appended. The
// profile is passed as structured JSON under "output".
func geminiFollowUp(message string, first *Turn, result string) ([]*genai.Content, error) {
	if first == nil || first.ToolCall == nil {
		return nil, fmt.Errorf("gemini: resume without a tool call")
	}
	modelContent, ok := first.raw.(*genai.Content)
	if !ok || modelContent == nil {
		return nil, fmt.Errorf("gemini: unexpected turn content %T", first.raw)
	}
	if modelContent.Role == "" {
		modelContent.Role = string(genai.RoleModel)
	}

	output := any(result)
	if json.Valid([]byte(result)) {
		output = json.RawMessage(result)
	}
	part := genai.NewPartFromFunctionResponse(first.ToolCall.Name, map[string]any{"output": output})
	part.FunctionResponse.ID = first.ToolCall.ID

	return []*genai.Content{
		genai.NewContentFromText(message, genai.RoleUser),
		modelContent,
		genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser),
	}, nil
}
