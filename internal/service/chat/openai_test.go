package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
)

const openAIToolCallResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1735689600,
	"model": "gpt-4.1",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"message": {
			"role": "assistant",
			"content": null,
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {
					"name": "scrape_linkedin_profile",
					"arguments": "{\"linkedin_url\":\"https://linkedin.com/in/janedoe\"}"
				}
			}]
		}
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

const openAIFinalResponse = `{
	"id": "chatcmpl-2",
	"object": "chat.completion",
	"created": 1735689601,
	"model": "gpt-4.1",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {"role": "assistant", "content": "Jane is an engineer."}
	}],
	"usage": {"prompt_tokens": 20, "completion_tokens": 6, "total_tokens": 26}
}`

func newTestOpenAI(baseURL, apiKey string) *OpenAIProvider {
	return NewOpenAIProvider(nil, OpenAIConfig{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     "gpt-4.1",
		MaxTokens: 4000,
	}, zap.NewNop())
}

func TestOpenAIToolCallRoundTrip(t *testing.T) {
	server, captured := recordingServer(t, openAIToolCallResponse, openAIFinalResponse)
	provider := newTestOpenAI(server.URL+"/v1/", "sk-test")

	turn, err := provider.Start(context.Background(), "Look up janedoe")
	require.NoError(t, err)
	require.NotNil(t, turn.ToolCall)
	require.Equal(t, "call_1", turn.ToolCall.ID)
	require.Equal(t, "scrape_linkedin_profile", turn.ToolCall.Name)
	require.Equal(t, "https://linkedin.com/in/janedoe", turn.ToolCall.URL)

	final, err := provider.Resume(context.Background(), "Look up janedoe", turn, `{"username":"janedoe"}`)
	require.NoError(t, err)
	require.Equal(t, "Jane is an engineer.", final)

	requests := captured()
	require.Len(t, requests, 2)
	require.Equal(t, "/v1/chat/completions", requests[0].path)
	require.Equal(t, "Bearer sk-test", requests[0].headers.Get("Authorization"))

	var first map[string]any
	require.NoError(t, json.Unmarshal(requests[0].body, &first))
	tools := first["tools"].([]any)
	require.Len(t, tools, 1)
	function := tools[0].(map[string]any)["function"].(map[string]any)
	require.Equal(t, "scrape_linkedin_profile", function["name"])

	var second struct {
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(requests[1].body, &second))
	require.Len(t, second.Messages, 3)
	require.Equal(t, "assistant", second.Messages[1]["role"])
	require.Equal(t, "tool", second.Messages[2]["role"])
	require.Equal(t, "call_1", second.Messages[2]["tool_call_id"])
	require.Equal(t, `{"username":"janedoe"}`, second.Messages[2]["content"])
}

func TestOpenAIPlainAnswer(t *testing.T) {
	server, _ := recordingServer(t, openAIFinalResponse)

	turn, err := newTestOpenAI(server.URL+"/v1/", "sk-test").Start(context.Background(), "hello")
	require.NoError(t, err)
	require.Nil(t, turn.ToolCall)
	require.Equal(t, "Jane is an engineer.", turn.Text)
}

func TestOpenAIMissingKey(t *testing.T) {
	_, err := newTestOpenAI("", "").Start(context.Background(), "hi")
	require.True(t, apperrors.IsConfigError(err))
	require.Equal(t, "OpenAI API key is not configured", apperrors.Message(err))
}

func TestOpenAIUpstreamError(t *testing.T) {
	server := statusServer(t, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`)

	_, err := newTestOpenAI(server.URL+"/v1/", "sk-test").Start(context.Background(), "hi")
	var upstreamErr *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, http.StatusTooManyRequests, upstreamErr.Status)
	require.Equal(t, "Failed to get response from chat API", upstreamErr.Message)
}
