package chat

import (
	"encoding/json"

	"github.com/kapu/linkedin-profile-edge/internal/constants"
)

type scrapeToolInput struct {
	LinkedInURL string `json:"linkedin_url"`
}

// scrapeToolSchema is the JSON schema of the scrape tool's arguments.
func scrapeToolSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			constants.ScrapeTool.URLParam: map[string]any{
				"type":        "string",
				"description": constants.ScrapeTool.URLDescription,
			},
		},
		"required": []string{constants.ScrapeTool.URLParam},
	}
}

// parseToolURL reads linkedin_url from raw tool arguments. Malformed arguments yield
// an empty URL, which the scraper rejects as invalid input.
func parseToolURL(raw []byte) string {
	var input scrapeToolInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return ""
	}
	return input.LinkedInURL
}
