package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kapu/linkedin-profile-edge/internal/constants"
	"github.com/kapu/linkedin-profile-edge/internal/domain"
	"github.com/kapu/linkedin-profile-edge/internal/util"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	"go.uber.org/zap"
)

const upstreamService = "rapidapi"

type RapidAPIConfig struct {
	APIKey  string
	Host    string
	BaseURL string
}

// RapidAPIFetcher calls the LinkedIn data API on RapidAPI. Each call is a single
// attempt; there is no retry or backoff.
type RapidAPIFetcher struct {
	httpClient *http.Client
	apiKey     string
	host       string
	baseURL    string
	logger     *zap.Logger
}

func NewRapidAPIFetcher(httpClient *http.Client, cfg RapidAPIConfig, logger *zap.Logger) *RapidAPIFetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &RapidAPIFetcher{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		host:       cfg.Host,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

func (f *RapidAPIFetcher) Fetch(ctx context.Context, username string) (domain.ProfileRecord, error) {
	if f.apiKey == "" {
		f.logger.Error("RAPIDAPI_KEY is not set")
		return nil, apperrors.NewConfigError("API key is not configured on the server.", "RAPIDAPI_KEY")
	}

	params := url.Values{}
	params.Set(constants.RapidAPIConfig.UserParam, username)
	reqURL := f.baseURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.RapidAPIConfig.KeyHeader, f.apiKey)
	req.Header.Set(constants.RapidAPIConfig.HostHeader, f.host)

	f.logger.Info("Calling RapidAPI", zap.String("username", username), zap.String("url", reqURL))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("RapidAPI request failed", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("LinkedIn API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read LinkedIn API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := summarizeBody(body, resp.Header.Get("Content-Type"))
		f.logger.Error("RapidAPI error",
			zap.String("username", username),
			zap.Int("status", resp.StatusCode),
			zap.String("body", util.TruncateString(text, constants.LogLimits.BodyPreview)),
		)
		return nil, apperrors.NewUpstreamError(upstreamService,
			"Failed to fetch data from LinkedIn API: "+text, resp.StatusCode, string(body))
	}

	if !json.Valid(body) {
		f.logger.Error("RapidAPI returned invalid JSON",
			zap.String("username", username),
			zap.Int("status", resp.StatusCode),
		)
		return nil, apperrors.NewUpstreamError(upstreamService,
			"Failed to fetch data from LinkedIn API: response was not valid JSON", resp.StatusCode, string(body))
	}

	f.logger.Info("RapidAPI fetch succeeded",
		zap.String("username", username),
		zap.Int("length", len(body)),
	)
	return domain.ProfileRecord(body), nil
}
