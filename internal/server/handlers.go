package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/linkedin-profile-edge/internal/constants"
	"github.com/kapu/linkedin-profile-edge/internal/domain"
	"github.com/kapu/linkedin-profile-edge/internal/service/linkedin"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
)

const debugExample = "/api/debug?url=https://linkedin.com/in/example"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
	Example string `json:"example,omitempty"`
}

type debugResponse struct {
	URL             string             `json:"url"`
	Username        *string            `json:"username"`
	CacheStatus     domain.CacheStatus `json:"cache_status"`
	CacheDataLength *int               `json:"cache_data_length,omitempty"`
	Error           string             `json:"error,omitempty"`
	Timestamp       string             `json:"timestamp,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) linkedInProfile(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("linkedinUrl")
	if rawURL == "" {
		writeJSONStatus(w, errorResponse{Error: "linkedinUrl query parameter is required"}, http.StatusBadRequest)
		return
	}

	record, err := s.scraper.Scrape(r.Context(), rawURL)
	if err != nil {
		s.logger.Warn("Profile scrape failed", zap.String("url", rawURL), zap.Error(err))
		writeJSONStatus(w, errorResponse{Error: apperrors.Message(err)}, apperrors.StatusCode(err))
		return
	}

	writeJSONStatus(w, record, http.StatusOK)
}

func (s *Server) cachedProfile(w http.ResponseWriter, r *http.Request) {
	rawUsername := r.URL.Query().Get("username")
	if rawUsername == "" {
		writeJSONStatus(w, errorResponse{Error: "username query parameter is required"}, http.StatusBadRequest)
		return
	}

	// Keys are written in extracted form, so the lookup goes through the same extraction.
	username, ok := linkedin.ExtractUsername(rawUsername)
	if !ok {
		writeJSONStatus(w, errorResponse{Error: "Could not extract a valid LinkedIn username."}, http.StatusBadRequest)
		return
	}

	value, found, err := s.cache.Lookup(r.Context(), username)
	if err != nil {
		s.logger.Error("Cached profile read failed", zap.String("username", username), zap.Error(err))
		writeJSONStatus(w, errorResponse{
			Error:   "Failed to retrieve profile from cache.",
			Details: err.Error(),
		}, http.StatusInternalServerError)
		return
	}
	if !found {
		s.logger.Info("Cached profile not found", zap.String("username", username))
		writeJSONStatus(w, errorResponse{Error: "Profile not found in cache for the given username."}, http.StatusNotFound)
		return
	}
	if !json.Valid([]byte(value)) {
		s.logger.Error("Cached profile is not valid JSON", zap.String("username", username))
		writeJSONStatus(w, errorResponse{
			Error:   "Failed to retrieve profile from cache.",
			Details: "stored value is not valid JSON",
		}, http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, json.RawMessage(value), http.StatusOK)
}

func (s *Server) debugURL(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeJSONStatus(w, errorResponse{
			Error:   "Please provide a URL parameter: " + debugExample,
			Example: debugExample,
		}, http.StatusBadRequest)
		return
	}

	username, ok := linkedin.ExtractUsername(rawURL)
	s.logger.Debug("Debug extraction", zap.String("url", rawURL), zap.String("username", username), zap.Bool("ok", ok))
	if !ok {
		writeJSONStatus(w, debugResponse{
			URL:         rawURL,
			Error:       "Could not extract username from URL",
			CacheStatus: domain.CacheStatusNotAvailable,
		}, http.StatusOK)
		return
	}

	value, found, err := s.cache.Lookup(r.Context(), username)
	if err != nil {
		s.logger.Error("Debug cache probe failed", zap.String("username", username), zap.Error(err))
		writeJSONStatus(w, debugResponse{
			URL:         rawURL,
			Username:    &username,
			CacheStatus: domain.CacheStatusError,
			Error:       err.Error(),
			Timestamp:   timestamp(),
		}, http.StatusOK)
		return
	}

	status := domain.CacheStatusMiss
	if found {
		status = domain.CacheStatusHit
	}
	length := len(value)
	writeJSONStatus(w, debugResponse{
		URL:             rawURL,
		Username:        &username,
		CacheStatus:     status,
		CacheDataLength: &length,
		Timestamp:       timestamp(),
	}, http.StatusOK)
}

func (s *Server) debugCache(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, map[string]string{
		"message":   "Cache debug endpoint",
		"store":     s.cache.StoreName(),
		"note":      "Use /api/debug?url=<linkedin_url> to check specific URL cache status",
		"timestamp": timestamp(),
	}, http.StatusOK)
}

func (s *Server) chatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.ServerConfig.MaxBodyBytes)).Decode(&req); err != nil {
		writeJSONStatus(w, errorResponse{Error: "Invalid JSON body"}, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONStatus(w, errorResponse{Error: "Message is required"}, http.StatusBadRequest)
		return
	}

	reply, err := s.chat.Converse(r.Context(), req.Message)
	if err != nil {
		var configErr *apperrors.ConfigError
		var upstreamErr *apperrors.UpstreamError
		switch {
		case errors.As(err, &configErr):
			writeJSONStatus(w, errorResponse{Error: configErr.Message}, http.StatusInternalServerError)
		case errors.As(err, &upstreamErr):
			writeJSONStatus(w, errorResponse{Error: upstreamErr.Message}, http.StatusInternalServerError)
		default:
			writeJSONStatus(w, errorResponse{Error: "Internal server error"}, http.StatusInternalServerError)
		}
		return
	}

	writeJSONStatus(w, reply, http.StatusOK)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, errorResponse{
		Error:   "Not Found",
		Message: "The resource " + r.URL.Path + " was not found.",
	}, http.StatusNotFound)
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
