package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kapu/linkedin-profile-edge/internal/config"
	"github.com/kapu/linkedin-profile-edge/internal/constants"
	"github.com/kapu/linkedin-profile-edge/internal/domain"
	"github.com/kapu/linkedin-profile-edge/internal/service/chat"
)

type ProfileScraper interface {
	Scrape(ctx context.Context, rawURL string) (domain.ProfileRecord, error)
}

// ProfileCache is the direct store access used by the cache inspection routes.
type ProfileCache interface {
	Lookup(ctx context.Context, username string) (string, bool, error)
	Ping(ctx context.Context) error
	StoreName() string
}

type ChatBridge interface {
	Converse(ctx context.Context, message string) (*chat.Reply, error)
}

type Server struct {
	scraper ProfileScraper
	cache   ProfileCache
	chat    ChatBridge
	cfg     config.ServerConfig
	logger  *zap.Logger
}

func NewServer(scraper ProfileScraper, cache ProfileCache, chat ChatBridge, cfg config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		scraper: scraper,
		cache:   cache,
		chat:    chat,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))
	r.Use(corsMiddleware(s.cfg.AllowedOrigin))

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	r.Get("/api/linkedin-profile", s.linkedInProfile)
	r.Get("/api/cached-profile", s.cachedProfile)
	r.Get("/api/debug", s.debugURL)
	r.Get("/api/debug/cache", s.debugCache)
	r.Post("/api/chat", s.chatMessage)
	r.Get("/health", s.health)
	r.Get("/ready", s.ready)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, map[string]string{"status": "ok"}, http.StatusOK)
}

type subsystemStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                     `json:"status"`
	Subsystems map[string]subsystemStatus `json:"subsystems"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.ServerConfig.ReadyProbeTimeout)
	defer cancel()

	subsystems := map[string]subsystemStatus{}
	overall := http.StatusOK

	if err := s.cache.Ping(ctx); err != nil {
		subsystems["store"] = subsystemStatus{Status: "error", Error: err.Error()}
		overall = http.StatusServiceUnavailable
	} else {
		subsystems["store"] = subsystemStatus{Status: "ok"}
	}

	status := "ok"
	if overall != http.StatusOK {
		status = "degraded"
	}
	writeJSONStatus(w, readinessResponse{Status: status, Subsystems: subsystems}, overall)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: constants.ServerConfig.ReadHeaderTimeout,
	}
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerConfig.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
