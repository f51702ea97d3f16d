package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kapu/linkedin-profile-edge/internal/config"
	"github.com/kapu/linkedin-profile-edge/internal/server"
	"github.com/kapu/linkedin-profile-edge/internal/service/cache"
	"github.com/kapu/linkedin-profile-edge/internal/service/chat"
	"github.com/kapu/linkedin-profile-edge/internal/service/database"
	"github.com/kapu/linkedin-profile-edge/internal/service/profile"
	"go.uber.org/zap"
)

// Container bundles the assembled services behind the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Server *server.Server

	closers []func()
}

// Close releases store connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles the profile pipeline, chat bridge and HTTP server. Store connections
// are opened here; credentials for the scraping and chat APIs are checked per request.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	store, err := newStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() {
		_ = store.Close()
	})

	httpClient := &http.Client{}

	gateway := profile.NewCacheGateway(store, logger)
	fetcher := profile.NewRapidAPIFetcher(httpClient, profile.RapidAPIConfig{
		APIKey:  cfg.RapidAPI.APIKey,
		Host:    cfg.RapidAPI.Host,
		BaseURL: cfg.RapidAPI.BaseURL,
	}, logger)
	scraper := profile.NewScraper(gateway, fetcher, logger)

	provider, err := chat.NewProvider(ctx, cfg.Chat, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat provider: %w", err)
	}
	bridge := chat.NewBridge(provider, scraper, logger)

	logger.Info("Services assembled",
		zap.String("store", store.Name()),
		zap.String("chat_provider", provider.Name()),
		zap.Bool("rapidapi_key_set", cfg.RapidAPI.APIKey != ""),
	)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Server:  server.NewServer(scraper, gateway, bridge, cfg.Server, logger),
		closers: closers,
	}, nil
}

func newStore(cfg config.StoreConfig, logger *zap.Logger) (cache.Store, error) {
	switch cfg.Backend {
	case config.StoreBackendRedis:
		store, err := cache.NewRedisStore(cache.CacheConfig{
			Host:      cfg.Redis.Host,
			Port:      cfg.Redis.Port,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		return store, nil
	case config.StoreBackendPostgres:
		store, err := database.NewPostgresStore(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		return store, nil
	case config.StoreBackendMemory:
		logger.Warn("Using in-memory profile store; entries are lost on restart")
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}
