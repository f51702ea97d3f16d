package profile

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/kapu/linkedin-profile-edge/internal/domain"
	"github.com/kapu/linkedin-profile-edge/internal/service/cache"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	"go.uber.org/zap"
)

// CacheGateway reads and writes profile documents through a key-value store. Store
// faults never escape Read or the scrape flow; they are logged and treated as a miss.
type CacheGateway struct {
	store  cache.Store
	logger *zap.Logger
}

func NewCacheGateway(store cache.Store, logger *zap.Logger) *CacheGateway {
	return &CacheGateway{
		store:  store,
		logger: logger,
	}
}

func (g *CacheGateway) StoreName() string {
	return g.store.Name()
}

// Read returns the cached profile for username, or false on a miss or any fault.
func (g *CacheGateway) Read(ctx context.Context, username string) (domain.ProfileRecord, bool) {
	g.logger.Debug("Checking profile cache", zap.String("username", username))

	value, found, err := g.store.Get(ctx, username)
	if err != nil {
		g.logger.Error("Profile cache read failed, falling back to live fetch",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, false
	}
	if !found {
		g.logger.Info("Profile cache miss", zap.String("username", username))
		return nil, false
	}

	if !json.Valid([]byte(value)) {
		g.logger.Error("Cached profile is not valid JSON, falling back to live fetch",
			zap.String("username", username),
			zap.Int("length", len(value)),
		)
		return nil, false
	}

	g.logger.Info("Profile cache hit",
		zap.String("username", username),
		zap.Int("length", len(value)),
	)
	return domain.ProfileRecord(value), true
}

// Write stores record under username without expiry, then reads it back once to log
// whether the entry is visible. The read-back never changes the result.
func (g *CacheGateway) Write(ctx context.Context, username string, record domain.ProfileRecord) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, record); err != nil {
		g.logger.Error("Profile serialization failed", zap.String("username", username), zap.Error(err))
		return apperrors.NewCacheError("serialize failed", "set", username, err)
	}

	if err := g.store.Put(ctx, username, buf.String()); err != nil {
		g.logger.Error("Profile cache write failed", zap.String("username", username), zap.Error(err))
		return err
	}

	g.logger.Info("Profile cached",
		zap.String("username", username),
		zap.Int("length", buf.Len()),
	)

	if _, found, err := g.store.Get(ctx, username); err != nil || !found {
		g.logger.Warn("Profile cache verification failed",
			zap.String("username", username),
			zap.Bool("found", found),
			zap.Error(err),
		)
	} else {
		g.logger.Debug("Profile cache verification succeeded", zap.String("username", username))
	}

	return nil
}

// Lookup returns the raw stored text and surfaces store errors to the caller.
func (g *CacheGateway) Lookup(ctx context.Context, username string) (string, bool, error) {
	return g.store.Get(ctx, username)
}

func (g *CacheGateway) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}
