package profile

import (
	"context"

	"github.com/kapu/linkedin-profile-edge/internal/domain"
	"github.com/kapu/linkedin-profile-edge/internal/service/linkedin"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	"go.uber.org/zap"
)

type Fetcher interface {
	Fetch(ctx context.Context, username string) (domain.ProfileRecord, error)
}

type Cache interface {
	Read(ctx context.Context, username string) (domain.ProfileRecord, bool)
	Write(ctx context.Context, username string, record domain.ProfileRecord) error
}

// Scraper resolves a profile URL to a profile document, preferring the cache.
// Concurrent scrapes of the same username are not de-duplicated.
type Scraper struct {
	cache   Cache
	fetcher Fetcher
	logger  *zap.Logger
}

func NewScraper(cache Cache, fetcher Fetcher, logger *zap.Logger) *Scraper {
	return &Scraper{
		cache:   cache,
		fetcher: fetcher,
		logger:  logger,
	}
}

func (s *Scraper) Scrape(ctx context.Context, rawURL string) (domain.ProfileRecord, error) {
	s.logger.Info("Starting profile scrape", zap.String("url", rawURL))

	username, ok := linkedin.ExtractUsername(rawURL)
	if !ok {
		s.logger.Warn("Failed to extract username", zap.String("url", rawURL))
		return nil, apperrors.NewValidationError("Could not extract a valid LinkedIn username.", "linkedinUrl", rawURL)
	}

	if record, hit := s.cache.Read(ctx, username); hit {
		return record, nil
	}

	record, err := s.fetcher.Fetch(ctx, username)
	if err != nil {
		return nil, err
	}

	// Write failures are already logged by the cache; the fetched record is still returned.
	_ = s.cache.Write(ctx, username, record)

	return record, nil
}
