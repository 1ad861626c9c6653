package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minervhub/minervhub-api/internal/models"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
)

const (
	maxFilterFieldLen = 50
	minHourlyRate     = 5
	maxHourlyRate     = 50

	boardCachePrefix = "board:listings"
)

type boardListingRepository interface {
	FindByID(ctx context.Context, id int64) (*models.ListingDetail, error)
	FindAvailable(ctx context.Context) ([]models.ListingDetail, error)
	FilterAvailable(ctx context.Context, filter models.ListingFilter) ([]models.ListingDetail, error)
}

// BoardService answers read queries over the public listing board.
type BoardService struct {
	listings boardListingRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewBoardService constructs the board service.
func NewBoardService(listings boardListingRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *BoardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardService{listings: listings, cache: cache, metrics: metrics, logger: logger}
}

// ListAvailable returns every listing still exposed on the board.
func (s *BoardService) ListAvailable(ctx context.Context) ([]models.ListingDetail, error) {
	return s.ListFiltered(ctx, models.ListingFilter{})
}

// ListFiltered returns available listings matching the supplied criteria.
// Blank filters impose no constraint; invalid ones are rejected rather than
// silently ignored.
func (s *BoardService) ListFiltered(ctx context.Context, filter models.ListingFilter) ([]models.ListingDetail, error) {
	filter.DegreeProgram = strings.TrimSpace(filter.DegreeProgram)
	filter.Exam = strings.TrimSpace(filter.Exam)

	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	key := boardCacheKey(filter)
	var cached []models.ListingDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	start := time.Now()
	listings, err := s.listings.FilterAvailable(ctx, filter)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("board_filter", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query board")
	}
	for i := range listings {
		listings[i].Topics = listings[i].ExchangeTopics()
	}

	if err := s.cache.Set(ctx, key, listings, 0); err != nil {
		s.logger.Warn("board cache store failed", zap.Error(err))
	}
	return listings, nil
}

// GetByID returns a listing by id with no availability filter.
func (s *BoardService) GetByID(ctx context.Context, id int64) (*models.ListingDetail, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	listing.Topics = listing.ExchangeTopics()
	return listing, nil
}

func validateFilter(filter models.ListingFilter) error {
	if len(filter.DegreeProgram) > maxFilterFieldLen {
		return appErrors.Clone(appErrors.ErrValidation, "degree program filter cannot exceed 50 characters")
	}
	if len(filter.Exam) > maxFilterFieldLen {
		return appErrors.Clone(appErrors.ErrValidation, "exam filter cannot exceed 50 characters")
	}
	if filter.MaxRate != nil && (*filter.MaxRate < minHourlyRate || *filter.MaxRate > maxHourlyRate) {
		return appErrors.Clone(appErrors.ErrValidation, "hourly rate must be between 5 and 50")
	}
	return nil
}

func boardCacheKey(filter models.ListingFilter) string {
	rate := "-"
	if filter.MaxRate != nil {
		rate = fmt.Sprintf("%d", *filter.MaxRate)
	}
	return fmt.Sprintf("%s:%s:%s:%s", boardCachePrefix, filter.DegreeProgram, filter.Exam, rate)
}

// InvalidateBoardCache drops every cached board query. Listing writes call
// this so the board never serves stale rows past the TTL.
func (s *BoardService) InvalidateBoardCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, boardCachePrefix+":*"); err != nil {
		s.logger.Warn("board cache invalidation failed", zap.Error(err))
	}
}
