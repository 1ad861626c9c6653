package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/minervhub/minervhub-api/internal/models"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
)

const maxExchangeSerializedLen = 150

type listingRepository interface {
	FindByID(ctx context.Context, id int64) (*models.ListingDetail, error)
	FindByAuthor(ctx context.Context, authorID string, available bool) ([]models.ListingDetail, error)
	Create(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	SetAvailability(ctx context.Context, id int64, available bool) error
}

type listingUserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ListingRequest holds the payload for creating or updating a listing.
type ListingRequest struct {
	Title         string `json:"title" validate:"required,max=50"`
	Description   string `json:"description" validate:"required,max=150"`
	Exam          string `json:"exam" validate:"required,max=50"`
	DegreeProgram string `json:"degree_program" validate:"required,max=50"`
	HourlyRate    int    `json:"hourly_rate" validate:"required,gte=5,lte=50"`
	Exchange      string `json:"exchange"`
}

type boardInvalidator interface {
	InvalidateBoardCache(ctx context.Context)
}

// ListingService handles author-scoped listing management.
type ListingService struct {
	repo      listingRepository
	users     listingUserDirectory
	board     boardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewListingService constructs the listing service.
func NewListingService(repo listingRepository, users listingUserDirectory, board boardInvalidator, validate *validator.Validate, logger *zap.Logger) *ListingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{repo: repo, users: users, board: board, validator: validate, logger: logger}
}

// Create publishes a new listing authored by the caller.
func (s *ListingService) Create(ctx context.Context, authorEmail string, req ListingRequest) (*models.Listing, error) {
	exchange, err := s.validateListing(req)
	if err != nil {
		return nil, err
	}

	author, err := s.users.FindByEmail(ctx, authorEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load author")
	}

	listing := &models.Listing{
		Title:         req.Title,
		Description:   req.Description,
		Exam:          req.Exam,
		DegreeProgram: req.DegreeProgram,
		HourlyRate:    req.HourlyRate,
		Available:     true,
		Exchange:      exchange,
		AuthorID:      author.ID,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}

	s.invalidateBoard(ctx)
	s.logger.Info("listing created", zap.Int64("listing_id", listing.ID), zap.String("author_id", author.ID))
	return listing, nil
}

// Update modifies an existing listing. Only the author may edit it.
func (s *ListingService) Update(ctx context.Context, id int64, authorEmail string, req ListingRequest) (*models.Listing, error) {
	exchange, err := s.validateListing(req)
	if err != nil {
		return nil, err
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}

	if detail.AuthorEmail != authorEmail {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the author of this listing")
	}

	listing := detail.Listing
	listing.Title = req.Title
	listing.Description = req.Description
	listing.Exam = req.Exam
	listing.DegreeProgram = req.DegreeProgram
	listing.HourlyRate = req.HourlyRate
	listing.Exchange = exchange
	if err := s.repo.Update(ctx, &listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update listing")
	}

	s.invalidateBoard(ctx)
	return &listing, nil
}

// Delete retires a listing from the board. The row is kept; availability is
// set to false so existing contact requests stay resolvable.
func (s *ListingService) Delete(ctx context.Context, id int64, authorEmail string) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}

	if detail.AuthorEmail != authorEmail {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not the author of this listing")
	}

	if err := s.repo.SetAvailability(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retire listing")
	}

	s.invalidateBoard(ctx)
	s.logger.Info("listing retired", zap.Int64("listing_id", id))
	return nil
}

// ListMine returns the caller's own listings filtered by availability. An
// unknown email yields an empty list.
func (s *ListingService) ListMine(ctx context.Context, authorEmail string, available bool) ([]models.ListingDetail, error) {
	author, err := s.users.FindByEmail(ctx, authorEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.ListingDetail{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load author")
	}
	listings, err := s.repo.FindByAuthor(ctx, author.ID, available)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list own listings")
	}
	for i := range listings {
		listings[i].Topics = listings[i].ExchangeTopics()
	}
	return listings, nil
}

// validateListing checks field limits and normalizes the exchange topics
// into their serialized form.
func (s *ListingService) validateListing(req ListingRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	exchange := models.JoinExchange(models.SplitExchange(req.Exchange))
	if len(exchange) > maxExchangeSerializedLen {
		return "", appErrors.Clone(appErrors.ErrValidation, "exchange topics cannot exceed 150 characters")
	}
	return exchange, nil
}

func (s *ListingService) invalidateBoard(ctx context.Context) {
	if s.board != nil {
		s.board.InvalidateBoardCache(ctx)
	}
}
