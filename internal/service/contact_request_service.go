package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minervhub/minervhub-api/internal/models"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
)

const maxRequestMessageLen = 200

type contactRequestRepository interface {
	Create(ctx context.Context, request *models.ContactRequest) error
	FindByID(ctx context.Context, id int64) (*models.ContactRequestDetail, error)
	FindAllByRecipient(ctx context.Context, recipientID string) ([]models.ContactRequestDetail, error)
	FindAllBySender(ctx context.Context, senderID string) ([]models.ContactRequestDetail, error)
	ExistsPending(ctx context.Context, senderID string, listingID int64) (bool, error)
	UpdateDecision(ctx context.Context, id int64, status models.RequestStatus, reply *string) error
	Delete(ctx context.Context, id int64) error
}

type requestUserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type requestListingStore interface {
	FindByID(ctx context.Context, id int64) (*models.ListingDetail, error)
}

// SendRequestInput carries the caller identity and payload for sending a
// contact request.
type SendRequestInput struct {
	SenderEmail string
	ListingID   int64
	Message     string
}

// HandleRequestInput carries the recipient decision on a received request.
type HandleRequestInput struct {
	RequestID      int64
	RecipientEmail string
	NewStatus      string
	Reply          string
}

// ContactRequestService manages the contact request lifecycle between an
// allievo (sender) and the tutor who authored the listing.
type ContactRequestService struct {
	requests contactRequestRepository
	users    requestUserDirectory
	listings requestListingStore
	logger   *zap.Logger
}

// NewContactRequestService constructs the contact request service.
func NewContactRequestService(requests contactRequestRepository, users requestUserDirectory, listings requestListingStore, logger *zap.Logger) *ContactRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactRequestService{requests: requests, users: users, listings: listings, logger: logger}
}

// Send creates a pending request from the sender toward the listing author.
func (s *ContactRequestService) Send(ctx context.Context, input SendRequestInput) (*models.ContactRequest, error) {
	sender, err := s.users.FindByEmail(ctx, input.SenderEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sender")
	}

	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}

	if listing.AuthorID == sender.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot contact yourself")
	}

	pending, err := s.requests.ExistsPending(ctx, sender.ID, listing.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a pending request already exists for this listing")
	}

	if len(input.Message) > maxRequestMessageLen {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message cannot exceed 200 characters")
	}

	request := &models.ContactRequest{
		Message:     input.Message,
		Status:      models.RequestPending,
		SenderID:    sender.ID,
		RecipientID: listing.AuthorID,
		ListingID:   listing.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.logger.Info("contact request sent",
		zap.Int64("request_id", request.ID),
		zap.Int64("listing_id", listing.ID),
		zap.String("sender_id", sender.ID))
	return request, nil
}

// ListReceived returns requests addressed to the user, newest first. An
// unknown email yields an empty list, not an error.
func (s *ContactRequestService) ListReceived(ctx context.Context, recipientEmail string) ([]models.ContactRequestDetail, error) {
	recipient, err := s.users.FindByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.ContactRequestDetail{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}
	requests, err := s.requests.FindAllByRecipient(ctx, recipient.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list received requests")
	}
	return requests, nil
}

// ListSent returns requests created by the user, newest first.
func (s *ContactRequestService) ListSent(ctx context.Context, senderEmail string) ([]models.ContactRequestDetail, error) {
	sender, err := s.users.FindByEmail(ctx, senderEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.ContactRequestDetail{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sender")
	}
	requests, err := s.requests.FindAllBySender(ctx, sender.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sent requests")
	}
	return requests, nil
}

// Handle applies the recipient's decision to a request. Only the recipient
// may decide; the status must be exactly ACCEPTED or DECLINED. Re-handling an
// already decided request overwrites the previous decision and reply.
func (s *ContactRequestService) Handle(ctx context.Context, input HandleRequestInput) error {
	request, err := s.requests.FindByID(ctx, input.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	if request.RecipientEmail != input.RecipientEmail {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not the recipient of this request")
	}

	status := models.RequestStatus(input.NewStatus)
	if !status.ValidDecision() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be ACCEPTED or DECLINED")
	}

	var reply *string
	if strings.TrimSpace(input.Reply) != "" {
		if len(input.Reply) > maxRequestMessageLen {
			return appErrors.Clone(appErrors.ErrValidation, "reply cannot exceed 200 characters")
		}
		reply = &input.Reply
	}

	if err := s.requests.UpdateDecision(ctx, request.ID, status, reply); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}

	s.logger.Info("contact request handled",
		zap.Int64("request_id", request.ID),
		zap.String("status", string(status)))
	return nil
}

// Cancel lets the sender withdraw a request that is still pending. Handled
// requests cannot be cancelled; the record is deleted permanently.
func (s *ContactRequestService) Cancel(ctx context.Context, requestID int64, senderEmail string) error {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	if request.SenderEmail != senderEmail {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not the sender of this request")
	}

	if request.Status != models.RequestPending {
		return appErrors.Clone(appErrors.ErrConflict, "cannot cancel a request that has already been handled")
	}

	if err := s.requests.Delete(ctx, request.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}

	s.logger.Info("contact request cancelled", zap.Int64("request_id", request.ID))
	return nil
}
