package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/minervhub/minervhub-api/internal/models"
)

const requestDetailColumns = `r.id, r.message, r.reply, r.status, r.sender_id, r.recipient_id, r.listing_id, r.created_at,
        s.email AS sender_email, s.first_name || ' ' || s.last_name AS sender_name,
        t.email AS recipient_email, t.first_name || ' ' || t.last_name AS recipient_name,
        l.title AS listing_title`

const requestDetailJoins = `FROM contact_requests r
        JOIN users s ON s.id = r.sender_id
        JOIN users t ON t.id = r.recipient_id
        JOIN listings l ON l.id = r.listing_id`

// ContactRequestRepository manages persistence for contact requests.
type ContactRequestRepository struct {
	db *sqlx.DB
}

// NewContactRequestRepository constructs a ContactRequestRepository.
func NewContactRequestRepository(db *sqlx.DB) *ContactRequestRepository {
	return &ContactRequestRepository{db: db}
}

// Create inserts a new request and assigns its generated id.
func (r *ContactRequestRepository) Create(ctx context.Context, request *models.ContactRequest) error {
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contact_requests (message, reply, status, sender_id, recipient_id, listing_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &request.ID, query,
		request.Message, request.Reply, request.Status,
		request.SenderID, request.RecipientID, request.ListingID,
		request.CreatedAt); err != nil {
		return fmt.Errorf("create contact request: %w", err)
	}
	return nil
}

// FindByID fetches a request with counterpart and listing detail.
func (r *ContactRequestRepository) FindByID(ctx context.Context, id int64) (*models.ContactRequestDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.id = $1`, requestDetailColumns, requestDetailJoins)
	var detail models.ContactRequestDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find contact request by id: %w", err)
	}
	return &detail, nil
}

// FindAllByRecipient returns requests received by a user, newest first.
func (r *ContactRequestRepository) FindAllByRecipient(ctx context.Context, recipientID string) ([]models.ContactRequestDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.recipient_id = $1 ORDER BY r.created_at DESC`, requestDetailColumns, requestDetailJoins)
	var requests []models.ContactRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, recipientID); err != nil {
		return nil, fmt.Errorf("list received requests: %w", err)
	}
	return requests, nil
}

// FindAllBySender returns requests sent by a user, newest first.
func (r *ContactRequestRepository) FindAllBySender(ctx context.Context, senderID string) ([]models.ContactRequestDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.sender_id = $1 ORDER BY r.created_at DESC`, requestDetailColumns, requestDetailJoins)
	var requests []models.ContactRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, senderID); err != nil {
		return nil, fmt.Errorf("list sent requests: %w", err)
	}
	return requests, nil
}

// ExistsPending checks for an open request by the sender on the listing. The
// schema backs this with a partial unique index on (sender_id, listing_id)
// WHERE status = 'PENDING', which closes the check-then-insert race.
func (r *ContactRequestRepository) ExistsPending(ctx context.Context, senderID string, listingID int64) (bool, error) {
	const query = `SELECT 1 FROM contact_requests WHERE sender_id = $1 AND listing_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, senderID, listingID, models.RequestPending); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return true, nil
}

// UpdateDecision sets the request status and, when reply is non-nil,
// overwrites the stored reply.
func (r *ContactRequestRepository) UpdateDecision(ctx context.Context, id int64, status models.RequestStatus, reply *string) error {
	if reply != nil {
		const query = `UPDATE contact_requests SET status = $2, reply = $3 WHERE id = $1`
		if _, err := r.db.ExecContext(ctx, query, id, status, *reply); err != nil {
			return fmt.Errorf("update contact request decision: %w", err)
		}
		return nil
	}
	const query = `UPDATE contact_requests SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update contact request status: %w", err)
	}
	return nil
}

// Delete removes the request row permanently.
func (r *ContactRequestRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM contact_requests WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete contact request: %w", err)
	}
	return nil
}
