package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/minervhub/minervhub-api/internal/models"
)

const listingDetailColumns = `l.id, l.title, l.description, l.exam, l.degree_program, l.hourly_rate, l.available, l.exchange, l.author_id, l.created_at, l.updated_at,
        u.email AS author_email, u.first_name AS author_first_name, u.last_name AS author_last_name`

// ListingRepository manages persistence for tutoring listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository constructs a ListingRepository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// FindByID fetches a listing with author detail, regardless of availability.
func (r *ListingRepository) FindByID(ctx context.Context, id int64) (*models.ListingDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings l JOIN users u ON u.id = l.author_id WHERE l.id = $1`, listingDetailColumns)
	var detail models.ListingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find listing by id: %w", err)
	}
	return &detail, nil
}

// FindAvailable returns all listings still exposed on the board.
func (r *ListingRepository) FindAvailable(ctx context.Context) ([]models.ListingDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings l JOIN users u ON u.id = l.author_id WHERE l.available = TRUE ORDER BY l.id DESC`, listingDetailColumns)
	var listings []models.ListingDetail
	if err := r.db.SelectContext(ctx, &listings, query); err != nil {
		return nil, fmt.Errorf("list available listings: %w", err)
	}
	return listings, nil
}

// FilterAvailable returns available listings matching every supplied criterion.
func (r *ListingRepository) FilterAvailable(ctx context.Context, filter models.ListingFilter) ([]models.ListingDetail, error) {
	conditions := []string{"l.available = TRUE"}
	var args []interface{}

	if filter.DegreeProgram != "" {
		conditions = append(conditions, fmt.Sprintf("l.degree_program = $%d", len(args)+1))
		args = append(args, filter.DegreeProgram)
	}
	if filter.Exam != "" {
		conditions = append(conditions, fmt.Sprintf("l.exam = $%d", len(args)+1))
		args = append(args, filter.Exam)
	}
	if filter.MaxRate != nil {
		conditions = append(conditions, fmt.Sprintf("l.hourly_rate <= $%d", len(args)+1))
		args = append(args, *filter.MaxRate)
	}

	query := fmt.Sprintf(`SELECT %s FROM listings l JOIN users u ON u.id = l.author_id WHERE %s ORDER BY l.id DESC`,
		listingDetailColumns, strings.Join(conditions, " AND "))

	var listings []models.ListingDetail
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("filter listings: %w", err)
	}
	return listings, nil
}

// FindByAuthor returns an author's listings by availability flag.
func (r *ListingRepository) FindByAuthor(ctx context.Context, authorID string, available bool) ([]models.ListingDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings l JOIN users u ON u.id = l.author_id WHERE l.author_id = $1 AND l.available = $2 ORDER BY l.id DESC`, listingDetailColumns)
	var listings []models.ListingDetail
	if err := r.db.SelectContext(ctx, &listings, query, authorID, available); err != nil {
		return nil, fmt.Errorf("list listings by author: %w", err)
	}
	return listings, nil
}

// Create inserts a new listing and assigns its generated id.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	const query = `INSERT INTO listings (title, description, exam, degree_program, hourly_rate, available, exchange, author_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &listing.ID, query,
		listing.Title, listing.Description, listing.Exam, listing.DegreeProgram,
		listing.HourlyRate, listing.Available, listing.Exchange, listing.AuthorID,
		listing.CreatedAt, listing.UpdatedAt); err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of an existing listing.
func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	listing.UpdatedAt = time.Now().UTC()
	const query = `UPDATE listings SET title = :title, description = :description, exam = :exam, degree_program = :degree_program, hourly_rate = :hourly_rate, exchange = :exchange, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, listing); err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// SetAvailability flips the availability flag; available=false is the board's
// soft delete.
func (r *ListingRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	const query = `UPDATE listings SET available = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, available, time.Now().UTC()); err != nil {
		return fmt.Errorf("set listing availability: %w", err)
	}
	return nil
}
