package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minervhub/minervhub-api/internal/models"
)

func listingRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "exam", "degree_program", "hourly_rate", "available", "exchange", "author_id", "created_at", "updated_at",
		"author_email", "author_first_name", "author_last_name",
	}).AddRow(int64(100), "Ripetizioni di Analisi", "Esercizi e teoria", "Analisi 1", "Informatica", 15, true, "Fisica 1,Logica", "u2", now, now,
		"tutor@studenti.it", "Giulia", "Verdi")
}

func TestListingFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM listings l JOIN users u ON u.id = l.author_id WHERE l.id = ").
		WithArgs(int64(100)).
		WillReturnRows(listingRows(time.Now()))

	listing, err := repo.FindByID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), listing.ID)
	assert.Equal(t, "tutor@studenti.it", listing.AuthorEmail)
	assert.Equal(t, []string{"Fisica 1", "Logica"}, listing.ExchangeTopics())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingFilterAvailable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	maxRate := 20
	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.available = TRUE AND l.degree_program = $1 AND l.hourly_rate <= $2 ORDER BY l.id DESC")).
		WithArgs("Informatica", 20).
		WillReturnRows(listingRows(time.Now()))

	listings, err := repo.FilterAvailable(context.Background(), models.ListingFilter{DegreeProgram: "Informatica", MaxRate: &maxRate})
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingFilterAvailableNoFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.available = TRUE ORDER BY l.id DESC")).
		WillReturnRows(listingRows(time.Now()))

	listings, err := repo.FilterAvailable(context.Background(), models.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectQuery("INSERT INTO listings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	listing := &models.Listing{Title: "Ripetizioni", Description: "desc", Exam: "Analisi 1", DegreeProgram: "Informatica", HourlyRate: 15, Available: true, AuthorID: "u2"}
	err := repo.Create(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, int64(7), listing.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingSetAvailability(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings SET available = $2, updated_at = $3 WHERE id = $1")).
		WithArgs(int64(100), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetAvailability(context.Background(), 100, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
