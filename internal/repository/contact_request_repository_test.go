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

func requestRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "message", "reply", "status", "sender_id", "recipient_id", "listing_id", "created_at",
		"sender_email", "sender_name", "recipient_email", "recipient_name", "listing_title",
	}).AddRow(int64(1), "Ciao, sei disponibile?", nil, string(models.RequestPending), "u1", "u2", int64(100), now,
		"a@studenti.it", "Mario Rossi", "b@studenti.it", "Giulia Verdi", "Ripetizioni di Analisi")
}

func TestContactRequestCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRequestRepository(db)

	mock.ExpectQuery("INSERT INTO contact_requests").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	request := &models.ContactRequest{Message: "Ciao", Status: models.RequestPending, SenderID: "u1", RecipientID: "u2", ListingID: 100}
	err := repo.Create(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, int64(42), request.ID)
	assert.False(t, request.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRequestFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRequestRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM contact_requests r").
		WithArgs(int64(1)).
		WillReturnRows(requestRows(time.Now()))

	request, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.Status)
	assert.Equal(t, "b@studenti.it", request.RecipientEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRequestFindAllByRecipient(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.recipient_id = $1 ORDER BY r.created_at DESC")).
		WithArgs("u2").
		WillReturnRows(requestRows(time.Now()))

	requests, err := repo.FindAllByRecipient(context.Background(), "u2")
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRequestExistsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM contact_requests WHERE sender_id = $1 AND listing_id = $2 AND status = $3 LIMIT 1")).
		WithArgs("u1", int64(100), string(models.RequestPending)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsPending(context.Background(), "u1", 100)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRequestUpdateDecisionWithReply(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRequestRepository(db)

	reply := "Certo, scrivimi"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_requests SET status = $2, reply = $3 WHERE id = $1")).
		WithArgs(int64(1), string(models.RequestAccepted), reply).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDecision(context.Background(), 1, models.RequestAccepted, &reply)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRequestDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contact_requests WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
