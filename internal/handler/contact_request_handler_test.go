package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minervhub/minervhub-api/internal/middleware"
	"github.com/minervhub/minervhub-api/internal/models"
	"github.com/minervhub/minervhub-api/internal/service"
	"github.com/minervhub/minervhub-api/pkg/response"
)

type requestRepoStub struct {
	nextID   int64
	requests map[int64]*models.ContactRequestDetail
}

func newRequestRepoStub() *requestRepoStub {
	return &requestRepoStub{nextID: 1, requests: make(map[int64]*models.ContactRequestDetail)}
}

func (s *requestRepoStub) Create(ctx context.Context, request *models.ContactRequest) error {
	request.ID = s.nextID
	s.nextID++
	s.requests[request.ID] = &models.ContactRequestDetail{ContactRequest: *request}
	return nil
}

func (s *requestRepoStub) FindByID(ctx context.Context, id int64) (*models.ContactRequestDetail, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return req, nil
}

func (s *requestRepoStub) FindAllByRecipient(ctx context.Context, recipientID string) ([]models.ContactRequestDetail, error) {
	out := []models.ContactRequestDetail{}
	for _, req := range s.requests {
		if req.RecipientID == recipientID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s *requestRepoStub) FindAllBySender(ctx context.Context, senderID string) ([]models.ContactRequestDetail, error) {
	out := []models.ContactRequestDetail{}
	for _, req := range s.requests {
		if req.SenderID == senderID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s *requestRepoStub) ExistsPending(ctx context.Context, senderID string, listingID int64) (bool, error) {
	for _, req := range s.requests {
		if req.SenderID == senderID && req.ListingID == listingID && req.Status == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *requestRepoStub) UpdateDecision(ctx context.Context, id int64, status models.RequestStatus, reply *string) error {
	req, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	req.Status = status
	if reply != nil {
		req.Reply = reply
	}
	return nil
}

func (s *requestRepoStub) Delete(ctx context.Context, id int64) error {
	delete(s.requests, id)
	return nil
}

type userDirectoryStub struct {
	users map[string]*models.User
}

func (s *userDirectoryStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type listingStoreStub struct {
	listings map[int64]*models.ListingDetail
}

func (s *listingStoreStub) FindByID(ctx context.Context, id int64) (*models.ListingDetail, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return listing, nil
}

func newRequestHandler() (*ContactRequestHandler, *requestRepoStub) {
	repo := newRequestRepoStub()
	users := &userDirectoryStub{users: map[string]*models.User{
		"anna@studenti.it":  {ID: "u-anna", Email: "anna@studenti.it"},
		"marco@studenti.it": {ID: "u-marco", Email: "marco@studenti.it"},
	}}
	listings := &listingStoreStub{listings: map[int64]*models.ListingDetail{
		100: {Listing: models.Listing{ID: 100, Title: "Analisi 1", AuthorID: "u-marco", Available: true}},
	}}
	svc := service.NewContactRequestService(repo, users, listings, zap.NewNop())
	return NewContactRequestHandler(svc), repo
}

func authedContext(t *testing.T, w *httptest.ResponseRecorder, method, target string, body []byte, email string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-" + email, Email: email})
	return c
}

func TestContactRequestHandlerSend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newRequestHandler()

	payload, _ := json.Marshal(sendRequestPayload{ListingID: 100, Message: "Hi"})
	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/requests", payload, "anna@studenti.it")

	handler.Send(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.requests, 1)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope.Data)
}

func TestContactRequestHandlerSendToOwnListing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newRequestHandler()

	payload, _ := json.Marshal(sendRequestPayload{ListingID: 100, Message: "Hi"})
	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/requests", payload, "marco@studenti.it")

	handler.Send(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestContactRequestHandlerSendInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newRequestHandler()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/requests", []byte(`{"listing_id":`), "anna@studenti.it")

	handler.Send(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactRequestHandlerHandleDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newRequestHandler()
	repo.requests[7] = &models.ContactRequestDetail{
		ContactRequest: models.ContactRequest{ID: 7, Status: models.RequestPending, SenderID: "u-anna", RecipientID: "u-marco", ListingID: 100},
		SenderEmail:    "anna@studenti.it",
		RecipientEmail: "marco@studenti.it",
	}

	payload, _ := json.Marshal(handleRequestPayload{Status: "ACCEPTED", Reply: "Sure"})
	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPatch, "/requests/7", payload, "marco@studenti.it")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Handle(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.RequestAccepted, repo.requests[7].Status)
}

func TestContactRequestHandlerHandleWrongRecipient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newRequestHandler()
	repo.requests[7] = &models.ContactRequestDetail{
		ContactRequest: models.ContactRequest{ID: 7, Status: models.RequestPending, SenderID: "u-anna", RecipientID: "u-marco", ListingID: 100},
		SenderEmail:    "anna@studenti.it",
		RecipientEmail: "marco@studenti.it",
	}

	payload, _ := json.Marshal(handleRequestPayload{Status: "ACCEPTED"})
	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPatch, "/requests/7", payload, "anna@studenti.it")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Handle(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestContactRequestHandlerCancelHandled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newRequestHandler()
	repo.requests[7] = &models.ContactRequestDetail{
		ContactRequest: models.ContactRequest{ID: 7, Status: models.RequestAccepted, SenderID: "u-anna", RecipientID: "u-marco", ListingID: 100},
		SenderEmail:    "anna@studenti.it",
		RecipientEmail: "marco@studenti.it",
	}

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodDelete, "/requests/7", nil, "anna@studenti.it")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Cancel(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestContactRequestHandlerListReceived(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newRequestHandler()
	repo.requests[7] = &models.ContactRequestDetail{
		ContactRequest: models.ContactRequest{ID: 7, Status: models.RequestPending, SenderID: "u-anna", RecipientID: "u-marco", ListingID: 100},
	}

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/requests/received", nil, "marco@studenti.it")

	handler.ListReceived(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	items, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}
