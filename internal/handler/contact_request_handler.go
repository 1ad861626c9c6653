package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/minervhub/minervhub-api/internal/service"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
	"github.com/minervhub/minervhub-api/pkg/response"
)

// ContactRequestHandler exposes the contact request lifecycle endpoints.
type ContactRequestHandler struct {
	service *service.ContactRequestService
}

// NewContactRequestHandler creates a new handler.
func NewContactRequestHandler(svc *service.ContactRequestService) *ContactRequestHandler {
	return &ContactRequestHandler{service: svc}
}

type sendRequestPayload struct {
	ListingID int64  `json:"listing_id" binding:"required"`
	Message   string `json:"message"`
}

type handleRequestPayload struct {
	Status string `json:"status" binding:"required"`
	Reply  string `json:"reply"`
}

// Send godoc
// @Summary Send a contact request
// @Description Send a contact request toward the author of a listing
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body sendRequestPayload true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /requests [post]
func (h *ContactRequestHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload sendRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	request, err := h.service.Send(c.Request.Context(), service.SendRequestInput{
		SenderEmail: claims.Email,
		ListingID:   payload.ListingID,
		Message:     payload.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, request)
}

// ListReceived godoc
// @Summary List received requests
// @Description List contact requests addressed to the current user, newest first
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/received [get]
func (h *ContactRequestHandler) ListReceived(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListReceived(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// ListSent godoc
// @Summary List sent requests
// @Description List contact requests created by the current user, newest first
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/sent [get]
func (h *ContactRequestHandler) ListSent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListSent(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// Handle godoc
// @Summary Decide on a request
// @Description Accept or decline a received request, with an optional reply
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body handleRequestPayload true "Decision payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/{id} [patch]
func (h *ContactRequestHandler) Handle(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "request id must be numeric"))
		return
	}

	var payload handleRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	if err := h.service.Handle(c.Request.Context(), service.HandleRequestInput{
		RequestID:      id,
		RecipientEmail: claims.Email,
		NewStatus:      payload.Status,
		Reply:          payload.Reply,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Cancel godoc
// @Summary Cancel a pending request
// @Description Withdraw a request that has not been handled yet
// @Tags Requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/{id} [delete]
func (h *ContactRequestHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "request id must be numeric"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, claims.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
