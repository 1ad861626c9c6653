package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/minervhub/minervhub-api/internal/service"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
	"github.com/minervhub/minervhub-api/pkg/response"
)

// ListingHandler exposes author-scoped listing management endpoints.
type ListingHandler struct {
	service *service.ListingService
}

// NewListingHandler creates a new handler.
func NewListingHandler(svc *service.ListingService) *ListingHandler {
	return &ListingHandler{service: svc}
}

// Create godoc
// @Summary Publish a listing
// @Description Publish a new tutoring listing authored by the current user
// @Tags Listings
// @Accept json
// @Produce json
// @Param payload body service.ListingRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}

	listing, err := h.service.Create(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, listing)
}

// Update godoc
// @Summary Update a listing
// @Description Update a listing authored by the current user
// @Tags Listings
// @Accept json
// @Produce json
// @Param id path int true "Listing ID"
// @Param payload body service.ListingRequest true "Listing payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /listings/{id} [put]
func (h *ListingHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "listing id must be numeric"))
		return
	}

	var req service.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}

	listing, err := h.service.Update(c.Request.Context(), id, claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, listing, nil)
}

// Delete godoc
// @Summary Retire a listing
// @Description Remove a listing from the public board
// @Tags Listings
// @Produce json
// @Param id path int true "Listing ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "listing id must be numeric"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, claims.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListMine godoc
// @Summary List own listings
// @Description List the current user's listings, active by default
// @Tags Listings
// @Produce json
// @Param available query bool false "Availability filter (default true)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /listings [get]
func (h *ListingHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	available := true
	if raw := c.Query("available"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "available must be a boolean"))
			return
		}
		available = parsed
	}

	listings, err := h.service.ListMine(c.Request.Context(), claims.Email, available)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, listings, nil)
}
