package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/minervhub/minervhub-api/internal/models"
	"github.com/minervhub/minervhub-api/internal/service"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
	"github.com/minervhub/minervhub-api/pkg/response"
)

// BoardHandler exposes the public listing board.
type BoardHandler struct {
	board  *service.BoardService
	export *service.ExportService
}

// NewBoardHandler creates a new handler. The export service may be nil when
// board exports are disabled.
func NewBoardHandler(board *service.BoardService, export *service.ExportService) *BoardHandler {
	return &BoardHandler{board: board, export: export}
}

// List godoc
// @Summary Browse the board
// @Description List available listings, optionally filtered by degree program, exam and maximum hourly rate
// @Tags Board
// @Produce json
// @Param degree_program query string false "Degree program filter"
// @Param exam query string false "Exam filter"
// @Param max_rate query int false "Maximum hourly rate (5-50)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /board [get]
func (h *BoardHandler) List(c *gin.Context) {
	filter, err := boardFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	listings, err := h.board.ListFiltered(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, listings, nil)
}

// Get godoc
// @Summary Get a listing
// @Description Fetch a single listing with author details
// @Tags Board
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /board/{id} [get]
func (h *BoardHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "listing id must be numeric"))
		return
	}

	listing, err := h.board.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, listing, nil)
}

// Export godoc
// @Summary Export the board
// @Description Download the current board as CSV or PDF
// @Tags Board
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format: csv or pdf (default csv)"
// @Param degree_program query string false "Degree program filter"
// @Param exam query string false "Exam filter"
// @Param max_rate query int false "Maximum hourly rate (5-50)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /board/export [get]
func (h *BoardHandler) Export(c *gin.Context) {
	if h.export == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "board export is disabled"))
		return
	}

	filter, err := boardFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.ExportBoard(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func boardFilterFromQuery(c *gin.Context) (models.ListingFilter, error) {
	filter := models.ListingFilter{
		DegreeProgram: c.Query("degree_program"),
		Exam:          c.Query("exam"),
	}
	if raw := c.Query("max_rate"); raw != "" {
		rate, err := strconv.Atoi(raw)
		if err != nil {
			return models.ListingFilter{}, appErrors.Clone(appErrors.ErrValidation, "max_rate must be numeric")
		}
		filter.MaxRate = &rate
	}
	return filter, nil
}
