package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minervhub/minervhub-api/internal/models"
	"github.com/minervhub/minervhub-api/pkg/export"
	appErrors "github.com/minervhub/minervhub-api/pkg/errors"
)

// ExportFormat identifies a supported board export format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type boardLister interface {
	ListFiltered(ctx context.Context, filter models.ListingFilter) ([]models.ListingDetail, error)
}

// ExportResult carries a rendered board snapshot ready to stream to a client.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the current board as a downloadable file.
type ExportService struct {
	board  boardLister
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(board boardLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{board: board, csv: csv, pdf: pdf, logger: logger}
}

// ExportBoard renders the listings matching the filter in the requested format.
func (s *ExportService) ExportBoard(ctx context.Context, filter models.ListingFilter, format ExportFormat) (*ExportResult, error) {
	listings, err := s.board.ListFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := buildBoardDataset(listings)
	timestamp := time.Now().UTC().Format("20060102_150405")

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Tutoring Board")
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render board export")
	}

	s.logger.Info("board exported",
		zap.String("format", string(format)),
		zap.Int("listings", len(listings)))

	return &ExportResult{
		Filename:    fmt.Sprintf("board_%s.%s", timestamp, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildBoardDataset(listings []models.ListingDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, map[string]string{
			"ID":             strconv.FormatInt(l.ID, 10),
			"Title":          l.Title,
			"Exam":           l.Exam,
			"Degree Program": l.DegreeProgram,
			"Hourly Rate":    strconv.Itoa(l.HourlyRate),
			"Exchange":       strings.Join(l.ExchangeTopics(), "; "),
			"Author":         fmt.Sprintf("%s %s", l.AuthorFirstName, l.AuthorLastName),
			"Published":      l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Headers: []string{"ID", "Title", "Exam", "Degree Program", "Hourly Rate", "Exchange", "Author", "Published"},
		Rows:    rows,
	}
}
