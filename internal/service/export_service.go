package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/export"
)

const exportPageSize = 100

type ledgerReader interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be sent to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders the enrollment ledger as CSV or PDF.
type ExportService struct {
	ledger ledgerReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(ledger ledgerReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = &export.PDFExporter{Landscape: true}
	}
	return &ExportService{ledger: ledger, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// EnrollmentLedger renders every enrollment, optionally narrowed to one status.
func (s *ExportService) EnrollmentLedger(ctx context.Context, format export.Format, status models.EnrollmentStatus) (*ExportFile, error) {
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	rows, err := s.collect(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	generatedAt := s.now().UTC()
	dataset := ledgerDataset(rows)
	var payload []byte
	switch format {
	case export.FormatCSV:
		payload, err = s.csv.Render(dataset)
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Enrollment Ledger %s", generatedAt.Format("2006-01-02")))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("enrollment ledger exported", zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("enrollments_%s.%s", generatedAt.Format("20060102_150405"), format.Extension()),
		ContentType: format.ContentType(),
		Data:        payload,
		Rows:        len(rows),
	}, nil
}

func (s *ExportService) collect(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	var all []models.EnrollmentDetail
	for page := 1; ; page++ {
		rows, total, err := s.ledger.List(ctx, models.EnrollmentFilter{Status: status, Page: page, PageSize: exportPageSize, SortBy: "enrollment_date", SortOrder: "asc"})
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < exportPageSize || len(all) >= total {
			return all, nil
		}
	}
}

var ledgerHeaders = []string{"Student", "ID Number", "Grade", "Enrollment Days", "Days Remaining", "Status", "Enrolled", "Last Updated"}

func ledgerDataset(rows []models.EnrollmentDetail) export.Dataset {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]string{
			"Student":         row.StudentName,
			"ID Number":       row.StudentIDNumber,
			"Grade":           strconv.Itoa(row.Grade),
			"Enrollment Days": strconv.Itoa(row.EnrollmentDays),
			"Days Remaining":  strconv.Itoa(row.DaysRemaining),
			"Status":          string(row.Status),
			"Enrolled":        row.EnrollmentDate.UTC().Format("2006-01-02"),
			"Last Updated":    row.LastUpdated.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: ledgerHeaders, Rows: out}
}
