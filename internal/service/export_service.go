package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelicadichon/eSumbong/internal/models"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
	"github.com/angelicadichon/eSumbong/pkg/export"
)

// ExportFormat names the supported report formats.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type exportSource interface {
	ListAll(ctx context.Context) ([]models.Complaint, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type exportSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
}

// ExportResult describes a generated report file.
type ExportResult struct {
	ExportID    string    `json:"export_id"`
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	RowCount    int       `json:"row_count"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExportService generates complaint report files and hands out signed
// download tokens for them.
type ExportService struct {
	source       exportSource
	storage      exportStorage
	signer       exportSigner
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	downloadPath string
	logger       *zap.Logger
}

func NewExportService(source exportSource, storage exportStorage, signer exportSigner, downloadPath string, logger *zap.Logger) *ExportService {
	if downloadPath == "" {
		downloadPath = "/api/reports/download"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source:       source,
		storage:      storage,
		signer:       signer,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		downloadPath: downloadPath,
		logger:       logger,
	}
}

// Generate renders all live complaints as a report file, stores it and
// returns a signed download URL.
func (s *ExportService) Generate(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	if format != ExportCSV && format != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	complaints, err := s.source.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaints for export")
	}
	dataset := buildComplaintDataset(complaints)

	var rendered []byte
	switch format {
	case ExportCSV:
		rendered, err = s.csv.Render(dataset)
	case ExportPDF:
		rendered, err = s.pdf.Render(dataset, "Complaint Report")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("complaints-%s-%s.%s", time.Now().UTC().Format("20060102-150405"), exportID[:8], format)
	if _, err := s.storage.Save(filename, rendered); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(exportID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	s.logger.Info("report generated",
		zap.String("export_id", exportID),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)))

	return &ExportResult{
		ExportID:    exportID,
		Filename:    filename,
		Format:      string(format),
		RowCount:    len(dataset.Rows),
		DownloadURL: fmt.Sprintf("%s?token=%s", s.downloadPath, token),
		ExpiresAt:   expiresAt,
	}, nil
}

// OpenDownload validates a signed token and opens the report file it
// references. The caller owns the returned file handle.
func (s *ExportService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	f, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return f, relPath, nil
}

func buildComplaintDataset(complaints []models.Complaint) export.Dataset {
	headers := []string{"ID", "Submitted By", "Category", "Description", "Location", "Status", "Team", "Rating", "Created At", "Resolved At"}
	rows := make([]map[string]string, 0, len(complaints))
	for _, c := range complaints {
		row := map[string]string{
			"ID":           fmt.Sprintf("%d", c.ID),
			"Submitted By": c.Name,
			"Category":     c.Category,
			"Description":  strings.ReplaceAll(c.Description, "\n", " "),
			"Location":     c.Location,
			"Status":       string(c.Status),
			"Team":         "",
			"Rating":       "",
			"Created At":   c.CreatedAt.Format("2006-01-02 15:04"),
			"Resolved At":  "",
		}
		if c.AssignedTeam != nil {
			row["Team"] = *c.AssignedTeam
		}
		if c.Rating != nil {
			row["Rating"] = fmt.Sprintf("%d", *c.Rating)
		}
		if c.ResolvedAt != nil {
			row["Resolved At"] = c.ResolvedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
