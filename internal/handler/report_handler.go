package handler

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/angelicadichon/eSumbong/internal/service"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
	"github.com/angelicadichon/eSumbong/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, format service.ExportFormat) (*service.ExportResult, error)
	OpenDownload(token string) (*os.File, string, error)
}

// ReportHandler serves report generation and signed downloads.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Export godoc
// @Summary Generate a complaint report
// @Tags Reports
// @Produce json
// @Param format query string false "Report format" Enums(csv, pdf) default(csv)
// @Success 200 {object} map[string]interface{}
// @Router /reports/export [get]
// @Security BearerAuth
func (h *ReportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	result, err := h.service.Generate(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"report": result})
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, filename, err := h.service.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(filename)+`"`)
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	http.ServeContent(c.Writer, c.Request, filepath.Base(filename), fileModTime(file), file)
}

func fileModTime(f *os.File) (t time.Time) {
	if info, err := f.Stat(); err == nil {
		t = info.ModTime()
	}
	return t
}
