package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/export"
	"github.com/andresuchdata/promo-dispatch/internal/service"
)

// AnalysisService is what the handler needs from service.AnalysisService.
type AnalysisService interface {
	AnalyzeFiles(ctx context.Context, inventory, targets service.File, in service.ParamsInput) (*domain.AnalysisReport, error)
	AnalyzeObjects(ctx context.Context, inventoryKey, targetsKey string, in service.ParamsInput) (*domain.AnalysisReport, error)
	Report(ctx context.Context, id string) (*domain.AnalysisReport, error)
	DeleteReport(ctx context.Context, id string) error
	Export(ctx context.Context, id string, w io.Writer) (string, error)
	ExportToStorage(ctx context.Context, id string) (string, error)
	Charts(ctx context.Context, id, group string) (*domain.ChartData, error)
}

type AnalysisHandler struct {
	service     AnalysisService
	maxFileSize int64
}

func NewAnalysisHandler(svc AnalysisService, maxUploadMB int) *AnalysisHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &AnalysisHandler{service: svc, maxFileSize: int64(maxUploadMB) << 20}
}

type objectAnalysisRequest struct {
	InventoryKey string  `json:"inventory_key" binding:"required"`
	TargetsKey   string  `json:"targets_key" binding:"required"`
	LeadTime     float64 `json:"lead_time"`
	CurrentDay   int     `json:"current_day"`
	Strategy     string  `json:"strategy"`
}

// Analyze handles a multipart upload of file_a (inventory) and file_b (targets).
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	in, err := service.ParseParams(c.PostForm("lead_time"), c.PostForm("current_day"), c.PostForm("strategy"))
	if err != nil {
		respondError(c, err)
		return
	}

	inventory, err := h.readUpload(c, "file_a")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	targets, err := h.readUpload(c, "file_b")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.AnalyzeFiles(c.Request.Context(), inventory, targets, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report.Overview())
}

// AnalyzeObjects runs an analysis over two workbooks already in object storage.
func (h *AnalysisHandler) AnalyzeObjects(c *gin.Context) {
	var req objectAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.LeadTime < 0 || req.CurrentDay < 0 {
		respondError(c, domain.InvalidParameterf("lead_time and current_day must not be negative"))
		return
	}

	in := service.ParamsInput{LeadTime: req.LeadTime, CurrentDay: req.CurrentDay, Strategy: req.Strategy}
	report, err := h.service.AnalyzeObjects(c.Request.Context(), req.InventoryKey, req.TargetsKey, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report.Overview())
}

// GetReport returns a stored report; ?view=overview omits the detailed rows.
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("view") == "overview" {
		c.JSON(http.StatusOK, report.Overview())
		return
	}
	c.JSON(http.StatusOK, report)
}

// DeleteReport drops a stored report.
func (h *AnalysisHandler) DeleteReport(c *gin.Context) {
	if err := h.service.DeleteReport(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadExport streams the xlsx workbook of a stored report.
func (h *AnalysisHandler) DownloadExport(c *gin.Context) {
	var buf bytes.Buffer
	name, err := h.service.Export(c.Request.Context(), c.Param("id"), &buf)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// UploadExport stores the xlsx workbook of a report in object storage.
func (h *AnalysisHandler) UploadExport(c *gin.Context) {
	key, err := h.service.ExportToStorage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

// GetCharts returns the dashboard series, optionally filtered by ?group=.
func (h *AnalysisHandler) GetCharts(c *gin.Context) {
	charts, err := h.service.Charts(c.Request.Context(), c.Param("id"), c.Query("group"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, charts)
}

func (h *AnalysisHandler) readUpload(c *gin.Context, field string) (service.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return service.File{}, fmt.Errorf("%s is required", field)
	}
	if header.Size > h.maxFileSize {
		return service.File{}, fmt.Errorf("%s exceeds the %d MB upload limit", field, h.maxFileSize>>20)
	}
	data, err := readAll(header)
	if err != nil {
		return service.File{}, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return service.File{Name: header.Filename, Data: data}, nil
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func respondError(c *gin.Context, err error) {
	status := service.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("analysis request failed")
	}
	_ = c.Error(err)
	c.JSON(status, service.ErrorBody(err))
}
