package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pdf-page-api/internal/dto"
	"github.com/noah-isme/pdf-page-api/internal/models"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/export"
	"github.com/noah-isme/pdf-page-api/pkg/response"
)

type metadataService interface {
	List(ctx context.Context, req dto.MetadataListRequest) (*dto.MetadataListResponse, error)
	Get(ctx context.Context, filename string) (*models.PDFMetadata, error)
	AccessLogDataset(ctx context.Context, filename string) (*export.Dataset, error)
	Stats(ctx context.Context) (*models.ServiceStats, error)
}

// MetadataHandler exposes the admin metadata endpoints.
type MetadataHandler struct {
	service  metadataService
	exporter *export.CSVExporter
}

// NewMetadataHandler builds a new handler.
func NewMetadataHandler(service metadataService) *MetadataHandler {
	return &MetadataHandler{service: service, exporter: export.NewCSVExporter()}
}

// List godoc
// @Summary List tracked PDFs
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorBody
// @Failure 503 {object} response.ErrorBody
// @Router /admin/pdf-metadata [get]
func (h *MetadataHandler) List(c *gin.Context) {
	var req dto.MetadataListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pagination parameters"))
		return
	}
	res, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res.Items, map[string]interface{}{
		"total":  res.Total,
		"limit":  res.Limit,
		"offset": res.Offset,
	})
}

// Get godoc
// @Summary Get one PDF's metadata and access log
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param filename path string true "PDF file name"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admin/pdf-metadata/{filename} [get]
func (h *MetadataHandler) Get(c *gin.Context) {
	meta, err := h.service.Get(c.Request.Context(), c.Param("filename"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meta)
}

// AccessLogCSV godoc
// @Summary Export one PDF's access log as CSV
// @Tags Admin
// @Security BearerAuth
// @Produce text/csv
// @Param filename path string true "PDF file name"
// @Success 200 {file} file
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admin/pdf-metadata/{filename}/access-log.csv [get]
func (h *MetadataHandler) AccessLogCSV(c *gin.Context) {
	filename := c.Param("filename")
	dataset, err := h.service.AccessLogDataset(c.Request.Context(), filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", response.AttachmentDisposition(filename+"-access-log.csv"))
	c.Status(http.StatusOK)
	if err := h.exporter.Write(c.Writer, *dataset); err != nil {
		_ = c.Error(err)
	}
}

// Stats godoc
// @Summary Service counters
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorBody
// @Router /admin/stats [get]
func (h *MetadataHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
