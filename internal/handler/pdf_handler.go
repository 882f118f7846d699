package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pdf-page-api/internal/dto"
	"github.com/noah-isme/pdf-page-api/internal/service"
	"github.com/noah-isme/pdf-page-api/pkg/clientip"
	"github.com/noah-isme/pdf-page-api/pkg/response"
)

const (
	rootMessage  = "PDF page API is running"
	helloMessage = "Hello from the PDF page API"
)

type pdfService interface {
	OpenFile(ctx context.Context, req dto.FileRequest) (*service.PDFFile, error)
	ExtractPage(ctx context.Context, req dto.PageRequest, ip string) (*service.ExtractedPage, error)
}

// PDFHandler serves whole PDFs and single pages.
type PDFHandler struct {
	service pdfService
}

// NewPDFHandler builds a new handler.
func NewPDFHandler(service pdfService) *PDFHandler {
	return &PDFHandler{service: service}
}

// Root godoc
// @Summary Service status message
// @Tags System
// @Produce json
// @Success 200 {object} response.MessageBody
// @Router / [get]
func (h *PDFHandler) Root(c *gin.Context) {
	response.Message(c, http.StatusOK, rootMessage)
}

// Hello godoc
// @Summary Greeting
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/hello [get]
func (h *PDFHandler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"greeting": helloMessage})
}

// GetPDF godoc
// @Summary Fetch a whole PDF
// @Tags PDF
// @Produce application/pdf
// @Param filename query string true "PDF file name"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /pdf [get]
func (h *PDFHandler) GetPDF(c *gin.Context) {
	req := dto.FileRequest{Filename: c.Query("filename")}
	file, err := h.service.OpenFile(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Content.Close() //nolint:errcheck

	c.Set("filename", file.Name)
	c.DataFromReader(http.StatusOK, file.Size, "application/pdf", file.Content, map[string]string{
		"Content-Disposition": response.InlineDisposition(file.Name),
	})
}

// GetPage godoc
// @Summary Extract a single page as its own PDF
// @Description Records the access (page, client IP, time) against the file's metadata.
// @Tags PDF
// @Produce application/pdf
// @Param filename query string true "PDF file name"
// @Param page query int true "1-based page number"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 413 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Failure 503 {object} response.ErrorBody
// @Router /pdf/page [get]
func (h *PDFHandler) GetPage(c *gin.Context) {
	req := dto.PageRequest{Filename: c.Query("filename"), Page: c.Query("page")}
	c.Set("filename", req.Filename)

	page, err := h.service.ExtractPage(c.Request.Context(), req, clientip.FromRequest(c.Request))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Page-Count", strconv.Itoa(page.PageCount))
	if page.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	response.PDF(c, page.Filename, page.Data)
}
