package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

const (
	// maxImportBytes caps an imported document, raw or multipart.
	maxImportBytes = 8 << 20

	exportFilename = "quotes.json"
	importFormFile = "file"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// ListQuotes handles GET /api/v1/quotes
// Returns the quotes of a category, oldest first, one page at a time.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param category query string false "Category, or all"
// @Param limit query int false "Page size (1-100)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	category := req.CategoryOrAll()
	quotes := h.service.ListQuotes(c.Request.Context(), category)

	page, err := dto.Paginate(dto.QuotesFromDomain(quotes), category, req.PaginationRequest)
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, page)
}

// AddQuote handles POST /api/v1/quotes
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.AddQuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	quote, err := h.service.AddQuote(c.Request.Context(), app.AddQuoteInput{
		Text:     req.Text,
		Category: req.Category,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.QuoteFromDomain(quote))
}

// GetRandomQuote handles GET /api/v1/quotes/random
//
// @Summary Get a random quote
// @Tags quotes
// @Produce json
// @Param category query string false "Category, or all"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	category := c.DefaultQuery("category", domain.CategoryAll)

	quote, err := h.service.RandomQuote(c.Request.Context(), category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QuoteFromDomain(quote))
}

// ListCategories handles GET /api/v1/categories
//
// @Summary List categories
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/categories [get]
func (h *QuoteHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: h.service.Categories(c.Request.Context()),
	})
}

// ExportQuotes handles GET /api/v1/quotes/export
// The collection is offered as a quotes.json download.
//
// @Summary Export quotes
// @Tags quotes
// @Produce json
// @Success 200 {file} file
// @Router /api/v1/quotes/export [get]
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	data, err := h.service.ExportQuotes(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// ImportQuotes handles POST /api/v1/quotes/import
// Accepts the document as the raw body or as a multipart "file" field.
//
// @Summary Import quotes
// @Tags quotes
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	data, err := readImport(c)
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	added, err := h.service.ImportQuotes(c.Request.Context(), data)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Added: added})
}

func readImport(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}

		return data, nil
	}

	header, err := c.FormFile(importFormFile)
	if err != nil {
		return nil, fmt.Errorf("reading form file %q: %w", importFormFile, err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return data, nil
}

// Sync handles POST /api/v1/sync
// Runs one reconciliation pass now. Unreachable sources yield a 503, but
// batches from the sources that did answer are still applied.
//
// @Summary Sync with remote sources
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.SyncResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *QuoteHandler) Sync(c *gin.Context) {
	result, err := h.service.Sync(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SyncFromResult(result))
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.GetRandomQuote)
	quotes.GET("/export", h.ExportQuotes)
	quotes.POST("/import", h.ImportQuotes)

	rg.GET("/categories", h.ListCategories)
	rg.POST("/sync", h.Sync)
}
