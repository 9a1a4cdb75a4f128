package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	catalogapp "github.com/erp/urlsync/internal/application/catalog"
	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/erp/urlsync/internal/interfaces/http/dto"
	"github.com/erp/urlsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry an async regeneration without queueing it twice
const IdempotencyKeyHeader = "Idempotency-Key"

// URLRewriteLister reads the rewrites of a category in one store
type URLRewriteLister interface {
	ListForCategory(ctx context.Context, categoryID, storeID int64) ([]catalogapp.URLRewriteResponse, error)
}

// URLRewriteHandler handles URL rewrite endpoints
type URLRewriteHandler struct {
	BaseHandler
	regenerator catalogapp.BatchRegenerator
	lister      URLRewriteLister
	publisher   shared.EventPublisher
}

// NewURLRewriteHandler creates a new URLRewriteHandler
func NewURLRewriteHandler(regenerator catalogapp.BatchRegenerator, lister URLRewriteLister) *URLRewriteHandler {
	return &URLRewriteHandler{regenerator: regenerator, lister: lister}
}

// WithEventPublisher enables async regeneration requests
func (h *URLRewriteHandler) WithEventPublisher(publisher shared.EventPublisher) *URLRewriteHandler {
	h.publisher = publisher
	return h
}

// RegisterRoutes registers the url rewrite routes
func (h *URLRewriteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/url-rewrites/regenerate", h.Regenerate)
	rg.GET("/categories/:id/url-rewrites", h.ListForCategory)
}

// Regenerate runs a regeneration batch synchronously and returns its report.
// Per-unit failures are listed in the report; an aborted batch answers 500
// with the partial report. With "async" set the batch is published as a
// CategoriesImported event and the request answers 202 right away.
func (h *URLRewriteHandler) Regenerate(c *gin.Context) {
	var req catalogapp.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if req.Async {
		h.enqueue(c, req.CategoryIDs)
		return
	}

	report, err := h.regenerator.Completed(c.Request.Context(), req.CategoryIDs)
	if err != nil {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeRegenerationFailed, err.Error(), middleware.GetRequestID(c))
		if report != nil {
			resp.Data = catalogapp.ToRegenerationReportResponse(report)
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	h.Success(c, catalogapp.ToRegenerationReportResponse(report))
}

func (h *URLRewriteHandler) enqueue(c *gin.Context, ids []int64) {
	if h.publisher == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, "Async regeneration is not available")
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	event := catalog.NewCategoriesImportedEvent(ids).WithIdempotencyKey(key)
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(catalogapp.RegenerationAcceptedResponse{
		EventID:        event.EventID().String(),
		CategoryIDs:    ids,
		IdempotencyKey: key,
	}))
}

// ListForCategory lists the rewrites and redirects of a category in a store
func (h *URLRewriteHandler) ListForCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}
	storeID, err := strconv.ParseInt(c.Query("store_id"), 10, 64)
	if err != nil || storeID <= 0 {
		h.BadRequest(c, "store_id query parameter is required")
		return
	}

	rewrites, err := h.lister.ListForCategory(c.Request.Context(), categoryID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rewrites)
}
