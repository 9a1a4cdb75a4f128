package handler

import (
	"context"
	"strconv"

	catalogapp "github.com/erp/urlsync/internal/application/catalog"
	"github.com/erp/urlsync/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CategoryMover moves categories inside the tree
type CategoryMover interface {
	Move(ctx context.Context, categoryID, parentID int64, afterID *int64) (bool, error)
}

// CategoryHandler handles category tree endpoints
type CategoryHandler struct {
	BaseHandler
	mover CategoryMover
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(mover CategoryMover) *CategoryHandler {
	return &CategoryHandler{mover: mover}
}

// RegisterRoutes registers the category routes
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/categories/:id/move", h.Move)
}

// Move relocates a category under a new parent, after an optional sibling
func (h *CategoryHandler) Move(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	var req catalogapp.MoveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	moved, err := h.mover.Move(c.Request.Context(), categoryID, req.ParentID, req.AfterID)
	if err != nil {
		logger.GetGinLogger(c).Info("Category move rejected",
			zap.Int64("category_id", categoryID),
			zap.Int64("parent_id", req.ParentID),
			zap.Error(err),
		)
		h.HandleError(c, err)
		return
	}

	h.Success(c, catalogapp.MoveCategoryResponse{
		CategoryID: categoryID,
		ParentID:   req.ParentID,
		Moved:      moved,
	})
}

// parseIDParam reads a positive int64 path parameter
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
