package catalog

import (
	"time"

	"github.com/erp/urlsync/internal/domain/catalog"
)

// MoveCategoryRequest represents a request to move a category
type MoveCategoryRequest struct {
	ParentID int64  `json:"parent_id" binding:"required,gt=0"`
	AfterID  *int64 `json:"after_id" binding:"omitempty,gte=0"`
}

// MoveCategoryResponse represents the result of a move
type MoveCategoryResponse struct {
	CategoryID int64 `json:"category_id"`
	ParentID   int64 `json:"parent_id"`
	Moved      bool  `json:"moved"`
}

// RegenerateRequest represents a request to regenerate category URLs
type RegenerateRequest struct {
	CategoryIDs []int64 `json:"category_ids" binding:"required,min=1,dive,gt=0"`
	Async       bool    `json:"async"`
}

// RegenerationAcceptedResponse acknowledges a batch queued for background regeneration
type RegenerationAcceptedResponse struct {
	EventID        string  `json:"event_id"`
	CategoryIDs    []int64 `json:"category_ids"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// RegenerationFailureResponse describes one failed (category, store) unit
type RegenerationFailureResponse struct {
	CategoryID int64  `json:"category_id"`
	StoreID    int64  `json:"store_id"`
	Error      string `json:"error"`
}

// RegenerationReportResponse represents the outcome of a regeneration batch
type RegenerationReportResponse struct {
	CategoryIDs []int64                       `json:"category_ids"`
	Purged      []int64                       `json:"purged"`
	Succeeded   int                           `json:"succeeded"`
	Failures    []RegenerationFailureResponse `json:"failures"`
	Completed   bool                          `json:"completed"`
	StartedAt   time.Time                     `json:"started_at"`
	DurationMS  int64                         `json:"duration_ms"`
}

// ToRegenerationReportResponse converts a report to a response DTO
func ToRegenerationReportResponse(r *RegenerationReport) RegenerationReportResponse {
	failures := []RegenerationFailureResponse{}
	for _, f := range r.Failures() {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		failures = append(failures, RegenerationFailureResponse{
			CategoryID: f.CategoryID,
			StoreID:    f.StoreID,
			Error:      msg,
		})
	}
	return RegenerationReportResponse{
		CategoryIDs: r.CategoryIDs,
		Purged:      r.Purged,
		Succeeded:   r.SucceededCount(),
		Failures:    failures,
		Completed:   r.Completed,
		StartedAt:   r.StartedAt,
		DurationMS:  r.Duration().Milliseconds(),
	}
}

// URLRewriteResponse represents a url rewrite in API responses
type URLRewriteResponse struct {
	ID           int64  `json:"id"`
	EntityType   string `json:"entity_type"`
	EntityID     int64  `json:"entity_id"`
	RequestPath  string `json:"request_path"`
	TargetPath   string `json:"target_path"`
	RedirectType int    `json:"redirect_type"`
	StoreID      int64  `json:"store_id"`
}

// ToURLRewriteResponse converts a domain url rewrite to a response DTO
func ToURLRewriteResponse(r catalog.URLRewrite) URLRewriteResponse {
	return URLRewriteResponse{
		ID:           r.ID,
		EntityType:   r.EntityType,
		EntityID:     r.EntityID,
		RequestPath:  r.RequestPath,
		TargetPath:   r.TargetPath,
		RedirectType: int(r.RedirectType),
		StoreID:      r.StoreID,
	}
}

// ToURLRewriteResponses converts a slice of url rewrites
func ToURLRewriteResponses(rewrites []catalog.URLRewrite) []URLRewriteResponse {
	out := make([]URLRewriteResponse, len(rewrites))
	for i, r := range rewrites {
		out[i] = ToURLRewriteResponse(r)
	}
	return out
}
