package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/fulltheme-backend/internal/http/response"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/services"
)

type CodeReviewHandler struct {
	log    *logger.Logger
	review services.ReviewService
}

func NewCodeReviewHandler(log *logger.Logger, review services.ReviewService) *CodeReviewHandler {
	return &CodeReviewHandler{log: log.With("handler", "CodeReviewHandler"), review: review}
}

type updateStatusRequest struct {
	AssignmentIDs []uuid.UUID `json:"assignment_ids" binding:"required"`
	Status        string      `json:"status" binding:"required"`
}

type bulkUpdateRequest struct {
	AcceptedIDs []uuid.UUID `json:"accepted_assignment_ids"`
	RejectedIDs []uuid.UUID `json:"rejected_assignment_ids"`
}

// POST /api/code-review/assignments/update-status
func (h *CodeReviewHandler) UpdateStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.review.Review(c.Request.Context(), userID, req.AssignmentIDs, req.Status)
	if err != nil {
		h.log.Warn("Review failed", "error", err, "user_id", userID)
		response.RespondServiceError(c, err, "review_failed")
		return
	}
	response.RespondOK(c, res)
}

// POST /api/code-review/assignments/bulk-update
func (h *CodeReviewHandler) BulkUpdate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.review.BulkReview(c.Request.Context(), userID, req.AcceptedIDs, req.RejectedIDs)
	if err != nil {
		h.log.Warn("Bulk review failed", "error", err, "user_id", userID)
		response.RespondServiceError(c, err, "bulk_review_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /api/code-review/codebooks/:id/assignments
func (h *CodeReviewHandler) ListCodebookAssignments(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	codebookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_codebook_id", err)
		return
	}
	res, err := h.review.ListCodebookAssignments(c.Request.Context(), userID, codebookID, c.Query("status"))
	if err != nil {
		response.RespondServiceError(c, err, "load_assignments_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /api/code-review/projects/:id/ai-codebooks
func (h *CodeReviewHandler) ListProjectAICodebooks(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	books, err := h.review.ListProjectAICodebooks(c.Request.Context(), userID, projectID)
	if err != nil {
		response.RespondServiceError(c, err, "load_codebooks_failed")
		return
	}
	response.RespondOK(c, gin.H{"codebooks": books})
}
