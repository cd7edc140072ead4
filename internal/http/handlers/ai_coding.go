package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/fulltheme-backend/internal/http/response"
	"github.com/yungbote/fulltheme-backend/internal/platform/ctxutil"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/services"
)

type AICodingHandler struct {
	log *logger.Logger
	ai  services.AICodingService
}

func NewAICodingHandler(log *logger.Logger, ai services.AICodingService) *AICodingHandler {
	return &AICodingHandler{log: log.With("handler", "AICodingHandler"), ai: ai}
}

type codingOptions struct {
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	SkipRefinement bool   `json:"skip_refinement"`
	SkipGrouping   bool   `json:"skip_grouping"`
}

func (o codingOptions) toService() services.CodingOptions {
	return services.CodingOptions{
		Provider:       strings.TrimSpace(o.Provider),
		Model:          strings.TrimSpace(o.Model),
		SkipRefinement: o.SkipRefinement,
		SkipGrouping:   o.SkipGrouping,
	}
}

type initialCodingRequest struct {
	DocumentIDs []uuid.UUID `json:"document_ids" binding:"required"`
	codingOptions
}

type deductiveCodingRequest struct {
	DocumentIDs []uuid.UUID `json:"document_ids" binding:"required"`
	CodebookID  uuid.UUID   `json:"codebook_id" binding:"required"`
	codingOptions
}

type generateThemesRequest struct {
	CodebookID uuid.UUID `json:"codebook_id" binding:"required"`
	codingOptions
}

// POST /api/ai/initial-coding
func (h *AICodingHandler) InitialCoding(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req initialCodingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.ai.GenerateCode(c.Request.Context(), userID, req.DocumentIDs, req.toService())
	if err != nil {
		h.log.Error("Initial coding failed", "error", err, "user_id", userID, "documents", len(req.DocumentIDs))
		response.RespondServiceError(c, err, "initial_coding_failed")
		return
	}
	respondCoding(c, res)
}

// POST /api/ai/deductive-coding
func (h *AICodingHandler) DeductiveCoding(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req deductiveCodingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.ai.DeductiveCoding(c.Request.Context(), userID, req.DocumentIDs, req.CodebookID, req.toService())
	if err != nil {
		h.log.Error("Deductive coding failed", "error", err, "user_id", userID, "codebook_id", req.CodebookID)
		response.RespondServiceError(c, err, "deductive_coding_failed")
		return
	}
	respondCoding(c, res)
}

// POST /api/ai/generate-themes
func (h *AICodingHandler) GenerateThemes(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req generateThemesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	themes, err := h.ai.GenerateThemes(c.Request.Context(), userID, req.CodebookID, req.toService())
	if err != nil {
		h.log.Error("Theme generation failed", "error", err, "user_id", userID, "codebook_id", req.CodebookID)
		response.RespondServiceError(c, err, "generate_themes_failed")
		return
	}
	response.RespondOK(c, gin.H{"themes": themes})
}

// GET /api/ai/rate-limit/:provider
func (h *AICodingHandler) RateLimitStatus(c *gin.Context) {
	st := h.ai.ProviderStatus(c.Request.Context(), strings.TrimSpace(c.Param("provider")))
	response.RespondOK(c, st)
}

// respondCoding answers 503 when the run could not be saved because the
// database connection dropped, so clients know a retry may succeed.
func respondCoding(c *gin.Context, res *services.CodingResult) {
	if res.Summary.ConnectionError {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   response.APIError{Message: "database connection lost while saving results", Code: "connection_error"},
			"summary": res.Summary,
		})
		return
	}
	response.RespondOK(c, res)
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return userID, true
}
