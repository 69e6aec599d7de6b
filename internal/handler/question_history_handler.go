package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sibaso/qbank-api/internal/models"
	"github.com/sibaso/qbank-api/internal/service"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
	"github.com/sibaso/qbank-api/pkg/response"
)

// QuestionHistoryHandler exposes question set usage history endpoints.
type QuestionHistoryHandler struct {
	history *service.QuestionHistoryService
}

// NewQuestionHistoryHandler constructs QuestionHistoryHandler.
func NewQuestionHistoryHandler(history *service.QuestionHistoryService) *QuestionHistoryHandler {
	return &QuestionHistoryHandler{history: history}
}

// Record godoc
// @Summary Record a question set interaction
// @Tags History
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.HistoryRequest true "History payload"
// @Success 201 {object} response.Envelope
// @Router /question-histories [post]
func (h *QuestionHistoryHandler) Record(c *gin.Context) {
	var req service.HistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.history.Record(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// List godoc
// @Summary List question set history
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param questionSetId query string false "Filter by question set"
// @Param userId query string false "Filter by user (admin only)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /question-histories [get]
func (h *QuestionHistoryHandler) List(c *gin.Context) {
	var filter models.QuestionHistoryFilter
	filter.QuestionSetID = c.Query("questionSetId")
	filter.UserID = c.Query("userId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	entries, pagination, err := h.history.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
