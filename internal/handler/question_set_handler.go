package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sibaso/qbank-api/internal/models"
	"github.com/sibaso/qbank-api/internal/service"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
	"github.com/sibaso/qbank-api/pkg/response"
)

// QuestionSetHandler exposes question set endpoints.
type QuestionSetHandler struct {
	sets *service.QuestionSetService
}

// NewQuestionSetHandler constructs QuestionSetHandler.
func NewQuestionSetHandler(sets *service.QuestionSetService) *QuestionSetHandler {
	return &QuestionSetHandler{sets: sets}
}

// List godoc
// @Summary List question sets
// @Tags QuestionSets
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /question-sets [get]
func (h *QuestionSetHandler) List(c *gin.Context) {
	var filter models.QuestionSetFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	sets, pagination, err := h.sets.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sets, pagination)
}

// Get godoc
// @Summary Get question set detail with files
// @Tags QuestionSets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question set ID"
// @Success 200 {object} response.Envelope
// @Router /question-sets/{id} [get]
func (h *QuestionSetHandler) Get(c *gin.Context) {
	set, err := h.sets.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, set, nil)
}

// Create godoc
// @Summary Create question set
// @Tags QuestionSets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.QuestionSetRequest true "Question set payload"
// @Success 201 {object} response.Envelope
// @Router /question-sets [post]
func (h *QuestionSetHandler) Create(c *gin.Context) {
	var req service.QuestionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	set, err := h.sets.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, set)
}

// Update godoc
// @Summary Update question set
// @Tags QuestionSets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question set ID"
// @Param payload body service.QuestionSetRequest true "Question set payload"
// @Success 200 {object} response.Envelope
// @Router /question-sets/{id} [put]
func (h *QuestionSetHandler) Update(c *gin.Context) {
	var req service.QuestionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	set, err := h.sets.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, set, nil)
}

// Delete godoc
// @Summary Delete question set with its files
// @Tags QuestionSets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question set ID"
// @Success 204 {object} nil
// @Failure 409 {object} response.Envelope
// @Router /question-sets/{id} [delete]
func (h *QuestionSetHandler) Delete(c *gin.Context) {
	if err := h.sets.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
