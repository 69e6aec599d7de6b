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

// QuestionHandler exposes question endpoints.
type QuestionHandler struct {
	questions *service.QuestionService
}

// NewQuestionHandler constructs QuestionHandler.
func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

type tagLinkRequest struct {
	TagIDs []string `json:"tag_ids"`
}

// List godoc
// @Summary List questions
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search in content"
// @Param courseTagId query string false "Filter by course tag"
// @Param materialTagId query string false "Filter by material tag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	var filter models.QuestionFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.CourseTagID = c.Query("courseTagId")
	filter.MaterialTagID = c.Query("materialTagId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	questions, pagination, err := h.questions.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, pagination)
}

// Get godoc
// @Summary Get question detail with tags
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Create godoc
// @Summary Create question
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.QuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Router /questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	var req service.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.questions.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// Update godoc
// @Summary Update question
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param payload body service.QuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	var req service.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.questions.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Delete godoc
// @Summary Delete question
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 204 {object} nil
// @Router /questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddCourseTags godoc
// @Summary Attach course tags to a question
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param payload body tagLinkRequest true "Tag ids"
// @Success 204 {object} nil
// @Router /questions/{id}/course-tags [post]
func (h *QuestionHandler) AddCourseTags(c *gin.Context) {
	h.addTags(c, models.TagKindCourse)
}

// AddMaterialTags godoc
// @Summary Attach material tags to a question
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param payload body tagLinkRequest true "Tag ids"
// @Success 204 {object} nil
// @Router /questions/{id}/material-tags [post]
func (h *QuestionHandler) AddMaterialTags(c *gin.Context) {
	h.addTags(c, models.TagKindMaterial)
}

// RemoveCourseTag godoc
// @Summary Detach one course tag from a question
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param tagId path string true "Tag ID"
// @Success 204 {object} nil
// @Router /questions/{id}/course-tags/{tagId} [delete]
func (h *QuestionHandler) RemoveCourseTag(c *gin.Context) {
	h.removeTag(c, models.TagKindCourse)
}

// RemoveMaterialTag godoc
// @Summary Detach one material tag from a question
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param tagId path string true "Tag ID"
// @Success 204 {object} nil
// @Router /questions/{id}/material-tags/{tagId} [delete]
func (h *QuestionHandler) RemoveMaterialTag(c *gin.Context) {
	h.removeTag(c, models.TagKindMaterial)
}

func (h *QuestionHandler) addTags(c *gin.Context, kind models.TagKind) {
	var req tagLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.questions.AddTags(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.TagIDs, kind); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *QuestionHandler) removeTag(c *gin.Context, kind models.TagKind) {
	if err := h.questions.RemoveTag(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("tagId"), kind); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
