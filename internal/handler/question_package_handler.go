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

// QuestionPackageHandler exposes exam package endpoints.
type QuestionPackageHandler struct {
	packages *service.QuestionPackageService
}

// NewQuestionPackageHandler constructs QuestionPackageHandler.
func NewQuestionPackageHandler(packages *service.QuestionPackageService) *QuestionPackageHandler {
	return &QuestionPackageHandler{packages: packages}
}

type addItemRequest struct {
	QuestionSetID string `json:"question_set_id"`
}

// List godoc
// @Summary List question packages
// @Tags Packages
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "Filter by course tag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /question-packages [get]
func (h *QuestionPackageHandler) List(c *gin.Context) {
	var filter models.QuestionPackageFilter
	filter.CourseID = c.Query("courseId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	packages, pagination, err := h.packages.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, packages, pagination)
}

// Get godoc
// @Summary Get package detail with ordered items
// @Tags Packages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Success 200 {object} response.Envelope
// @Router /question-packages/{id} [get]
func (h *QuestionPackageHandler) Get(c *gin.Context) {
	pkg, err := h.packages.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pkg, nil)
}

// Create godoc
// @Summary Create package with its items
// @Tags Packages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.QuestionPackageRequest true "Package payload"
// @Success 201 {object} response.Envelope
// @Router /question-packages [post]
func (h *QuestionPackageHandler) Create(c *gin.Context) {
	var req service.QuestionPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pkg, err := h.packages.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pkg)
}

// Update godoc
// @Summary Update package metadata
// @Tags Packages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Param payload body service.QuestionPackageUpdateRequest true "Package payload"
// @Success 200 {object} response.Envelope
// @Router /question-packages/{id} [put]
func (h *QuestionPackageHandler) Update(c *gin.Context) {
	var req service.QuestionPackageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pkg, err := h.packages.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pkg, nil)
}

// Delete godoc
// @Summary Delete package with its items
// @Tags Packages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Success 204 {object} nil
// @Router /question-packages/{id} [delete]
func (h *QuestionPackageHandler) Delete(c *gin.Context) {
	if err := h.packages.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddItem godoc
// @Summary Append a question set to the package
// @Tags Packages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Param payload body addItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /question-packages/{id}/items [post]
func (h *QuestionPackageHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.QuestionSetID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "question_set_id is required"))
		return
	}
	item, err := h.packages.AddItem(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.QuestionSetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// RemoveItem godoc
// @Summary Remove an item from the package
// @Tags Packages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Param itemId path string true "Item ID"
// @Success 204 {object} nil
// @Router /question-packages/{id}/items/{itemId} [delete]
func (h *QuestionPackageHandler) RemoveItem(c *gin.Context) {
	if err := h.packages.RemoveItem(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("itemId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportPDF godoc
// @Summary Export the package manifest as PDF
// @Tags Packages
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Success 200 {file} binary
// @Router /question-packages/{id}/export/pdf [get]
func (h *QuestionPackageHandler) ExportPDF(c *gin.Context) {
	data, filename, err := h.packages.ExportPDF(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ExportCSV godoc
// @Summary Export the package manifest as CSV
// @Tags Packages
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Success 200 {file} binary
// @Router /question-packages/{id}/export/csv [get]
func (h *QuestionPackageHandler) ExportCSV(c *gin.Context) {
	data, filename, err := h.packages.ExportCSV(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}
