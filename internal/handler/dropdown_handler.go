package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sibaso/qbank-api/internal/service"
	"github.com/sibaso/qbank-api/pkg/response"
)

// DropdownHandler serves combined reference data for form dropdowns.
type DropdownHandler struct {
	dropdown *service.DropdownService
}

// NewDropdownHandler constructs DropdownHandler.
func NewDropdownHandler(dropdown *service.DropdownService) *DropdownHandler {
	return &DropdownHandler{dropdown: dropdown}
}

// Options godoc
// @Summary All course and material tag options
// @Tags Dropdown
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dropdown [get]
func (h *DropdownHandler) Options(c *gin.Context) {
	options, err := h.dropdown.Options(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}
