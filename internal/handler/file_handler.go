package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sibaso/qbank-api/internal/service"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
	"github.com/sibaso/qbank-api/pkg/response"
)

// FileHandler exposes upload and download endpoints for question set files.
type FileHandler struct {
	files *service.FileService
}

// NewFileHandler constructs FileHandler.
func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// Upload godoc
// @Summary Upload a file to a question set
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question set ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /question-sets/{id}/files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file form field is required"))
		return
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	file, err := h.files.Upload(c.Request.Context(), claimsFromContext(c), service.UploadRequest{
		QuestionSetID: c.Param("id"),
		Filename:      header.Filename,
		MimeType:      header.Header.Get("Content-Type"),
		Size:          header.Size,
		Body:          src,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// List godoc
// @Summary List files of a question set
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question set ID"
// @Success 200 {object} response.Envelope
// @Router /question-sets/{id}/files [get]
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.files.ListBySet(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, nil)
}

// DownloadLink godoc
// @Summary Issue a signed download link for a file
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /files/{id}/download-link [get]
func (h *FileHandler) DownloadLink(c *gin.Context) {
	link, err := h.files.DownloadLink(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download a file with a signed token
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /files/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}

	file, handle, err := h.files.OpenByToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer handle.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, handle, nil)
}

// Delete godoc
// @Summary Delete a file
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 204 {object} nil
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
