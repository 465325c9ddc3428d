package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arkan-dev/preskool-api/internal/models"
	"github.com/arkan-dev/preskool-api/internal/service"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
	"github.com/arkan-dev/preskool-api/pkg/response"
)

// StudentHandler wires the student registry endpoints.
type StudentHandler struct {
	service     *service.StudentService
	maxFileSize int64
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService, maxFileSize int64) *StudentHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	return &StudentHandler{service: svc, maxFileSize: maxFileSize}
}

// List godoc
// @Summary List students
// @Description Every student with its guardian record
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	res, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Add godoc
// @Summary Add student
// @Description Register a student with its guardian record
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.SaveStudentRequest true "Student form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Add(c *gin.Context) {
	var req models.SaveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	claims := claimsFromContext(c)
	res, err := h.service.Add(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Detail godoc
// @Summary Student detail
// @Description One student by slug with a signed portrait URL
// @Tags Students
// @Produce json
// @Param slug path string true "Student slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{slug} [get]
func (h *StudentHandler) Detail(c *gin.Context) {
	res, err := h.service.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Edit godoc
// @Summary Edit student
// @Description Overwrite a student and its guardian record
// @Tags Students
// @Accept json
// @Produce json
// @Param slug path string true "Student slug"
// @Param payload body models.SaveStudentRequest true "Student form"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{slug} [put]
func (h *StudentHandler) Edit(c *gin.Context) {
	var req models.SaveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	claims := claimsFromContext(c)
	res, err := h.service.Edit(c.Request.Context(), claims.UserID, c.Param("slug"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete student
// @Description Remove a student together with its guardian record
// @Tags Students
// @Produce json
// @Param slug path string true "Student slug"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{slug} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// UploadImage godoc
// @Summary Upload student portrait
// @Description Store a portrait image and link it to the student
// @Tags Students
// @Accept mpfd
// @Produce json
// @Param slug path string true "Student slug"
// @Param image formData file true "Portrait image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{slug}/image [post]
func (h *StudentHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image file required"))
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	claims := claimsFromContext(c)
	res, err := h.service.AttachImage(c.Request.Context(), claims.UserID, c.Param("slug"), fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Export godoc
// @Summary Export student roster
// @Description Download the roster as CSV or PDF
// @Tags Students
// @Produce json
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	filename, contentType, data, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// ServeImage godoc
// @Summary Serve student portrait
// @Description Stream a portrait referenced by a signed token
// @Tags Students
// @Produce png
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /media/{token} [get]
func (h *StudentHandler) ServeImage(c *gin.Context) {
	file, err := h.service.OpenImage(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
