package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arkan-dev/preskool-api/internal/models"
	"github.com/arkan-dev/preskool-api/internal/service"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
	"github.com/arkan-dev/preskool-api/pkg/response"
)

// TeacherHandler wires the teacher workspace endpoints.
type TeacherHandler struct {
	service *service.TeacherService
}

// NewTeacherHandler creates a new handler.
func NewTeacherHandler(svc *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// Profile godoc
// @Summary Get teacher profile
// @Description Returns the caller's profile, creating it on first access
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/profile [get]
func (h *TeacherHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	res, err := h.service.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// UpdateProfile godoc
// @Summary Update teacher profile
// @Description Overwrites every editable profile field
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body models.UpdateTeacherProfileRequest true "Profile form"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/profile [put]
func (h *TeacherHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateTeacherProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	claims := claimsFromContext(c)
	res, err := h.service.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// ListSchedules godoc
// @Summary List class sessions
// @Description Every class session logged by the caller, soonest first
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/schedules [get]
func (h *TeacherHandler) ListSchedules(c *gin.Context) {
	claims := claimsFromContext(c)
	res, err := h.service.ListSchedules(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// CreateSchedule godoc
// @Summary Log class session
// @Description Record a class session for the caller
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body models.CreateScheduleRequest true "Class session form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/schedules [post]
func (h *TeacherHandler) CreateSchedule(c *gin.Context) {
	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	claims := claimsFromContext(c)
	res, err := h.service.CreateSchedule(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// ListHomework godoc
// @Summary List homework
// @Description Every homework assignment recorded by the caller, soonest due first
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/homework [get]
func (h *TeacherHandler) ListHomework(c *gin.Context) {
	claims := claimsFromContext(c)
	res, err := h.service.ListHomework(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// CreateHomework godoc
// @Summary Assign homework
// @Description Record a homework assignment for the caller
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body models.CreateHomeworkRequest true "Homework form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/homework [post]
func (h *TeacherHandler) CreateHomework(c *gin.Context) {
	var req models.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid homework payload"))
		return
	}

	claims := claimsFromContext(c)
	res, err := h.service.CreateHomework(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}
