package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arkan-dev/preskool-api/internal/models"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
)

type teacherProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.TeacherProfileDetail, error)
	EnsureProfile(ctx context.Context, userID string) error
	Update(ctx context.Context, profile *models.TeacherProfile) error
}

type teacherScheduleRepository interface {
	Create(ctx context.Context, s *models.ClassSchedule) error
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSchedule, error)
}

type teacherHomeworkRepository interface {
	Create(ctx context.Context, h *models.Homework) error
	ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.Homework, error)
	ListAllByTeacher(ctx context.Context, teacherID string) ([]models.Homework, error)
}

type dashboardInvalidator interface {
	InvalidateTeacher(ctx context.Context, teacherID string)
}

// TeacherService covers the teacher workspace: the profile record, logged
// class sessions and homework assignments.
type TeacherService struct {
	profiles  teacherProfileRepository
	schedules teacherScheduleRepository
	homework  teacherHomeworkRepository
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService instance.
func NewTeacherService(profiles teacherProfileRepository, schedules teacherScheduleRepository, homework teacherHomeworkRepository, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		profiles:  profiles,
		schedules: schedules,
		homework:  homework,
		dashboard: dashboard,
		validator: validate,
		logger:    logger,
	}
}

// Profile returns the caller's profile, creating an empty record on first
// access.
func (s *TeacherService) Profile(ctx context.Context, userID string) (*models.TeacherProfileDetail, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}

	if err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher profile")
	}
	profile, err = s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}
	return profile, nil
}

// UpdateProfile overwrites every editable profile field with the submitted
// values. The form is a full-record write, not a patch.
func (s *TeacherService) UpdateProfile(ctx context.Context, userID string, req models.UpdateTeacherProfileRequest) (*models.TeacherProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	if err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher profile")
	}

	profile := &models.TeacherProfile{
		UserID:           userID,
		Title:            req.Title,
		Department:       req.Department,
		SubjectSpecialty: req.SubjectSpecialty,
		ExperienceYears:  req.ExperienceYears,
		Phone:            req.Phone,
		Bio:              req.Bio,
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher profile")
	}

	if s.dashboard != nil {
		s.dashboard.InvalidateTeacher(ctx, userID)
	}

	return s.Profile(ctx, userID)
}

// CreateSchedule logs a class session for the caller.
func (s *TeacherService) CreateSchedule(ctx context.Context, userID string, req models.CreateScheduleRequest) (*models.ClassSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	status := req.Status
	if status == "" {
		status = models.ScheduleStatusScheduled
	}

	schedule := &models.ClassSchedule{
		TeacherID:        userID,
		Date:             date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		ClassName:        req.ClassName,
		Topic:            req.Topic,
		TotalStudents:    req.TotalStudents,
		PresentStudents:  req.PresentStudents,
		SyllabusCoverage: req.SyllabusCoverage,
		Status:           status,
		Notes:            req.Notes,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	if s.dashboard != nil {
		s.dashboard.InvalidateTeacher(ctx, userID)
	}

	return schedule, nil
}

// ListSchedules returns every class session the caller has logged, soonest
// first.
func (s *TeacherService) ListSchedules(ctx context.Context, userID string) ([]models.ClassSchedule, error) {
	schedules, err := s.schedules.ListByTeacher(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// ListHomework returns every homework assignment the caller has recorded,
// soonest due first.
func (s *TeacherService) ListHomework(ctx context.Context, userID string) ([]models.Homework, error) {
	homework, err := s.homework.ListAllByTeacher(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homework")
	}
	return homework, nil
}

// CreateHomework records a homework assignment for the caller.
func (s *TeacherService) CreateHomework(ctx context.Context, userID string, req models.CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid due date")
	}

	status := req.Status
	if status == "" {
		status = models.HomeworkStatusAssigned
	}

	homework := &models.Homework{
		TeacherID:      userID,
		Title:          req.Title,
		Subject:        req.Subject,
		ClassName:      req.ClassName,
		Description:    req.Description,
		AssignedOn:     time.Now().UTC(),
		DueDate:        dueDate,
		Status:         status,
		CompletedCount: req.CompletedCount,
		PendingCount:   req.PendingCount,
	}
	if err := s.homework.Create(ctx, homework); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}

	if s.dashboard != nil {
		s.dashboard.InvalidateTeacher(ctx, userID)
	}

	return homework, nil
}
