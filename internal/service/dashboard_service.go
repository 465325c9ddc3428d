package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arkan-dev/preskool-api/internal/dto"
	"github.com/arkan-dev/preskool-api/internal/models"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
)

const (
	adminDashboardCacheKey     = "dashboard:admin"
	teacherDashboardCachePref  = "dashboard:teacher:"
	dashboardListLimit         = 5
	dashboardPeerLimit         = 6
	dashboardStudentLimit      = 6
	dashboardHistoryWindowDays = 7
)

type dashboardUserRepository interface {
	CountTeachers(ctx context.Context) (int, error)
}

type dashboardTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.TeacherProfileDetail, error)
	EnsureProfile(ctx context.Context, userID string) error
	EnsureProfiles(ctx context.Context) error
	ListRecent(ctx context.Context, limit int) ([]models.TeacherProfileDetail, error)
	ListPeers(ctx context.Context, excludeUserID string, limit int) ([]models.TeacherProfileDetail, error)
}

type dashboardScheduleRepository interface {
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]models.ClassSchedule, error)
	ListUpcomingByTeacher(ctx context.Context, teacherID string, from time.Time, limit int) ([]models.ClassSchedule, error)
	ListRecentByTeacher(ctx context.Context, teacherID string, from, to time.Time, limit int) ([]models.ClassSchedule, error)
	Count(ctx context.Context) (int, error)
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
	CountByTeacherStatus(ctx context.Context, teacherID, status string) (int, error)
	AvgCoverageCompleted(ctx context.Context) (float64, error)
	AvgCoverageByTeacher(ctx context.Context, teacherID string) (float64, error)
}

type dashboardHomeworkRepository interface {
	ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.Homework, error)
	ListRecent(ctx context.Context, limit int) ([]models.Homework, error)
}

type dashboardStudentRepository interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.StudentDetail, error)
	ListRecent(ctx context.Context, limit int) ([]models.StudentDetail, error)
}

// DashboardService aggregates the admin and teacher landing summaries.
// Payloads are cached briefly so repeated loads do not refan the queries.
type DashboardService struct {
	users     dashboardUserRepository
	teachers  dashboardTeacherRepository
	schedules dashboardScheduleRepository
	homework  dashboardHomeworkRepository
	students  dashboardStudentRepository
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(users dashboardUserRepository, teachers dashboardTeacherRepository, schedules dashboardScheduleRepository, homework dashboardHomeworkRepository, students dashboardStudentRepository, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:     users,
		teachers:  teachers,
		schedules: schedules,
		homework:  homework,
		students:  students,
		cache:     cache,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AdminDashboard builds the global summary: headcounts, coverage over
// completed classes, the next sessions across all teachers, the homework
// queue, recently updated profiles and the latest joiners.
func (s *DashboardService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	var cached dto.AdminDashboardResponse
	if hit, _ := s.cache.Get(ctx, adminDashboardCacheKey, &cached); hit {
		return &cached, nil
	}

	if err := s.teachers.EnsureProfiles(ctx); err != nil {
		s.logger.Warn("failed to backfill teacher profiles", zap.Error(err))
	}

	studentCount, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	teacherCount, err := s.users.CountTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	totalClasses, err := s.schedules.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	coverage, err := s.schedules.AvgCoverageCompleted(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute coverage")
	}

	upcoming, err := s.schedules.ListUpcoming(ctx, startOfDay(s.now()), dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming classes")
	}
	homeworkQueue, err := s.homework.ListRecent(ctx, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homework")
	}
	profiles, err := s.teachers.ListRecent(ctx, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher profiles")
	}
	recent, err := s.students.ListRecent(ctx, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent students")
	}

	recentStudents := make([]models.Student, 0, len(recent))
	for _, detail := range recent {
		recentStudents = append(recentStudents, detail.Student)
	}

	resp := &dto.AdminDashboardResponse{
		StudentCount:    studentCount,
		TeacherCount:    teacherCount,
		TotalClasses:    totalClasses,
		Coverage:        coverage,
		UpcomingClasses: summarize(upcoming),
		HomeworkQueue:   homeworkQueue,
		TeacherProfiles: profiles,
		RecentStudents:  recentStudents,
		GeneratedAt:     s.now(),
	}

	if err := s.cache.Set(ctx, adminDashboardCacheKey, resp, 0); err != nil {
		s.logger.Warn("failed to cache admin dashboard", zap.Error(err))
	}

	return resp, nil
}

// TeacherDashboard builds the personal workspace summary for one teacher.
// Coverage here averages over every class of the teacher regardless of
// status, unlike the completed-only admin figure.
func (s *DashboardService) TeacherDashboard(ctx context.Context, userID string) (*dto.TeacherDashboardResponse, error) {
	cacheKey := teacherDashboardCachePref + userID
	var cached dto.TeacherDashboardResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	if err := s.teachers.EnsureProfile(ctx, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher profile")
	}
	profile, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}

	today := startOfDay(s.now())
	upcoming, err := s.schedules.ListUpcomingByTeacher(ctx, userID, today, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming classes")
	}
	history, err := s.schedules.ListRecentByTeacher(ctx, userID, today.AddDate(0, 0, -dashboardHistoryWindowDays), today, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent classes")
	}

	totalClasses, err := s.schedules.CountByTeacher(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	completed, err := s.schedules.CountByTeacherStatus(ctx, userID, models.ScheduleStatusCompleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count completed classes")
	}
	coverage, err := s.schedules.AvgCoverageByTeacher(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute coverage")
	}
	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	homeworkList, err := s.homework.ListByTeacher(ctx, userID, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homework")
	}
	peers, err := s.teachers.ListPeers(ctx, userID, dashboardPeerLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list peer teachers")
	}
	students, err := s.students.ListRecent(ctx, dashboardStudentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	resp := &dto.TeacherDashboardResponse{
		Profile:         profile.TeacherProfile,
		UpcomingClasses: summarize(upcoming),
		RecentHistory:   summarize(history),
		TotalClasses:    totalClasses,
		CompletedCount:  completed,
		Coverage:        coverage,
		TotalStudents:   totalStudents,
		HomeworkList:    homeworkList,
		OtherTeachers:   peers,
		Students:        students,
		GeneratedAt:     s.now(),
	}

	if err := s.cache.Set(ctx, cacheKey, resp, 0); err != nil {
		s.logger.Warn("failed to cache teacher dashboard", zap.Error(err))
	}

	return resp, nil
}

// InvalidateTeacher drops the teacher's cached dashboard along with the admin
// summary, which aggregates over the same rows.
func (s *DashboardService) InvalidateTeacher(ctx context.Context, teacherID string) {
	if err := s.cache.Invalidate(ctx, teacherDashboardCachePref+teacherID); err != nil {
		s.logger.Warn("failed to invalidate teacher dashboard cache", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, adminDashboardCacheKey); err != nil {
		s.logger.Warn("failed to invalidate admin dashboard cache", zap.Error(err))
	}
}

// InvalidateAll drops every cached dashboard. Student writes touch both the
// admin summary and every teacher's student listing.
func (s *DashboardService) InvalidateAll(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard caches", zap.Error(err))
	}
}

func summarize(schedules []models.ClassSchedule) []dto.ScheduleSummary {
	summaries := make([]dto.ScheduleSummary, 0, len(schedules))
	for _, schedule := range schedules {
		summaries = append(summaries, dto.NewScheduleSummary(schedule))
	}
	return summaries
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
