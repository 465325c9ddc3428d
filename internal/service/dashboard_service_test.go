package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkan-dev/preskool-api/internal/models"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	if pattern == "dashboard:*" {
		m.entries = map[string][]byte{}
		return nil
	}
	delete(m.entries, pattern)
	return nil
}

type fakeDashboardUsers struct {
	teacherCount int
}

func (f *fakeDashboardUsers) CountTeachers(context.Context) (int, error) {
	return f.teacherCount, nil
}

type fakeDashboardTeachers struct {
	profiles      map[string]*models.TeacherProfileDetail
	recent        []models.TeacherProfileDetail
	peers         []models.TeacherProfileDetail
	ensured       []string
	backfillCalls int
}

func (f *fakeDashboardTeachers) FindByUserID(_ context.Context, userID string) (*models.TeacherProfileDetail, error) {
	return f.profiles[userID], nil
}

func (f *fakeDashboardTeachers) EnsureProfile(_ context.Context, userID string) error {
	f.ensured = append(f.ensured, userID)
	if _, ok := f.profiles[userID]; !ok {
		if f.profiles == nil {
			f.profiles = map[string]*models.TeacherProfileDetail{}
		}
		f.profiles[userID] = &models.TeacherProfileDetail{
			TeacherProfile: models.TeacherProfile{ID: "tp-" + userID, UserID: userID},
		}
	}
	return nil
}

func (f *fakeDashboardTeachers) EnsureProfiles(context.Context) error {
	f.backfillCalls++
	return nil
}

func (f *fakeDashboardTeachers) ListRecent(_ context.Context, limit int) ([]models.TeacherProfileDetail, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeDashboardTeachers) ListPeers(_ context.Context, _ string, limit int) ([]models.TeacherProfileDetail, error) {
	if len(f.peers) > limit {
		return f.peers[:limit], nil
	}
	return f.peers, nil
}

type fakeDashboardSchedules struct {
	upcoming        []models.ClassSchedule
	teacherUpcoming []models.ClassSchedule
	teacherHistory  []models.ClassSchedule
	total           int
	teacherTotal    int
	completed       int
	coverage        float64
	teacherCoverage float64

	upcomingFrom time.Time
	historyFrom  time.Time
	historyTo    time.Time
}

func (f *fakeDashboardSchedules) ListUpcoming(_ context.Context, from time.Time, _ int) ([]models.ClassSchedule, error) {
	f.upcomingFrom = from
	return f.upcoming, nil
}

func (f *fakeDashboardSchedules) ListUpcomingByTeacher(_ context.Context, _ string, from time.Time, _ int) ([]models.ClassSchedule, error) {
	f.upcomingFrom = from
	return f.teacherUpcoming, nil
}

func (f *fakeDashboardSchedules) ListRecentByTeacher(_ context.Context, _ string, from, to time.Time, _ int) ([]models.ClassSchedule, error) {
	f.historyFrom = from
	f.historyTo = to
	return f.teacherHistory, nil
}

func (f *fakeDashboardSchedules) Count(context.Context) (int, error) { return f.total, nil }

func (f *fakeDashboardSchedules) CountByTeacher(context.Context, string) (int, error) {
	return f.teacherTotal, nil
}

func (f *fakeDashboardSchedules) CountByTeacherStatus(context.Context, string, string) (int, error) {
	return f.completed, nil
}

func (f *fakeDashboardSchedules) AvgCoverageCompleted(context.Context) (float64, error) {
	return f.coverage, nil
}

func (f *fakeDashboardSchedules) AvgCoverageByTeacher(context.Context, string) (float64, error) {
	return f.teacherCoverage, nil
}

type fakeDashboardHomework struct {
	byTeacher []models.Homework
	recent    []models.Homework
}

func (f *fakeDashboardHomework) ListByTeacher(context.Context, string, int) ([]models.Homework, error) {
	return f.byTeacher, nil
}

func (f *fakeDashboardHomework) ListRecent(context.Context, int) ([]models.Homework, error) {
	return f.recent, nil
}

type fakeDashboardStudents struct {
	count  int
	all    []models.StudentDetail
	recent []models.StudentDetail
}

func (f *fakeDashboardStudents) Count(context.Context) (int, error) { return f.count, nil }

func (f *fakeDashboardStudents) List(context.Context) ([]models.StudentDetail, error) {
	return f.all, nil
}

func (f *fakeDashboardStudents) ListRecent(context.Context, int) ([]models.StudentDetail, error) {
	return f.recent, nil
}

func newTestCacheService(repo CacheRepository) *CacheService {
	return NewCacheService(repo, nil, time.Minute, nil, repo != nil)
}

func TestDashboardServiceAdminDashboard(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	teachers := &fakeDashboardTeachers{
		recent: []models.TeacherProfileDetail{{FirstName: "Amina"}},
	}
	schedules := &fakeDashboardSchedules{
		upcoming: []models.ClassSchedule{
			{ID: "s1", ClassName: "Grade 7A", TotalStudents: 30, PresentStudents: 27},
		},
		total:    12,
		coverage: 58.3,
	}
	homework := &fakeDashboardHomework{recent: []models.Homework{{ID: "h1", Title: "Fractions worksheet"}}}
	students := &fakeDashboardStudents{
		count:  40,
		recent: []models.StudentDetail{{Student: models.Student{ID: "st1", FirstName: "Kofi"}}},
	}
	svc := NewDashboardService(&fakeDashboardUsers{teacherCount: 4}, teachers, schedules, homework, students, newTestCacheService(cacheRepo), nil)
	fixed := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	resp, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, resp.StudentCount)
	assert.Equal(t, 4, resp.TeacherCount)
	assert.Equal(t, 12, resp.TotalClasses)
	assert.InDelta(t, 58.3, resp.Coverage, 0.001)
	require.Len(t, resp.UpcomingClasses, 1)
	assert.Equal(t, 3, resp.UpcomingClasses[0].AbsentStudents)
	require.Len(t, resp.RecentStudents, 1)
	assert.Equal(t, "Kofi", resp.RecentStudents[0].FirstName)
	assert.Equal(t, 1, teachers.backfillCalls)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), schedules.upcomingFrom)
	assert.Contains(t, cacheRepo.entries, "dashboard:admin")
}

func TestDashboardServiceAdminDashboardCacheHit(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	teachers := &fakeDashboardTeachers{}
	schedules := &fakeDashboardSchedules{total: 3}
	homework := &fakeDashboardHomework{}
	students := &fakeDashboardStudents{count: 10}
	svc := NewDashboardService(&fakeDashboardUsers{}, teachers, schedules, homework, students, newTestCacheService(cacheRepo), nil)

	_, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, teachers.backfillCalls)

	resp, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, resp.StudentCount)
	assert.Equal(t, 1, teachers.backfillCalls, "second load should come from cache")
}

func TestDashboardServiceTeacherDashboard(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	teachers := &fakeDashboardTeachers{}
	schedules := &fakeDashboardSchedules{
		teacherUpcoming: []models.ClassSchedule{{ID: "s1", ClassName: "Grade 7A"}},
		teacherHistory:  []models.ClassSchedule{{ID: "s0", Status: models.ScheduleStatusCompleted}},
		teacherTotal:    8,
		completed:       5,
		teacherCoverage: 44.0,
	}
	homework := &fakeDashboardHomework{byTeacher: []models.Homework{{ID: "h1"}}}
	students := &fakeDashboardStudents{count: 40, recent: []models.StudentDetail{{Student: models.Student{ID: "st1"}}}}
	svc := NewDashboardService(&fakeDashboardUsers{}, teachers, schedules, homework, students, newTestCacheService(cacheRepo), nil)
	fixed := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	resp, err := svc.TeacherDashboard(context.Background(), "u1")
	require.NoError(t, err)

	assert.Contains(t, teachers.ensured, "u1")
	assert.Equal(t, "u1", resp.Profile.UserID)
	assert.Equal(t, 8, resp.TotalClasses)
	assert.Equal(t, 5, resp.CompletedCount)
	assert.InDelta(t, 44.0, resp.Coverage, 0.001)
	assert.Equal(t, 40, resp.TotalStudents)
	require.Len(t, resp.UpcomingClasses, 1)
	require.Len(t, resp.RecentHistory, 1)

	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, schedules.historyTo)
	assert.Equal(t, today.AddDate(0, 0, -7), schedules.historyFrom)
	assert.Contains(t, cacheRepo.entries, "dashboard:teacher:u1")
}

func TestDashboardServiceInvalidateTeacher(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	svc := NewDashboardService(&fakeDashboardUsers{}, &fakeDashboardTeachers{}, &fakeDashboardSchedules{}, &fakeDashboardHomework{}, &fakeDashboardStudents{}, newTestCacheService(cacheRepo), nil)

	svc.InvalidateTeacher(context.Background(), "u1")
	assert.Contains(t, cacheRepo.deleted, "dashboard:teacher:u1")
	assert.Contains(t, cacheRepo.deleted, "dashboard:admin")
}

func TestDashboardServiceInvalidateAll(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.entries["dashboard:admin"] = []byte(`{}`)
	svc := NewDashboardService(&fakeDashboardUsers{}, &fakeDashboardTeachers{}, &fakeDashboardSchedules{}, &fakeDashboardHomework{}, &fakeDashboardStudents{}, newTestCacheService(cacheRepo), nil)

	svc.InvalidateAll(context.Background())
	assert.Contains(t, cacheRepo.deleted, "dashboard:*")
	assert.Empty(t, cacheRepo.entries)
}
