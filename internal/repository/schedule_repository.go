package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arkan-dev/preskool-api/internal/models"
)

const scheduleColumns = `id, teacher_id, date, start_time, end_time, class_name, topic, total_students, present_students, syllabus_coverage, status, notes, created_at`

// ScheduleRepository provides database access for class schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new instance of ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a class schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, s *models.ClassSchedule) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO class_schedules (id, teacher_id, date, start_time, end_time, class_name, topic, total_students, present_students, syllabus_coverage, status, notes, created_at) VALUES (:id, :teacher_id, :date, :start_time, :end_time, :class_name, :topic, :total_students, :present_students, :syllabus_coverage, :status, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// ListByTeacher returns all schedules of a teacher, soonest first.
func (r *ScheduleRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_schedules WHERE teacher_id = $1 ORDER BY date ASC, start_time ASC`, scheduleColumns)
	schedules := []models.ClassSchedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, teacherID); err != nil {
		return nil, fmt.Errorf("list schedules by teacher: %w", err)
	}
	return schedules, nil
}

// ListUpcoming returns schedules on or after the given day across all
// teachers, soonest first.
func (r *ScheduleRepository) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]models.ClassSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_schedules WHERE date >= $1 ORDER BY date ASC, start_time ASC LIMIT $2`, scheduleColumns)
	schedules := []models.ClassSchedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, from, limit); err != nil {
		return nil, fmt.Errorf("list upcoming schedules: %w", err)
	}
	return schedules, nil
}

// ListUpcomingByTeacher returns a teacher's schedules on or after the given
// day, soonest first.
func (r *ScheduleRepository) ListUpcomingByTeacher(ctx context.Context, teacherID string, from time.Time, limit int) ([]models.ClassSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_schedules WHERE teacher_id = $1 AND date >= $2 ORDER BY date ASC, start_time ASC LIMIT $3`, scheduleColumns)
	schedules := []models.ClassSchedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, teacherID, from, limit); err != nil {
		return nil, fmt.Errorf("list upcoming schedules by teacher: %w", err)
	}
	return schedules, nil
}

// ListRecentByTeacher returns a teacher's schedules inside the [from, to)
// window, newest first.
func (r *ScheduleRepository) ListRecentByTeacher(ctx context.Context, teacherID string, from, to time.Time, limit int) ([]models.ClassSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_schedules WHERE teacher_id = $1 AND date >= $2 AND date < $3 ORDER BY date DESC, start_time DESC LIMIT $4`, scheduleColumns)
	schedules := []models.ClassSchedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, teacherID, from, to, limit); err != nil {
		return nil, fmt.Errorf("list recent schedules by teacher: %w", err)
	}
	return schedules, nil
}

// Count returns the total number of schedules.
func (r *ScheduleRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM class_schedules`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count schedules: %w", err)
	}
	return count, nil
}

// CountByTeacher returns the number of schedules owned by a teacher.
func (r *ScheduleRepository) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_schedules WHERE teacher_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("count schedules by teacher: %w", err)
	}
	return count, nil
}

// CountByTeacherStatus returns the number of a teacher's schedules in the
// given status.
func (r *ScheduleRepository) CountByTeacherStatus(ctx context.Context, teacherID, status string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_schedules WHERE teacher_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID, status); err != nil {
		return 0, fmt.Errorf("count schedules by teacher status: %w", err)
	}
	return count, nil
}

// AvgCoverageCompleted returns the average syllabus coverage over completed
// classes of all teachers. Zero when none are completed yet.
func (r *ScheduleRepository) AvgCoverageCompleted(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(AVG(syllabus_coverage), 0) FROM class_schedules WHERE status = $1`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, models.ScheduleStatusCompleted); err != nil {
		return 0, fmt.Errorf("avg completed coverage: %w", err)
	}
	return avg, nil
}

// AvgCoverageByTeacher returns the average syllabus coverage over every class
// of one teacher, regardless of status. Zero when the teacher has no classes.
func (r *ScheduleRepository) AvgCoverageByTeacher(ctx context.Context, teacherID string) (float64, error) {
	const query = `SELECT COALESCE(AVG(syllabus_coverage), 0) FROM class_schedules WHERE teacher_id = $1`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, teacherID); err != nil {
		return 0, fmt.Errorf("avg coverage by teacher: %w", err)
	}
	return avg, nil
}
