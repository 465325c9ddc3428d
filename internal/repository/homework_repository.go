package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arkan-dev/preskool-api/internal/models"
)

const homeworkColumns = `id, teacher_id, title, subject, class_name, description, assigned_on, due_date, status, completed_count, pending_count`

// HomeworkRepository provides database access for homework assignments.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository creates a new instance of HomeworkRepository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// Create inserts a homework assignment.
func (r *HomeworkRepository) Create(ctx context.Context, h *models.Homework) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.AssignedOn.IsZero() {
		h.AssignedOn = time.Now().UTC()
	}
	const query = `INSERT INTO homework (id, teacher_id, title, subject, class_name, description, assigned_on, due_date, status, completed_count, pending_count) VALUES (:id, :teacher_id, :title, :subject, :class_name, :description, :assigned_on, :due_date, :status, :completed_count, :pending_count)`
	if _, err := r.db.NamedExecContext(ctx, query, h); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

// ListByTeacher returns a teacher's homework ordered by due date, soonest
// first.
func (r *HomeworkRepository) ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.Homework, error) {
	query := fmt.Sprintf(`SELECT %s FROM homework WHERE teacher_id = $1 ORDER BY due_date ASC LIMIT $2`, homeworkColumns)
	homework := []models.Homework{}
	if err := r.db.SelectContext(ctx, &homework, query, teacherID, limit); err != nil {
		return nil, fmt.Errorf("list homework by teacher: %w", err)
	}
	return homework, nil
}

// ListAllByTeacher returns every homework assignment for a teacher, soonest
// due first.
func (r *HomeworkRepository) ListAllByTeacher(ctx context.Context, teacherID string) ([]models.Homework, error) {
	query := fmt.Sprintf(`SELECT %s FROM homework WHERE teacher_id = $1 ORDER BY due_date ASC`, homeworkColumns)
	homework := []models.Homework{}
	if err := r.db.SelectContext(ctx, &homework, query, teacherID); err != nil {
		return nil, fmt.Errorf("list all homework by teacher: %w", err)
	}
	return homework, nil
}

// ListRecent returns the most recently assigned homework across all teachers.
func (r *HomeworkRepository) ListRecent(ctx context.Context, limit int) ([]models.Homework, error) {
	query := fmt.Sprintf(`SELECT %s FROM homework ORDER BY assigned_on DESC LIMIT $1`, homeworkColumns)
	homework := []models.Homework{}
	if err := r.db.SelectContext(ctx, &homework, query, limit); err != nil {
		return nil, fmt.Errorf("list recent homework: %w", err)
	}
	return homework, nil
}
