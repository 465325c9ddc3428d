package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arkan-dev/preskool-api/internal/models"
)

const studentDetailColumns = `s.id, s.first_name, s.last_name, s.student_id, s.gender, s.date_of_birth, s.student_class, s.religion, s.joining_date, s.mobile_number, s.admission_number, s.section, s.image_path, s.slug, s.parent_id, s.created_at, s.updated_at,
	p.id AS "parent.id", p.father_name AS "parent.father_name", p.father_occupation AS "parent.father_occupation", p.father_mobile AS "parent.father_mobile", p.father_email AS "parent.father_email",
	p.mother_name AS "parent.mother_name", p.mother_occupation AS "parent.mother_occupation", p.mother_mobile AS "parent.mother_mobile", p.mother_email AS "parent.mother_email",
	p.present_address AS "parent.present_address", p.permanent_address AS "parent.permanent_address", p.created_at AS "parent.created_at", p.updated_at AS "parent.updated_at"`

// StudentRepository provides database access for students and their parent
// records. A student and its parent row are written together in one
// transaction.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts the parent and student rows atomically.
func (r *StudentRepository) Create(ctx context.Context, parent *models.Parent, student *models.Student) error {
	now := time.Now().UTC()
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	parent.CreatedAt = now
	parent.UpdatedAt = now
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.ParentID = parent.ID
	student.CreatedAt = now
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback()

	const parentQuery = `INSERT INTO parents (id, father_name, father_occupation, father_mobile, father_email, mother_name, mother_occupation, mother_mobile, mother_email, present_address, permanent_address, created_at, updated_at) VALUES (:id, :father_name, :father_occupation, :father_mobile, :father_email, :mother_name, :mother_occupation, :mother_mobile, :mother_email, :present_address, :permanent_address, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, parentQuery, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}

	const studentQuery = `INSERT INTO students (id, first_name, last_name, student_id, gender, date_of_birth, student_class, religion, joining_date, mobile_number, admission_number, section, image_path, slug, parent_id, created_at, updated_at) VALUES (:id, :first_name, :last_name, :student_id, :gender, :date_of_birth, :student_class, :religion, :joining_date, :mobile_number, :admission_number, :section, :image_path, :slug, :parent_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, studentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// Update writes the parent and student rows atomically. The slug is never
// rewritten so existing links stay valid.
func (r *StudentRepository) Update(ctx context.Context, parent *models.Parent, student *models.Student) error {
	now := time.Now().UTC()
	parent.UpdatedAt = now
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer tx.Rollback()

	const parentQuery = `UPDATE parents SET father_name = :father_name, father_occupation = :father_occupation, father_mobile = :father_mobile, father_email = :father_email, mother_name = :mother_name, mother_occupation = :mother_occupation, mother_mobile = :mother_mobile, mother_email = :mother_email, present_address = :present_address, permanent_address = :permanent_address, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, parentQuery, parent); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}

	const studentQuery = `UPDATE students SET first_name = :first_name, last_name = :last_name, student_id = :student_id, gender = :gender, date_of_birth = :date_of_birth, student_class = :student_class, religion = :religion, joining_date = :joining_date, mobile_number = :mobile_number, admission_number = :admission_number, section = :section, image_path = :image_path, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, studentQuery, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// Delete removes the student and its parent record atomically.
func (r *StudentRepository) Delete(ctx context.Context, studentID, parentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM parents WHERE id = $1`, parentID); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}

// FindBySlug returns a student with its parent by slug.
func (r *StudentRepository) FindBySlug(ctx context.Context, slug string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s JOIN parents p ON p.id = s.parent_id WHERE s.slug = $1 LIMIT 1`, studentDetailColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by slug: %w", err)
	}
	return &detail, nil
}

// List returns every student with its parent, newest first.
func (r *StudentRepository) List(ctx context.Context) ([]models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s JOIN parents p ON p.id = s.parent_id ORDER BY s.created_at DESC`, studentDetailColumns)
	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListRecent returns students ordered by joining date, latest joiners first.
func (r *StudentRepository) ListRecent(ctx context.Context, limit int) ([]models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s JOIN parents p ON p.id = s.parent_id ORDER BY s.joining_date DESC LIMIT $1`, studentDetailColumns)
	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, query, limit); err != nil {
		return nil, fmt.Errorf("list recent students: %w", err)
	}
	return students, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM students`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// StudentIDExists reports whether another student already carries the given
// admission-office student id. The exclude id skips the record being edited.
func (r *StudentRepository) StudentIDExists(ctx context.Context, studentID, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM students WHERE student_id = $1 AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, excludeID); err != nil {
		return false, fmt.Errorf("check student id exists: %w", err)
	}
	return exists, nil
}

// SlugExists reports whether a slug is already taken.
func (r *StudentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM students WHERE slug = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}
