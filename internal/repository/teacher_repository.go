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

const teacherProfileColumns = `tp.id, tp.user_id, tp.title, tp.department, tp.subject_specialty, tp.experience_years, tp.phone, tp.bio, tp.updated_at, u.first_name, u.last_name, u.email`

// TeacherRepository provides database access for teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new instance of TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByUserID returns the profile owned by a user.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.TeacherProfileDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_profiles tp JOIN users u ON u.id = tp.user_id WHERE tp.user_id = $1 LIMIT 1`, teacherProfileColumns)
	var profile models.TeacherProfileDetail
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher profile: %w", err)
	}
	return &profile, nil
}

// EnsureProfile inserts an empty profile for the user when none exists yet.
// Concurrent callers race safely on the user_id unique constraint.
func (r *TeacherRepository) EnsureProfile(ctx context.Context, userID string) error {
	const query = `INSERT INTO teacher_profiles (id, user_id, updated_at) VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensure teacher profile: %w", err)
	}
	return nil
}

// EnsureProfiles backfills empty profiles for every teacher account that does
// not have one yet.
func (r *TeacherRepository) EnsureProfiles(ctx context.Context) error {
	const query = `INSERT INTO teacher_profiles (id, user_id, updated_at)
		SELECT gen_random_uuid(), u.id, NOW()
		FROM users u
		WHERE u.is_teacher = TRUE
		  AND NOT EXISTS (SELECT 1 FROM teacher_profiles tp WHERE tp.user_id = u.id)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("backfill teacher profiles: %w", err)
	}
	return nil
}

// Update writes the editable profile fields and refreshes updated_at.
func (r *TeacherRepository) Update(ctx context.Context, profile *models.TeacherProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teacher_profiles SET title = :title, department = :department, subject_specialty = :subject_specialty, experience_years = :experience_years, phone = :phone, bio = :bio, updated_at = :updated_at WHERE user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update teacher profile: %w", err)
	}
	return nil
}

// ListRecent returns the most recently updated profiles.
func (r *TeacherRepository) ListRecent(ctx context.Context, limit int) ([]models.TeacherProfileDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_profiles tp JOIN users u ON u.id = tp.user_id ORDER BY tp.updated_at DESC LIMIT $1`, teacherProfileColumns)
	profiles := []models.TeacherProfileDetail{}
	if err := r.db.SelectContext(ctx, &profiles, query, limit); err != nil {
		return nil, fmt.Errorf("list recent teacher profiles: %w", err)
	}
	return profiles, nil
}

// ListPeers returns other teachers' profiles ordered by first name,
// excluding the given user.
func (r *TeacherRepository) ListPeers(ctx context.Context, excludeUserID string, limit int) ([]models.TeacherProfileDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_profiles tp JOIN users u ON u.id = tp.user_id WHERE tp.user_id <> $1 ORDER BY u.first_name ASC LIMIT $2`, teacherProfileColumns)
	profiles := []models.TeacherProfileDetail{}
	if err := r.db.SelectContext(ctx, &profiles, query, excludeUserID, limit); err != nil {
		return nil, fmt.Errorf("list peer teacher profiles: %w", err)
	}
	return profiles, nil
}
