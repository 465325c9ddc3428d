package models

import "time"

// TeacherProfile carries the descriptive fields of a teacher account. Exactly
// one row exists per teacher-flagged user; rows are created lazily with
// defaults on first touch.
type TeacherProfile struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Title            string    `db:"title" json:"title"`
	Department       string    `db:"department" json:"department"`
	SubjectSpecialty string    `db:"subject_specialty" json:"subject_specialty"`
	ExperienceYears  int       `db:"experience_years" json:"experience_years"`
	Phone            string    `db:"phone" json:"phone"`
	Bio              string    `db:"bio" json:"bio"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherProfileDetail joins the profile with its owner's name for listings.
type TeacherProfileDetail struct {
	TeacherProfile
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}

// UpdateTeacherProfileRequest is the full-record profile form.
type UpdateTeacherProfileRequest struct {
	Title            string `json:"title" validate:"max=50"`
	Department       string `json:"department" validate:"max=120"`
	SubjectSpecialty string `json:"subject_specialty" validate:"max=120"`
	ExperienceYears  int    `json:"experience_years" validate:"gte=0,lte=80"`
	Phone            string `json:"phone" validate:"max=20"`
	Bio              string `json:"bio" validate:"max=2000"`
}
