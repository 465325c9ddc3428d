package models

import "time"

// User represents an application account stored in the users table. Role
// capability is carried by two independent flags: both false means a plain
// account with no staff access.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	IsAdmin      bool       `db:"is_admin" json:"is_admin"`
	IsTeacher    bool       `db:"is_teacher" json:"is_teacher"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsStaff reports whether the account may manage student records.
func (u *User) IsStaff() bool {
	return u.IsAdmin || u.IsTeacher
}

// HomeRoute returns the dashboard path an account lands on after
// authentication.
func (u *User) HomeRoute() string {
	if u.IsAdmin {
		return "/dashboard"
	}
	if u.IsTeacher {
		return "/teacher/dashboard"
	}
	return "/dashboard"
}
