package models

import "time"

// Homework statuses.
const (
	HomeworkStatusAssigned  = "assigned"
	HomeworkStatusInReview  = "in_review"
	HomeworkStatusCompleted = "completed"
	HomeworkStatusOverdue   = "overdue"
)

// Homework is one assignment record owned by a teacher. Like class sessions,
// homework is an append-only log.
type Homework struct {
	ID             string    `db:"id" json:"id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	Title          string    `db:"title" json:"title"`
	Subject        string    `db:"subject" json:"subject"`
	ClassName      string    `db:"class_name" json:"class_name"`
	Description    string    `db:"description" json:"description"`
	AssignedOn     time.Time `db:"assigned_on" json:"assigned_on"`
	DueDate        time.Time `db:"due_date" json:"due_date"`
	Status         string    `db:"status" json:"status"`
	CompletedCount int       `db:"completed_count" json:"completed_count"`
	PendingCount   int       `db:"pending_count" json:"pending_count"`
}

// CreateHomeworkRequest is the homework form.
type CreateHomeworkRequest struct {
	Title          string `json:"title" validate:"required,max=150"`
	Subject        string `json:"subject" validate:"required,max=120"`
	ClassName      string `json:"class_name" validate:"required,max=120"`
	Description    string `json:"description" validate:"required"`
	DueDate        string `json:"due_date" validate:"required,datetime=2006-01-02"`
	Status         string `json:"status" validate:"omitempty,oneof=assigned in_review completed overdue"`
	CompletedCount int    `json:"completed_count" validate:"gte=0"`
	PendingCount   int    `json:"pending_count" validate:"gte=0"`
}
