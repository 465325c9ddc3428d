package models

import "time"

// Class session statuses.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

// ClassSchedule is one class session logged by a teacher. Records are
// append-only: the contract defines no update or delete route.
type ClassSchedule struct {
	ID               string    `db:"id" json:"id"`
	TeacherID        string    `db:"teacher_id" json:"teacher_id"`
	Date             time.Time `db:"date" json:"date"`
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	ClassName        string    `db:"class_name" json:"class_name"`
	Topic            string    `db:"topic" json:"topic"`
	TotalStudents    int       `db:"total_students" json:"total_students"`
	PresentStudents  int       `db:"present_students" json:"present_students"`
	SyllabusCoverage int       `db:"syllabus_coverage" json:"syllabus_coverage"`
	Status           string    `db:"status" json:"status"`
	Notes            string    `db:"notes" json:"notes"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// AbsentStudents derives the absence count, clamped at zero when the present
// count exceeds the total.
func (s *ClassSchedule) AbsentStudents() int {
	absent := s.TotalStudents - s.PresentStudents
	if absent < 0 {
		return 0
	}
	return absent
}

// CreateScheduleRequest is the class-session form.
type CreateScheduleRequest struct {
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime        string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime          string `json:"end_time" validate:"required,datetime=15:04"`
	ClassName        string `json:"class_name" validate:"required,max=100"`
	Topic            string `json:"topic" validate:"required,max=255"`
	TotalStudents    int    `json:"total_students" validate:"gte=0"`
	PresentStudents  int    `json:"present_students" validate:"gte=0"`
	SyllabusCoverage int    `json:"syllabus_coverage" validate:"gte=0,lte=100"`
	Status           string `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Notes            string `json:"notes" validate:"max=2000"`
}
