package dto

import (
	"time"

	"github.com/arkan-dev/preskool-api/internal/models"
)

// ScheduleSummary is the dashboard projection of a class session.
type ScheduleSummary struct {
	ID               string    `json:"id"`
	TeacherID        string    `json:"teacher_id"`
	Date             time.Time `json:"date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	ClassName        string    `json:"class_name"`
	Topic            string    `json:"topic"`
	TotalStudents    int       `json:"total_students"`
	PresentStudents  int       `json:"present_students"`
	AbsentStudents   int       `json:"absent_students"`
	SyllabusCoverage int       `json:"syllabus_coverage"`
	Status           string    `json:"status"`
}

// NewScheduleSummary projects a ClassSchedule including the derived absence
// count.
func NewScheduleSummary(s models.ClassSchedule) ScheduleSummary {
	return ScheduleSummary{
		ID:               s.ID,
		TeacherID:        s.TeacherID,
		Date:             s.Date,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		ClassName:        s.ClassName,
		Topic:            s.Topic,
		TotalStudents:    s.TotalStudents,
		PresentStudents:  s.PresentStudents,
		AbsentStudents:   s.AbsentStudents(),
		SyllabusCoverage: s.SyllabusCoverage,
		Status:           s.Status,
	}
}

// AdminDashboardResponse is the global summary for admin accounts.
type AdminDashboardResponse struct {
	StudentCount    int                           `json:"student_count"`
	TeacherCount    int                           `json:"teacher_count"`
	TotalClasses    int                           `json:"total_classes"`
	Coverage        float64                       `json:"coverage"`
	UpcomingClasses []ScheduleSummary             `json:"upcoming_classes"`
	HomeworkQueue   []models.Homework             `json:"homework_queue"`
	TeacherProfiles []models.TeacherProfileDetail `json:"teacher_profiles"`
	RecentStudents  []models.Student              `json:"recent_students"`
	GeneratedAt     time.Time                     `json:"generated_at"`
}

// TeacherDashboardResponse is the per-teacher workspace summary.
type TeacherDashboardResponse struct {
	Profile         models.TeacherProfile         `json:"profile"`
	UpcomingClasses []ScheduleSummary             `json:"upcoming_classes"`
	RecentHistory   []ScheduleSummary             `json:"recent_history"`
	TotalClasses    int                           `json:"total_classes"`
	CompletedCount  int                           `json:"completed_count"`
	Coverage        float64                       `json:"coverage"`
	TotalStudents   int                           `json:"total_students"`
	HomeworkList    []models.Homework             `json:"homework_list"`
	OtherTeachers   []models.TeacherProfileDetail `json:"other_teachers"`
	Students        []models.StudentDetail        `json:"students"`
	GeneratedAt     time.Time                     `json:"generated_at"`
}
