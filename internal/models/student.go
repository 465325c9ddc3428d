package models

import "time"

// Parent holds guardian details for exactly one student. The pair is created
// together and the parent row is removed with its student.
type Parent struct {
	ID               string    `db:"id" json:"id"`
	FatherName       string    `db:"father_name" json:"father_name"`
	FatherOccupation string    `db:"father_occupation" json:"father_occupation"`
	FatherMobile     string    `db:"father_mobile" json:"father_mobile"`
	FatherEmail      string    `db:"father_email" json:"father_email"`
	MotherName       string    `db:"mother_name" json:"mother_name"`
	MotherOccupation string    `db:"mother_occupation" json:"mother_occupation"`
	MotherMobile     string    `db:"mother_mobile" json:"mother_mobile"`
	MotherEmail      string    `db:"mother_email" json:"mother_email"`
	PresentAddress   string    `db:"present_address" json:"present_address"`
	PermanentAddress string    `db:"permanent_address" json:"permanent_address"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Student is a learner record. StudentID is the human-assigned admission
// identifier and must be unique; Slug is the URL identifier and never changes
// once assigned.
type Student struct {
	ID              string    `db:"id" json:"id"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	StudentID       string    `db:"student_id" json:"student_id"`
	Gender          string    `db:"gender" json:"gender"`
	DateOfBirth     time.Time `db:"date_of_birth" json:"date_of_birth"`
	StudentClass    string    `db:"student_class" json:"student_class"`
	Religion        string    `db:"religion" json:"religion"`
	JoiningDate     time.Time `db:"joining_date" json:"joining_date"`
	MobileNumber    string    `db:"mobile_number" json:"mobile_number"`
	AdmissionNumber string    `db:"admission_number" json:"admission_number"`
	Section         string    `db:"section" json:"section"`
	ImagePath       *string   `db:"image_path" json:"-"`
	Slug            string    `db:"slug" json:"slug"`
	ParentID        string    `db:"parent_id" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display and notifications.
func (s *Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// StudentDetail embeds the parent record for list and detail views.
type StudentDetail struct {
	Student
	Parent   Parent `db:"parent" json:"parent"`
	ImageURL string `db:"-" json:"image_url,omitempty"`
}

// ParentFields is the guardian portion of the add/edit forms.
type ParentFields struct {
	FatherName       string `json:"father_name" validate:"max=120"`
	FatherOccupation string `json:"father_occupation" validate:"max=120"`
	FatherMobile     string `json:"father_mobile" validate:"max=20"`
	FatherEmail      string `json:"father_email" validate:"omitempty,email"`
	MotherName       string `json:"mother_name" validate:"max=120"`
	MotherOccupation string `json:"mother_occupation" validate:"max=120"`
	MotherMobile     string `json:"mother_mobile" validate:"max=20"`
	MotherEmail      string `json:"mother_email" validate:"omitempty,email"`
	PresentAddress   string `json:"present_address" validate:"max=500"`
	PermanentAddress string `json:"permanent_address" validate:"max=500"`
}

// StudentFields is the student portion of the add/edit forms.
type StudentFields struct {
	FirstName       string `json:"first_name" validate:"required,max=120"`
	LastName        string `json:"last_name" validate:"required,max=120"`
	StudentID       string `json:"student_id" validate:"required,max=50"`
	Gender          string `json:"gender" validate:"required,max=20"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	StudentClass    string `json:"student_class" validate:"required,max=50"`
	Religion        string `json:"religion" validate:"max=50"`
	JoiningDate     string `json:"joining_date" validate:"required,datetime=2006-01-02"`
	MobileNumber    string `json:"mobile_number" validate:"max=20"`
	AdmissionNumber string `json:"admission_number" validate:"max=50"`
	Section         string `json:"section" validate:"max=10"`
}

// SaveStudentRequest combines both halves of the add/edit forms.
type SaveStudentRequest struct {
	Student StudentFields `json:"student"`
	Parent  ParentFields  `json:"parent"`
}
