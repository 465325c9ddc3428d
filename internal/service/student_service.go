package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkan-dev/preskool-api/internal/models"
	"github.com/arkan-dev/preskool-api/pkg/database"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
	"github.com/arkan-dev/preskool-api/pkg/export"
	"github.com/arkan-dev/preskool-api/pkg/storage"
)

type studentRepository interface {
	Create(ctx context.Context, parent *models.Parent, student *models.Student) error
	Update(ctx context.Context, parent *models.Parent, student *models.Student) error
	Delete(ctx context.Context, studentID, parentID string) error
	FindBySlug(ctx context.Context, slug string) (*models.StudentDetail, error)
	List(ctx context.Context) ([]models.StudentDetail, error)
	StudentIDExists(ctx context.Context, studentID, excludeID string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type studentNotifier interface {
	Notify(ctx context.Context, userID, message string)
}

type studentAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// StudentService manages the student registry: guardian-paired records,
// portrait uploads served through signed URLs, and roster exports.
type StudentService struct {
	repo      studentRepository
	notifier  studentNotifier
	auditor   studentAuditor
	dashboard *DashboardService
	uploads   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(repo studentRepository, notifier studentNotifier, auditor studentAuditor, dashboard *DashboardService, uploads *storage.LocalStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:      repo,
		notifier:  notifier,
		auditor:   auditor,
		dashboard: dashboard,
		uploads:   uploads,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Add registers a student with its guardian record. The admission-office
// student id must be unique across the registry.
func (s *StudentService) Add(ctx context.Context, actorID string, req models.SaveStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if exists, err := s.repo.StudentIDExists(ctx, req.Student.StudentID, ""); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	} else if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this student id already exists")
	}

	student, parent, err := s.buildRecords(req)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, student.FirstName, student.LastName)
	if err != nil {
		return nil, err
	}
	student.Slug = slug

	if err := s.repo.Create(ctx, parent, student); err != nil {
		if database.IsUniqueViolation(err, "students_student_id_key") {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this student id already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.afterWrite(ctx, actorID, models.AuditActionStudentCreate, student, fmt.Sprintf("Added student: %s", student.FullName()))

	return s.Detail(ctx, student.Slug)
}

// Edit overwrites a student and its guardian record with the submitted form.
// The slug is stable across edits even when the name changes.
func (s *StudentService) Edit(ctx context.Context, actorID, slug string, req models.SaveStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	existing, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if exists, err := s.repo.StudentIDExists(ctx, req.Student.StudentID, existing.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	} else if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this student id already exists")
	}

	student, parent, err := s.buildRecords(req)
	if err != nil {
		return nil, err
	}
	student.ID = existing.ID
	student.Slug = existing.Slug
	student.ParentID = existing.ParentID
	student.ImagePath = existing.ImagePath
	student.CreatedAt = existing.CreatedAt
	parent.ID = existing.ParentID
	parent.CreatedAt = existing.Parent.CreatedAt

	if err := s.repo.Update(ctx, parent, student); err != nil {
		if database.IsUniqueViolation(err, "students_student_id_key") {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this student id already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.afterWrite(ctx, actorID, models.AuditActionStudentUpdate, student, fmt.Sprintf("Updated student: %s", student.FullName()))

	return s.Detail(ctx, student.Slug)
}

// Delete removes a student together with its guardian record and stored
// portrait.
func (s *StudentService) Delete(ctx context.Context, actorID, slug string) error {
	existing, err := s.findBySlug(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, existing.ID, existing.ParentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	if existing.ImagePath != nil && s.uploads != nil {
		if err := s.uploads.Delete(*existing.ImagePath); err != nil {
			s.logger.Warn("failed to delete student image", zap.String("path", *existing.ImagePath), zap.Error(err))
		}
	}

	s.afterWrite(ctx, actorID, models.AuditActionStudentDelete, &existing.Student, fmt.Sprintf("Deleted student: %s", existing.FullName()))

	return nil
}

// List returns every student with its guardian record.
func (s *StudentService) List(ctx context.Context) ([]models.StudentDetail, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	for i := range students {
		s.attachImageURL(&students[i])
	}
	return students, nil
}

// Detail returns one student by slug with a signed portrait URL when an image
// is stored.
func (s *StudentService) Detail(ctx context.Context, slug string) (*models.StudentDetail, error) {
	detail, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.attachImageURL(detail)
	return detail, nil
}

// AttachImage stores an uploaded portrait and links it to the student. A
// previously stored portrait is replaced.
func (s *StudentService) AttachImage(ctx context.Context, actorID, slug, filename string, r io.Reader) (*models.StudentDetail, error) {
	if s.uploads == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "uploads are not configured")
	}

	existing, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported image type")
	}

	relPath := filepath.Join("students", existing.ID, uuid.NewString()+ext)
	stored, err := s.uploads.SaveStream(relPath, r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}

	previous := existing.ImagePath
	existing.ImagePath = &stored
	if err := s.repo.Update(ctx, &existing.Parent, &existing.Student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link image")
	}

	if previous != nil && *previous != stored {
		if err := s.uploads.Delete(*previous); err != nil {
			s.logger.Warn("failed to delete replaced student image", zap.String("path", *previous), zap.Error(err))
		}
	}

	s.afterWrite(ctx, actorID, models.AuditActionStudentUpdate, &existing.Student, fmt.Sprintf("Updated student: %s", existing.FullName()))

	s.attachImageURL(existing)
	return existing, nil
}

// OpenImage validates a signed token and opens the referenced portrait for
// streaming.
func (s *StudentService) OpenImage(token string) (io.ReadCloser, error) {
	if s.signer == nil || s.uploads == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	file, err := s.uploads.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	return file, nil
}

// Export renders the full roster as CSV or PDF.
func (s *StudentService) Export(ctx context.Context, format string) (filename, contentType string, data []byte, err error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Class", "Section", "Gender", "Date of Birth", "Joining Date", "Mobile", "Father Name", "Mother Name"},
	}
	for _, student := range students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID":    student.StudentID,
			"Name":          student.FullName(),
			"Class":         student.StudentClass,
			"Section":       student.Section,
			"Gender":        student.Gender,
			"Date of Birth": student.DateOfBirth.Format("2006-01-02"),
			"Joining Date":  student.JoiningDate.Format("2006-01-02"),
			"Mobile":        student.MobileNumber,
			"Father Name":   student.Parent.FatherName,
			"Mother Name":   student.Parent.MotherName,
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch strings.ToLower(format) {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return fmt.Sprintf("students_%s.csv", stamp), "text/csv", payload, nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Student Roster")
		if err != nil {
			return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return fmt.Sprintf("students_%s.pdf", stamp), "application/pdf", payload, nil
	default:
		return "", "", nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *StudentService) findBySlug(ctx context.Context, slug string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

func (s *StudentService) buildRecords(req models.SaveStudentRequest) (*models.Student, *models.Parent, error) {
	dob, err := time.Parse("2006-01-02", req.Student.DateOfBirth)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
	}
	joining, err := time.Parse("2006-01-02", req.Student.JoiningDate)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid joining date")
	}

	student := &models.Student{
		FirstName:       req.Student.FirstName,
		LastName:        req.Student.LastName,
		StudentID:       req.Student.StudentID,
		Gender:          req.Student.Gender,
		DateOfBirth:     dob,
		StudentClass:    req.Student.StudentClass,
		Religion:        req.Student.Religion,
		JoiningDate:     joining,
		MobileNumber:    req.Student.MobileNumber,
		AdmissionNumber: req.Student.AdmissionNumber,
		Section:         req.Student.Section,
	}
	parent := &models.Parent{
		FatherName:       req.Parent.FatherName,
		FatherOccupation: req.Parent.FatherOccupation,
		FatherMobile:     req.Parent.FatherMobile,
		FatherEmail:      req.Parent.FatherEmail,
		MotherName:       req.Parent.MotherName,
		MotherOccupation: req.Parent.MotherOccupation,
		MotherMobile:     req.Parent.MotherMobile,
		MotherEmail:      req.Parent.MotherEmail,
		PresentAddress:   req.Parent.PresentAddress,
		PermanentAddress: req.Parent.PermanentAddress,
	}
	return student, parent, nil
}

func (s *StudentService) uniqueSlug(ctx context.Context, firstName, lastName string) (string, error) {
	base := slugify(firstName + " " + lastName)
	if base == "" {
		base = "student"
	}
	slug := base
	for attempt := 0; attempt < 5; attempt++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
		}
		if !exists {
			return slug, nil
		}
		suffix := make([]byte, 3)
		if _, err := rand.Read(suffix); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate slug")
		}
		slug = base + "-" + hex.EncodeToString(suffix)
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "failed to allocate a unique slug")
}

func (s *StudentService) attachImageURL(detail *models.StudentDetail) {
	if detail == nil || detail.ImagePath == nil || s.signer == nil {
		return
	}
	token, _, err := s.signer.Generate(detail.ID, *detail.ImagePath)
	if err != nil {
		s.logger.Warn("failed to sign image url", zap.String("student_id", detail.ID), zap.Error(err))
		return
	}
	detail.ImageURL = "/media/" + token
}

func (s *StudentService) afterWrite(ctx context.Context, actorID, action string, student *models.Student, message string) {
	if s.notifier != nil && actorID != "" {
		s.notifier.Notify(ctx, actorID, message)
	}
	if s.dashboard != nil {
		s.dashboard.InvalidateAll(ctx)
	}
	if s.auditor != nil {
		values, err := json.Marshal(student)
		if err != nil {
			values = nil
		}
		actor := actorID
		if err := s.auditor.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor,
			Action:     action,
			Resource:   "student",
			ResourceID: &student.ID,
			NewValues:  values,
		}); err != nil {
			s.logger.Warn("failed to record student audit log", zap.Error(err))
		}
	}
}

func slugify(raw string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
