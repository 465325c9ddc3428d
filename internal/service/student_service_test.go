package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkan-dev/preskool-api/internal/models"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
)

type fakeStudentRepo struct {
	bySlug     map[string]*models.StudentDetail
	takenIDs   map[string]string
	takenSlugs map[string]bool
	createErr  error
	updated    []*models.Student
	deleted    [][2]string
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{
		bySlug:     map[string]*models.StudentDetail{},
		takenIDs:   map[string]string{},
		takenSlugs: map[string]bool{},
	}
}

func (f *fakeStudentRepo) seed(detail *models.StudentDetail) {
	f.bySlug[detail.Slug] = detail
	f.takenIDs[detail.StudentID] = detail.ID
	f.takenSlugs[detail.Slug] = true
}

func (f *fakeStudentRepo) Create(_ context.Context, parent *models.Parent, student *models.Student) error {
	if f.createErr != nil {
		return f.createErr
	}
	if parent.ID == "" {
		parent.ID = "p-" + student.Slug
	}
	if student.ID == "" {
		student.ID = "s-" + student.Slug
	}
	student.ParentID = parent.ID
	f.seed(&models.StudentDetail{Student: *student, Parent: *parent})
	return nil
}

func (f *fakeStudentRepo) Update(_ context.Context, parent *models.Parent, student *models.Student) error {
	f.updated = append(f.updated, student)
	f.bySlug[student.Slug] = &models.StudentDetail{Student: *student, Parent: *parent}
	return nil
}

func (f *fakeStudentRepo) Delete(_ context.Context, studentID, parentID string) error {
	f.deleted = append(f.deleted, [2]string{studentID, parentID})
	for slug, detail := range f.bySlug {
		if detail.ID == studentID {
			delete(f.bySlug, slug)
		}
	}
	return nil
}

func (f *fakeStudentRepo) FindBySlug(_ context.Context, slug string) (*models.StudentDetail, error) {
	if detail, ok := f.bySlug[slug]; ok {
		copied := *detail
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) List(_ context.Context) ([]models.StudentDetail, error) {
	out := []models.StudentDetail{}
	for _, detail := range f.bySlug {
		out = append(out, *detail)
	}
	return out, nil
}

func (f *fakeStudentRepo) StudentIDExists(_ context.Context, studentID, excludeID string) (bool, error) {
	id, ok := f.takenIDs[studentID]
	return ok && id != excludeID, nil
}

func (f *fakeStudentRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	return f.takenSlugs[slug], nil
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, _ string, message string) {
	r.messages = append(r.messages, message)
}

type recordingAuditor struct {
	logs []*models.AuditLog
}

func (r *recordingAuditor) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func saveStudentRequest(studentID string) models.SaveStudentRequest {
	return models.SaveStudentRequest{
		Student: models.StudentFields{
			FirstName:    "Kofi",
			LastName:     "Mensah",
			StudentID:    studentID,
			Gender:       "Male",
			DateOfBirth:  "2012-04-18",
			StudentClass: "10 A",
			JoiningDate:  "2024-01-08",
			Section:      "A",
		},
		Parent: models.ParentFields{
			FatherName: "Yaw Mensah",
			MotherName: "Abena Mensah",
		},
	}
}

func TestStudentServiceAdd(t *testing.T) {
	repo := newFakeStudentRepo()
	notifier := &recordingNotifier{}
	auditor := &recordingAuditor{}
	svc := NewStudentService(repo, notifier, auditor, nil, nil, nil, nil, nil)

	detail, err := svc.Add(context.Background(), "u1", saveStudentRequest("PRE2043"))
	require.NoError(t, err)

	assert.Equal(t, "kofi-mensah", detail.Slug)
	assert.Equal(t, "PRE2043", detail.StudentID)
	assert.Equal(t, "Yaw Mensah", detail.Parent.FatherName)
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Added student: Kofi Mensah", notifier.messages[0])
	require.Len(t, auditor.logs, 1)
	assert.Equal(t, models.AuditActionStudentCreate, auditor.logs[0].Action)
}

func TestStudentServiceAddDuplicateStudentID(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.seed(&models.StudentDetail{Student: models.Student{ID: "s1", StudentID: "PRE2043", Slug: "ama-owusu"}})
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.Add(context.Background(), "u1", saveStudentRequest("PRE2043"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAddDuplicateRaceOnInsert(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.createErr = fmt.Errorf("create student: %w", &pq.Error{Code: "23505", Constraint: "students_student_id_key"})
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.Add(context.Background(), "u1", saveStudentRequest("PRE2043"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAddAllocatesSuffixedSlugOnCollision(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.seed(&models.StudentDetail{Student: models.Student{ID: "s1", StudentID: "PRE1000", Slug: "kofi-mensah"}})
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, nil, nil)

	detail, err := svc.Add(context.Background(), "u1", saveStudentRequest("PRE2043"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(detail.Slug, "kofi-mensah-"))
	assert.NotEqual(t, "kofi-mensah", detail.Slug)
}

func TestStudentServiceEditKeepsSlugAndImage(t *testing.T) {
	repo := newFakeStudentRepo()
	image := "students/s1/portrait.jpg"
	repo.seed(&models.StudentDetail{Student: models.Student{
		ID:        "s1",
		FirstName: "Kofi",
		LastName:  "Mensah",
		StudentID: "PRE2043",
		Slug:      "kofi-mensah",
		ParentID:  "p1",
		ImagePath: &image,
	}})
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, nil, nil)

	req := saveStudentRequest("PRE2043")
	req.Student.FirstName = "Kwame"
	detail, err := svc.Edit(context.Background(), "u1", "kofi-mensah", req)
	require.NoError(t, err)

	assert.Equal(t, "Kwame", detail.FirstName)
	assert.Equal(t, "kofi-mensah", detail.Slug, "slug stays stable across renames")
	require.NotNil(t, detail.ImagePath)
	assert.Equal(t, image, *detail.ImagePath)
	assert.Equal(t, "p1", detail.ParentID)
}

func TestStudentServiceEditDuplicateStudentIDExcludesSelf(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.seed(&models.StudentDetail{Student: models.Student{ID: "s1", StudentID: "PRE2043", Slug: "kofi-mensah", ParentID: "p1"}})
	repo.seed(&models.StudentDetail{Student: models.Student{ID: "s2", StudentID: "PRE2044", Slug: "ama-owusu", ParentID: "p2"}})
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, nil, nil)

	// keeping the record's own student id is not a conflict
	_, err := svc.Edit(context.Background(), "u1", "kofi-mensah", saveStudentRequest("PRE2043"))
	require.NoError(t, err)

	// taking another record's student id is
	_, err = svc.Edit(context.Background(), "u1", "kofi-mensah", saveStudentRequest("PRE2044"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceEditNotFound(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.Edit(context.Background(), "u1", "missing", saveStudentRequest("PRE2043"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.seed(&models.StudentDetail{Student: models.Student{ID: "s1", FirstName: "Kofi", LastName: "Mensah", StudentID: "PRE2043", Slug: "kofi-mensah", ParentID: "p1"}})
	notifier := &recordingNotifier{}
	svc := NewStudentService(repo, notifier, nil, nil, nil, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "u1", "kofi-mensah"))
	require.Len(t, repo.deleted, 1)
	assert.Equal(t, [2]string{"s1", "p1"}, repo.deleted[0])
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Deleted student: Kofi Mensah", notifier.messages[0])
}

func TestStudentServiceExportCSV(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.seed(&models.StudentDetail{
		Student: models.Student{ID: "s1", FirstName: "Kofi", LastName: "Mensah", StudentID: "PRE2043", Slug: "kofi-mensah", StudentClass: "10 A"},
		Parent:  models.Parent{FatherName: "Yaw Mensah"},
	})
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, nil, nil)

	filename, contentType, data, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "students_"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	assert.Equal(t, "text/csv", contentType)

	body := string(data)
	assert.Contains(t, body, "Student ID,Name,Class")
	assert.Contains(t, body, "PRE2043,Kofi Mensah,10 A")
}

func TestStudentServiceExportUnsupportedFormat(t *testing.T) {
	svc := NewStudentService(newFakeStudentRepo(), nil, nil, nil, nil, nil, nil, nil)

	_, _, _, err := svc.Export(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Kofi Mensah", "kofi-mensah"},
		{"  Ama   Owusu  ", "ama-owusu"},
		{"O'Brien Jr.", "o-brien-jr"},
		{"---", ""},
		{"École 7", "école-7"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, slugify(tc.in), "input=%q", tc.in)
	}
}
