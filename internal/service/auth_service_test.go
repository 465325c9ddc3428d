package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arkan-dev/preskool-api/internal/models"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
	"github.com/arkan-dev/preskool-api/pkg/jobs"
)

type fakeAuthRepo struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	created       []*models.User
	createErr     error
	refreshTokens map[string]*models.RefreshToken
	resetTokens   map[string]*models.PasswordResetToken
	consumed      map[string]bool
	auditLogs     []*models.AuditLog
	revokedUsers  []string
	passwordSet   map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail:  map[string]*models.User{},
		usersByID:     map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
		resetTokens:   map[string]*models.PasswordResetToken{},
		consumed:      map[string]bool{},
		passwordSet:   map[string]string{},
	}
}

func (f *fakeAuthRepo) addUser(u *models.User) {
	f.usersByEmail[u.Email] = u
	f.usersByID[u.ID] = u
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) Create(_ context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, user)
	f.addUser(user)
	return nil
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	if u, ok := f.usersByID[id]; ok {
		u.LastLogin = &ts
	}
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	f.passwordSet[id] = passwordHash
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedUsers = append(f.revokedUsers, userID)
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, t := range f.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateResetToken(_ context.Context, token *models.PasswordResetToken) error {
	f.resetTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindResetToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	if t, ok := f.resetTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) ConsumeResetToken(_ context.Context, id string, usedAt, cutoff time.Time) (bool, error) {
	for _, t := range f.resetTokens {
		if t.ID != id {
			continue
		}
		if t.UsedAt != nil || t.CreatedAt.Before(cutoff) {
			return false, nil
		}
		t.UsedAt = &usedAt
		f.consumed[id] = true
		return true, nil
	}
	return false, nil
}

func (f *fakeAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

type fakeMailQueue struct {
	jobs       []jobs.Job
	enqueueErr error
}

func (f *fakeMailQueue) Enqueue(job jobs.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		ResetTokenTTL:      24 * time.Hour,
		BaseURL:            "http://localhost:3000",
	}
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceSignup(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName:       "Amina",
		LastName:        "Diallo",
		Email:           "Amina@Example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		AccountType:     models.AccountTypeTeacher,
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, "amina@example.com", created.Email)
	assert.True(t, created.IsTeacher)
	assert.False(t, created.IsAdmin)
	assert.NotEqual(t, "secret123", created.PasswordHash)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "/teacher/dashboard", resp.RedirectTo)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionSignup, repo.auditLogs[0].Action)
}

func TestAuthServiceSignupDefaultsToTeacher(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName:       "Amina",
		LastName:        "Diallo",
		Email:           "  Amina@Example.com ",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, "amina@example.com", created.Email)
	assert.True(t, created.IsTeacher)
	assert.False(t, created.IsAdmin)
	assert.Equal(t, "/teacher/dashboard", resp.RedirectTo)
}

func TestAuthServiceSignupPasswordMismatch(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName:       "Amina",
		LastName:        "Diallo",
		Email:           "amina@example.com",
		Password:        "secret123",
		ConfirmPassword: "different",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.createErr = fmt.Errorf("create user: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"})
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName:       "Amina",
		LastName:        "Diallo",
		Email:           "amina@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "amina@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		IsAdmin:      true,
	})
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "  Amina@Example.com ",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", resp.RedirectTo)
	assert.Equal(t, "u1", resp.User.ID)
	assert.NotNil(t, repo.usersByID["u1"].LastLogin)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "amina@example.com",
		PasswordHash: hashPassword(t, "secret123"),
	})
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "amina@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginNextRedirect(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "amina@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		IsTeacher:    true,
	})
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	cases := []struct {
		name string
		next string
		want string
	}{
		{"relative path honoured", "/students", "/students"},
		{"empty falls back", "", "/teacher/dashboard"},
		{"absolute url rejected", "https://evil.example/phish", "/teacher/dashboard"},
		{"protocol relative rejected", "//evil.example", "/teacher/dashboard"},
		{"backslash rejected", "/\\evil.example", "/teacher/dashboard"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), models.LoginRequest{
				Email:    "amina@example.com",
				Password: "secret123",
				Next:     tc.next,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.RedirectTo)
		})
	}
}

func TestAuthServiceSingleSessionRevokesOnLogin(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "amina@example.com",
		PasswordHash: hashPassword(t, "secret123"),
	})
	cfg := testAuthConfig()
	cfg.SingleSession = true
	svc := NewAuthService(repo, nil, nil, nil, cfg)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "amina@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedUsers, "u1")
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "amina@example.com"})
	repo.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutOtherUsersToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.refreshTokens["tok"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "tok",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	err := svc.Logout(context.Background(), "tok", "u2", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.refreshTokens["tok"].Revoked)
}

func TestAuthServiceForgotPasswordEnqueuesMail(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "amina@example.com", FirstName: "Amina", LastName: "Diallo"})
	queue := &fakeMailQueue{}
	svc := NewAuthService(repo, queue, nil, nil, testAuthConfig())

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "amina@example.com"})
	require.NoError(t, err)

	require.Len(t, repo.resetTokens, 1)
	require.Len(t, queue.jobs, 1)
	payload, ok := queue.jobs[0].Payload.(ResetEmailPayload)
	require.True(t, ok)
	assert.Equal(t, "amina@example.com", payload.Address)
	assert.Equal(t, "Amina Diallo", payload.Name)
	assert.Contains(t, payload.Link, "http://localhost:3000/reset-password/")
}

func TestAuthServiceForgotPasswordUnknownEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	queue := &fakeMailQueue{}
	svc := NewAuthService(repo, queue, nil, nil, testAuthConfig())

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, repo.resetTokens)
	assert.Empty(t, queue.jobs)
}

func TestAuthServiceResetPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "amina@example.com"})
	repo.resetTokens["reset-tok"] = &models.PasswordResetToken{
		ID:        "prt1",
		UserID:    "u1",
		Email:     "amina@example.com",
		Token:     "reset-tok",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Token:       "reset-tok",
		NewPassword: "brand-new-pass",
	})
	require.NoError(t, err)

	assert.True(t, repo.consumed["prt1"])
	assert.NotEmpty(t, repo.passwordSet["u1"])
	assert.Contains(t, repo.revokedUsers, "u1")
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionPasswordReset, repo.auditLogs[0].Action)
}

func TestAuthServiceResetPasswordExpiredToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.resetTokens["stale-tok"] = &models.PasswordResetToken{
		ID:        "prt1",
		UserID:    "u1",
		Token:     "stale-tok",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Token:       "stale-tok",
		NewPassword: "brand-new-pass",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.passwordSet)
}

func TestAuthServiceResetPasswordTokenUsedOnce(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "amina@example.com"})
	repo.resetTokens["reset-tok"] = &models.PasswordResetToken{
		ID:        "prt1",
		UserID:    "u1",
		Token:     "reset-tok",
		CreatedAt: time.Now().UTC(),
	}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	req := models.ResetPasswordRequest{Token: "reset-tok", NewPassword: "brand-new-pass"}
	require.NoError(t, svc.ResetPassword(context.Background(), req))

	err := svc.ResetPassword(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateResetToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.resetTokens["reset-tok"] = &models.PasswordResetToken{
		ID:        "prt1",
		UserID:    "u1",
		Token:     "reset-tok",
		CreatedAt: time.Now().UTC(),
	}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	require.NoError(t, svc.ValidateResetToken(context.Background(), "reset-tok"))
	assert.Nil(t, repo.resetTokens["reset-tok"].UsedAt)

	err := svc.ValidateResetToken(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "amina@example.com", IsTeacher: true})
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	token, err := svc.generateAccessToken(repo.usersByID["u1"])
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.IsTeacher)

	_, err = svc.ValidateToken(token + "tampered")
	require.Error(t, err)
}

func TestResolveNext(t *testing.T) {
	cases := []struct {
		next string
		want string
	}{
		{"", "/dashboard"},
		{"/students", "/students"},
		{"/students?page=2", "/students?page=2"},
		{"//evil.example", "/dashboard"},
		{"https://evil.example", "/dashboard"},
		{"javascript:alert(1)", "/dashboard"},
		{"/a\\b", "/dashboard"},
		{"relative/path", "/dashboard"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolveNext(tc.next, "/dashboard"), "next=%q", tc.next)
	}
}
