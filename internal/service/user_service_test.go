package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/complaint-box-api/internal/models"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	deleted   []string
	updated   []*models.User
	auditLogs []*models.AuditLog
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = append(m.updated, user)
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserServiceCreateAdminForcesRole(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	actor := admin("a1", "Root")

	created, err := svc.CreateAdmin(context.Background(), CreateAdminRequest{
		Name:     "Second",
		Email:    "second@example.com",
		Password: "password",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.NotEqual(t, "password", created.PasswordHash)
	assert.NotEmpty(t, repo.auditLogs)
}

func TestUserServiceCreateAdminDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "a1", Email: "root@example.com", Role: models.RoleAdmin})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.CreateAdmin(context.Background(), CreateAdminRequest{
		Name:     "Clone",
		Email:    "root@example.com",
		Password: "password",
	}, admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUserExists.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateAdminPartial(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.DefaultCost)
	target := &models.User{ID: "a2", Name: "Old Name", Email: "a2@example.com", Role: models.RoleAdmin, PasswordHash: string(hash)}
	repo := newMockUserRepo(target)
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	newName := "New Name"
	newPassword := "newpassword"
	updated, err := svc.UpdateAdmin(context.Background(), "a2", UpdateAdminRequest{Name: &newName, Password: &newPassword}, admin("a1", "Root"))
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "a2@example.com", updated.Email)
	assert.NotEqual(t, string(hash), updated.PasswordHash)
	require.NotEmpty(t, repo.updated)
}

func TestUserServiceUpdateAdminRejectsNonAdminTarget(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "s1", Email: "s1@example.com", Role: models.RoleStudent})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	name := "Sneaky"
	_, err := svc.UpdateAdmin(context.Background(), "s1", UpdateAdminRequest{Name: &name}, admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Empty(t, repo.updated)
}

func TestUserServiceUpdateAdminMissingTarget(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), validator.New(), zap.NewNop())

	name := "Ghost"
	_, err := svc.UpdateAdmin(context.Background(), "missing", UpdateAdminRequest{Name: &name}, admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestUserServiceUpdateAdminEmailConflict(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "a1", Email: "root@example.com", Role: models.RoleAdmin},
		&models.User{ID: "a2", Email: "a2@example.com", Role: models.RoleAdmin},
	)
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	taken := "root@example.com"
	_, err := svc.UpdateAdmin(context.Background(), "a2", UpdateAdminRequest{Email: &taken}, admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUserExists.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteAdminSelf(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "a1", Role: models.RoleAdmin},
		&models.User{ID: "a2", Role: models.RoleAdmin},
	)
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteAdmin(context.Background(), "a1", admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Empty(t, repo.deleted)
}

func TestUserServiceDeleteAdminLastRemaining(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "a2", Role: models.RoleAdmin})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteAdmin(context.Background(), "a2", admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Empty(t, repo.deleted)
}

func TestUserServiceDeleteAdminSuccess(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "a1", Role: models.RoleAdmin},
		&models.User{ID: "a2", Role: models.RoleAdmin},
	)
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteAdmin(context.Background(), "a2", admin("a1", "Root"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, repo.deleted)
	assert.NotEmpty(t, repo.auditLogs)
}

func TestUserServiceDeleteAdminNonAdminTarget(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "a1", Role: models.RoleAdmin},
		&models.User{ID: "s1", Role: models.RoleStudent},
	)
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteAdmin(context.Background(), "s1", admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestUserServiceDeleteStudent(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "s1", Role: models.RoleStudent})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteStudent(context.Background(), "s1", admin("a1", "Root"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, repo.deleted)
}

func TestUserServiceDeleteStudentNonStudentTarget(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "a2", Role: models.RoleAdmin})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteStudent(context.Background(), "a2", admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Empty(t, repo.deleted)
}

func TestUserServiceDeleteStudentMissing(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), validator.New(), zap.NewNop())

	err := svc.DeleteStudent(context.Background(), "missing", admin("a1", "Root"))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestUserServiceListByRole(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "a1", Role: models.RoleAdmin},
		&models.User{ID: "s1", Role: models.RoleStudent},
		&models.User{ID: "s2", Role: models.RoleStudent},
	)
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	admins, err := svc.ListAdmins(context.Background())
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	students, err := svc.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 2)
}
