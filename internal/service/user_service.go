package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/complaint-box-api/internal/models"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAdminRequest is the payload for admin-initiated admin creation.
// The role is always forced to admin regardless of input.
type CreateAdminRequest struct {
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Department *string `json:"department"`
}

// UpdateAdminRequest is a partial update; nil fields are left alone.
// A supplied password is re-hashed before storage.
type UpdateAdminRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"department"`
	Password   *string `json:"password" validate:"omitempty,min=6"`
}

// UserService handles admin and student account management. The
// invariants live here: an admin cannot delete themself, the last
// remaining admin can never be deleted, and the student-delete path
// refuses non-student targets.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// ListAdmins returns every admin record.
func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	admins, err := s.repo.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	return admins, nil
}

// ListStudents returns every student record.
func (s *UserService) ListStudents(ctx context.Context) ([]models.User, error) {
	students, err := s.repo.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// CreateAdmin adds a new admin account under the usual email
// uniqueness rule.
func (s *UserService) CreateAdmin(ctx context.Context, req CreateAdminRequest, actor *models.User) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create admin payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrUserExists, "user already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         models.RoleAdmin,
		Department:   req.Department,
		PasswordHash: string(passwordHash),
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}

	s.audit(ctx, actor, models.AuditActionAdminCreate, admin.ID, map[string]interface{}{"email": admin.Email})
	return admin, nil
}

// UpdateAdmin applies a partial update to an admin record. A target
// that does not exist or is not an admin reports not-found; this path
// can never be used to edit a student.
func (s *UserService) UpdateAdmin(ctx context.Context, id string, req UpdateAdminRequest, actor *models.User) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update admin payload")
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	if target.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}

	if req.Email != nil && *req.Email != target.Email {
		if _, err := s.repo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, appErrors.Clone(appErrors.ErrUserExists, "user already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
		}
		target.Email = *req.Email
	}
	if req.Name != nil {
		target.Name = *req.Name
	}
	if req.Department != nil {
		target.Department = req.Department
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		target.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin")
	}

	s.audit(ctx, actor, models.AuditActionAdminUpdate, target.ID, map[string]interface{}{"email": target.Email})
	return target, nil
}

// DeleteAdmin removes an admin account. Self-deletion and deleting the
// last remaining admin are business-rule violations; the count is
// checked before the delete.
func (s *UserService) DeleteAdmin(ctx context.Context, id string, actor *models.User) error {
	if actor.ID == id {
		return appErrors.Clone(appErrors.ErrValidation, "administrators cannot delete their own account")
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	if target.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}

	count, err := s.repo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admins")
	}
	if count <= 1 {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete the last remaining admin account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete admin")
	}

	s.audit(ctx, actor, models.AuditActionAdminDelete, id, nil)
	return nil
}

// DeleteStudent removes a student account. A target whose role is not
// student fails with a validation error, never silently.
func (s *UserService) DeleteStudent(ctx context.Context, id string, actor *models.User) error {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if target.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "target account is not a student")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	s.audit(ctx, actor, models.AuditActionStudentDelete, id, nil)
	return nil
}

func (s *UserService) audit(ctx context.Context, actor *models.User, action, resourceID string, values map[string]interface{}) {
	var payload []byte
	if values != nil {
		payload, _ = json.Marshal(values)
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		NewValues:  payload,
	}
	if actor != nil {
		entry.UserID = &actor.ID
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
