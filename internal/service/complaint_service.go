package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-box-api/internal/models"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
	"github.com/noah-isme/complaint-box-api/pkg/export"
)

type complaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	UpdateStatus(ctx context.Context, id, status string, now time.Time) (*models.Complaint, error)
	AddResponse(ctx context.Context, complaintID string, resp *models.ComplaintResponse, now time.Time) (*models.Complaint, error)
	SetFeedback(ctx context.Context, id string, rating int, comment string, now time.Time) (*models.Complaint, error)
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// CreateComplaintRequest is the submission payload. Category and
// department are closed sets at the boundary.
type CreateComplaintRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=academic administrative facilities technical other"`
	Department  string `json:"department" validate:"required,oneof=computer-science engineering business arts sciences student-affairs facilities-management it-services other"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// UpdateStatusRequest carries the admin's target status. Only presence
// is validated; the value itself is persisted as given, so any
// non-empty string is accepted.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AddResponseRequest is an admin reply.
type AddResponseRequest struct {
	Content string `json:"content" validate:"required"`
}

// FeedbackRequest is the owner's rating of the handling.
type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required"`
}

// ComplaintService is the lifecycle engine: it enforces the state
// machine and field-level invariants on top of raw storage. Ownership
// and role rules live here; handlers only translate HTTP.
type ComplaintService struct {
	repo      complaintRepository
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(repo complaintRepository, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ComplaintService{repo: repo, stats: stats, validator: validate, logger: logger}
}

// Create submits a new complaint for the acting user. Status always
// starts at pending; the owner id is recorded even for anonymous
// submissions, anonymity only blanks the display name.
func (s *ComplaintService) Create(ctx context.Context, actor *models.User, req CreateComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}

	now := time.Now().UTC()
	complaint := &models.Complaint{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Department:  req.Department,
		IsAnonymous: req.IsAnonymous,
		Status:      string(models.StatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
		StudentID:   actor.ID,
	}
	if !req.IsAnonymous {
		name := actor.Name
		complaint.StudentName = &name
	}

	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}

	s.invalidateStats(ctx)
	return complaint, nil
}

// List returns complaints visible to the actor, newest first. Students
// are scoped to their own complaints in the query itself; admins see
// everything. An optional status filter applies after scoping.
func (s *ComplaintService) List(ctx context.Context, actor *models.User, statusFilter string) ([]models.Complaint, error) {
	filter := models.ComplaintFilter{Status: statusFilter}
	if actor.Role != models.RoleAdmin {
		filter.StudentID = actor.ID
	}

	complaints, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, nil
}

// Get returns a single complaint. Existence is checked before
// ownership: a missing id is 404 for everyone, a foreign complaint is
// 403 for non-admin callers.
func (s *ComplaintService) Get(ctx context.Context, actor *models.User, id string) (*models.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}

	if actor.Role != models.RoleAdmin && complaint.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to view this complaint")
	}
	return complaint, nil
}

// UpdateStatus overwrites the status with the admin-supplied value and
// refreshes updatedAt. Any transition among states is accepted.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *models.User, id string, req UpdateStatusRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}

	complaint, err := s.repo.UpdateStatus(ctx, id, req.Status, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update complaint status")
	}

	s.logger.Info("complaint status updated",
		zap.String("complaint_id", id),
		zap.String("status", req.Status),
		zap.String("admin_id", actor.ID),
	)
	s.invalidateStats(ctx)
	return complaint, nil
}

// AddResponse appends an admin reply stamped with the acting admin's
// identity. Entries are never reordered or deduplicated.
func (s *ComplaintService) AddResponse(ctx context.Context, actor *models.User, id string, req AddResponseRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "content is required")
	}

	resp := &models.ComplaintResponse{
		ID:        uuid.NewString(),
		Content:   req.Content,
		AdminName: actor.Name,
		AdminID:   actor.ID,
	}

	complaint, err := s.repo.AddResponse(ctx, id, resp, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add response")
	}
	return complaint, nil
}

// SetFeedback records the owner's rating. Existence is checked before
// ownership, and only the owning student may submit; prior feedback is
// overwritten unconditionally.
func (s *ComplaintService) SetFeedback(ctx context.Context, actor *models.User, id string, req FeedbackRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be an integer between 1 and 5 and comment is required")
	}

	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}

	if complaint.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the complaint owner can add feedback")
	}

	updated, err := s.repo.SetFeedback(ctx, id, req.Rating, req.Comment, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set feedback")
	}
	return updated, nil
}

// ExportDataset flattens the full complaint set into a tabular dataset
// for the admin CSV/PDF export.
func (s *ComplaintService) ExportDataset(ctx context.Context) (export.Dataset, error) {
	complaints, err := s.repo.List(ctx, models.ComplaintFilter{})
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaints for export")
	}

	headers := []string{"ID", "Title", "Category", "Department", "Status", "Student", "Created", "Responses", "Rating"}
	rows := make([]map[string]string, 0, len(complaints))
	for _, c := range complaints {
		student := ""
		if c.StudentName != nil {
			student = *c.StudentName
		}
		rating := ""
		if c.Feedback != nil {
			rating = fmt.Sprintf("%d", c.Feedback.Rating)
		}
		rows = append(rows, map[string]string{
			"ID":         c.ID,
			"Title":      c.Title,
			"Category":   c.Category,
			"Department": c.Department,
			"Status":     c.Status,
			"Student":    student,
			"Created":    c.CreatedAt.UTC().Format(time.RFC3339),
			"Responses":  fmt.Sprintf("%d", len(c.Responses)),
			"Rating":     rating,
		})
	}

	return export.Dataset{Headers: headers, Rows: rows}, nil
}

func (s *ComplaintService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
}
